package analysis

import (
	"math"
	"sort"

	"github.com/greenplot/ecdash/internal/config"
	"github.com/greenplot/ecdash/internal/dataset"
)

// NumSummary captures basic statistics of one numeric column for one group.
// Count 0 means no value was observed; Mean/Min/Max are meaningless then and
// the display layer must render a placeholder instead.
type NumSummary struct {
	Count          int
	Mean, Min, Max float64
}

// Valid reports whether the summary has at least one observation.
func (s NumSummary) Valid() bool { return s.Count > 0 }

// OverviewRow is one line of the experiment-overview table.
type OverviewRow struct {
	Group     string
	TargetEC  float64
	HasTarget bool
	Specimens int
	Color     string
}

// EnvMeans holds per-group environmental averages next to the configured
// target EC for comparison.
type EnvMeans struct {
	Group       string
	TargetEC    float64
	HasTarget   bool
	Temperature NumSummary
	Humidity    NumSummary
	PH          NumSummary
	EC          NumSummary
}

// GrowthMeans holds per-group growth averages.
type GrowthMeans struct {
	Group     string
	TargetEC  float64
	HasTarget bool
	Specimens int
	Weight    NumSummary
	Leaves    NumSummary
	Shoot     NumSummary
}

// Specimen is one plant record tagged with its group, for distribution and
// correlation plots. Missing or unparseable cells are NaN.
type Specimen struct {
	Group  string
	Weight float64
	Leaves float64
	Shoot  float64
}

// Quartiles summarizes the fresh-weight distribution of one group.
type Quartiles struct {
	Group                   string
	Count                   int
	Min, Q1, Median, Q3, Max float64
}

// Best identifies the group with the highest mean fresh weight.
type Best struct {
	Group      string
	TargetEC   float64
	MeanWeight float64
}

// Corr is a Pearson correlation over the long-form specimen table.
type Corr struct {
	R     float64
	Pairs int
}

// Summary is everything one render pass needs. It is recomputed from the
// snapshot on every invocation and never persisted.
type Summary struct {
	Overview []OverviewRow
	Env      []EnvMeans
	Growth   []GrowthMeans
	Best     *Best
	LongForm []Specimen
	Weights  []Quartiles

	TotalSpecimens int
	// Grand means are means of per-group means, matching the overview
	// metrics of the report.
	GrandMeanTemperature NumSummary
	GrandMeanHumidity    NumSummary

	// Correlations of leaf count and shoot length against fresh weight.
	LeafCorr  Corr
	ShootCorr Corr
}

// GroupsWithEnv returns the summary's group order restricted to groups that
// have an environment table in the snapshot. Display layers use it for group
// selectors and per-group time series so they list groups in the same order
// as every table.
func (s *Summary) GroupsWithEnv(snap *dataset.Snapshot) []string {
	var out []string
	for _, e := range s.Env {
		if _, ok := snap.Env[e.Group]; ok {
			out = append(out, e.Group)
		}
	}
	return out
}

// groupOrder returns configured groups first, in configuration order, then
// any groups present in the data but absent from configuration, sorted. The
// order is the tie-break for best-group selection, so it must be stable.
func groupOrder(snap *dataset.Snapshot, cfg *config.Global) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range cfg.GroupNames() {
		seen[name] = true
		out = append(out, name)
	}
	var extra []string
	for g := range snap.Env {
		if !seen[g] {
			seen[g] = true
			extra = append(extra, g)
		}
	}
	for g := range snap.Growth {
		if !seen[g] {
			seen[g] = true
			extra = append(extra, g)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Summarize aggregates one snapshot into per-group means, the best-group
// selection, and the long-form specimen table. Groups missing from either
// source contribute empty summaries rather than failing the pass.
func Summarize(snap *dataset.Snapshot, cfg *config.Global) *Summary {
	sum := &Summary{}
	var tempMeans, humMeans []float64

	for _, group := range groupOrder(snap, cfg) {
		gc, hasTarget := cfg.Group(group)
		env := snap.Env[group]
		growth := snap.Growth[group]

		specimens := growth.Len()
		sum.TotalSpecimens += specimens
		sum.Overview = append(sum.Overview, OverviewRow{
			Group:     group,
			TargetEC:  gc.TargetEC,
			HasTarget: hasTarget,
			Specimens: specimens,
			Color:     gc.Color,
		})

		em := EnvMeans{Group: group, TargetEC: gc.TargetEC, HasTarget: hasTarget}
		if env != nil {
			em.Temperature = columnSummary(env, "temperature")
			em.Humidity = columnSummary(env, "humidity")
			em.PH = columnSummary(env, "ph")
			em.EC = columnSummary(env, "ec")
		}
		sum.Env = append(sum.Env, em)
		if em.Temperature.Valid() {
			tempMeans = append(tempMeans, em.Temperature.Mean)
		}
		if em.Humidity.Valid() {
			humMeans = append(humMeans, em.Humidity.Mean)
		}

		gm := GrowthMeans{Group: group, TargetEC: gc.TargetEC, HasTarget: hasTarget, Specimens: specimens}
		var weights []float64
		if growth != nil {
			gm.Weight = columnSummary(growth, cfg.WeightColumn)
			gm.Leaves = columnSummary(growth, cfg.LeafColumn)
			gm.Shoot = columnSummary(growth, cfg.ShootColumn)
			weights, _ = growth.Floats(cfg.WeightColumn)
			sum.LongForm = append(sum.LongForm, specimenRows(growth, cfg, group)...)
		}
		sum.Growth = append(sum.Growth, gm)

		if len(weights) > 0 {
			sum.Weights = append(sum.Weights, weightQuartiles(group, weights))
		}

		// First maximum in group order wins.
		if gm.Weight.Valid() && (sum.Best == nil || gm.Weight.Mean > sum.Best.MeanWeight) {
			sum.Best = &Best{Group: group, TargetEC: gc.TargetEC, MeanWeight: gm.Weight.Mean}
		}
	}

	sum.GrandMeanTemperature = summarize(tempMeans)
	sum.GrandMeanHumidity = summarize(humMeans)
	sum.LeafCorr = pearson(sum.LongForm, func(s Specimen) float64 { return s.Leaves })
	sum.ShootCorr = pearson(sum.LongForm, func(s Specimen) float64 { return s.Shoot })
	return sum
}

func columnSummary(t *dataset.Table, column string) NumSummary {
	if t == nil || !t.HasColumn(column) {
		return NumSummary{}
	}
	vals, err := t.Floats(column)
	if err != nil {
		return NumSummary{}
	}
	return summarize(vals)
}

func summarize(vals []float64) NumSummary {
	if len(vals) == 0 {
		return NumSummary{}
	}
	s := NumSummary{Count: len(vals), Min: math.Inf(1), Max: math.Inf(-1)}
	var total float64
	for _, v := range vals {
		total += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean = total / float64(len(vals))
	return s
}

// specimenRows converts a growth table into tagged long-form rows, one per
// source row. Cells that are empty or non-numeric become NaN so the row
// count stays equal to the table's.
func specimenRows(t *dataset.Table, cfg *config.Global, group string) []Specimen {
	weight := t.FloatCells(cfg.WeightColumn)
	leaves := t.FloatCells(cfg.LeafColumn)
	shoot := t.FloatCells(cfg.ShootColumn)
	out := make([]Specimen, t.Len())
	for i := range out {
		out[i] = Specimen{Group: group, Weight: weight[i], Leaves: leaves[i], Shoot: shoot[i]}
	}
	return out
}

func weightQuartiles(group string, vals []float64) Quartiles {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return Quartiles{
		Group:  group,
		Count:  len(cp),
		Min:    cp[0],
		Q1:     quantile(cp, 0.25),
		Median: quantile(cp, 0.5),
		Q3:     quantile(cp, 0.75),
		Max:    cp[len(cp)-1],
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// pearson correlates the selected field against fresh weight across the
// long-form table, skipping rows where either value is missing.
func pearson(rows []Specimen, field func(Specimen) float64) Corr {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for _, r := range rows {
		x := field(r)
		y := r.Weight
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		n++
		sumX += x
		sumY += y
		sumXX += x * x
		sumYY += y * y
		sumXY += x * y
	}
	if n < 2 {
		return Corr{}
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 {
		return Corr{Pairs: int(n)}
	}
	r := (n*sumXY - sumX*sumY) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return Corr{R: r, Pairs: int(n)}
}
