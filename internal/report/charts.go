package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/greenplot/ecdash/internal/analysis"
	"github.com/greenplot/ecdash/internal/config"
)

// ErrNoSeries is returned when a chart has nothing to draw. Callers render a
// "no data" placeholder instead of an image.
var ErrNoSeries = errors.New("no series to draw")

var timeLayouts = []string{
	time.RFC3339, "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02",
	"2006/01/02 15:04", "2006/01/02",
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func groupColor(cfg *config.Global, group string) drawing.Color {
	if gc, ok := cfg.Group(group); ok && gc.Color != "" {
		return drawing.ColorFromHex(strings.TrimPrefix(gc.Color, "#"))
	}
	return chart.ColorAlternateGray
}

// NamedChart pairs a chart's file stem with its builder.
type NamedChart struct {
	Name  string
	Build func() ([]byte, error)
}

// Charts returns the summary-level dashboard charts in display order. The
// per-group time series is not included; it needs the raw environment tables
// rather than the summary.
func Charts(cfg *config.Global, sum *analysis.Summary) []NamedChart {
	return []NamedChart{
		{"env_temperature", func() ([]byte, error) {
			return EnvBar("평균 온도", sum.Env, func(e analysis.EnvMeans) analysis.NumSummary { return e.Temperature })
		}},
		{"env_humidity", func() ([]byte, error) {
			return EnvBar("평균 습도", sum.Env, func(e analysis.EnvMeans) analysis.NumSummary { return e.Humidity })
		}},
		{"env_ph", func() ([]byte, error) {
			return EnvBar("평균 pH", sum.Env, func(e analysis.EnvMeans) analysis.NumSummary { return e.PH })
		}},
		{"env_ec", func() ([]byte, error) {
			return ECComparisonBar("목표 EC vs 실측 EC", sum.Env)
		}},
		{"growth_weight", func() ([]byte, error) {
			return MeanBar("평균 생중량", sum.Growth, func(g analysis.GrowthMeans) analysis.NumSummary { return g.Weight })
		}},
		{"growth_leaves", func() ([]byte, error) {
			return MeanBar("평균 잎 수", sum.Growth, func(g analysis.GrowthMeans) analysis.NumSummary { return g.Leaves })
		}},
		{"growth_shoot", func() ([]byte, error) {
			return MeanBar("평균 지상부 길이", sum.Growth, func(g analysis.GrowthMeans) analysis.NumSummary { return g.Shoot })
		}},
		{"growth_count", func() ([]byte, error) {
			return SpecimenCountBar("개체수", sum.Growth)
		}},
		{"weight_box", func() ([]byte, error) {
			return WeightBox("생중량 분포", sum.LongForm)
		}},
		{"corr_leaves", func() ([]byte, error) {
			return Scatter(cfg, "잎 수 vs 생중량", sum.LongForm, sum.LeafCorr,
				func(s analysis.Specimen) float64 { return s.Leaves })
		}},
		{"corr_shoot", func() ([]byte, error) {
			return Scatter(cfg, "지상부 길이 vs 생중량", sum.LongForm, sum.ShootCorr,
				func(s analysis.Specimen) float64 { return s.Shoot })
		}},
	}
}

// MeanBar renders one bar per group for a single metric. Groups without a
// value for the metric are skipped.
func MeanBar(title string, rows []analysis.GrowthMeans, pick func(analysis.GrowthMeans) analysis.NumSummary) ([]byte, error) {
	var bars []chart.Value
	for _, r := range rows {
		s := pick(r)
		if !s.Valid() {
			continue
		}
		bars = append(bars, chart.Value{Label: r.Group, Value: s.Mean})
	}
	return renderBars(title, bars)
}

// EnvBar renders one bar per group for a single environment metric.
func EnvBar(title string, rows []analysis.EnvMeans, pick func(analysis.EnvMeans) analysis.NumSummary) ([]byte, error) {
	var bars []chart.Value
	for _, r := range rows {
		s := pick(r)
		if !s.Valid() {
			continue
		}
		bars = append(bars, chart.Value{Label: r.Group, Value: s.Mean})
	}
	return renderBars(title, bars)
}

// SpecimenCountBar renders specimen counts per group.
func SpecimenCountBar(title string, rows []analysis.GrowthMeans) ([]byte, error) {
	var bars []chart.Value
	for _, r := range rows {
		bars = append(bars, chart.Value{Label: r.Group, Value: float64(r.Specimens)})
	}
	return renderBars(title, bars)
}

// ECComparisonBar renders measured mean EC next to the configured target EC,
// two bars per group.
func ECComparisonBar(title string, rows []analysis.EnvMeans) ([]byte, error) {
	var bars []chart.Value
	for _, r := range rows {
		if r.EC.Valid() {
			bars = append(bars, chart.Value{Label: r.Group, Value: r.EC.Mean})
		}
		if r.HasTarget {
			bars = append(bars, chart.Value{Label: r.Group + " 목표", Value: r.TargetEC})
		}
	}
	return renderBars(title, bars)
}

func renderBars(title string, bars []chart.Value) ([]byte, error) {
	if len(bars) == 0 {
		return nil, ErrNoSeries
	}
	bc := chart.BarChart{
		Title:    title,
		Width:    640,
		Height:   400,
		BarWidth: 48,
		Bars:     bars,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
	}
	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

// TimeSeries renders the temperature, humidity, and EC series of one group's
// environment table over its time column, with a dashed line at the group's
// target EC. The value slices must be row-aligned with times (NaN for a
// missing reading, as Table.FloatCells produces); a NaN becomes a skipped
// point, never a shift of later readings onto earlier timestamps.
func TimeSeries(cfg *config.Global, group string, em analysis.EnvMeans, times []string, temperature, humidity, ec []float64) ([]byte, error) {
	if len(times) == 0 {
		return nil, ErrNoSeries
	}
	if len(temperature) != len(times) || len(humidity) != len(times) || len(ec) != len(times) {
		return nil, fmt.Errorf("time series for %q: value columns not row-aligned with time column", group)
	}
	xs := make([]time.Time, 0, len(times))
	for _, raw := range times {
		t, ok := parseTime(raw)
		if !ok {
			return nil, fmt.Errorf("time series for %q: unparseable time %q", group, raw)
		}
		xs = append(xs, t)
	}

	var series []chart.Series
	for _, m := range []struct {
		name string
		vals []float64
	}{
		{"온도", temperature},
		{"습도", humidity},
		{"EC", ec},
	} {
		mx, my := presentPoints(xs, m.vals)
		if len(mx) < 2 {
			continue
		}
		series = append(series, chart.TimeSeries{Name: m.name, XValues: mx, YValues: my})
	}
	if len(series) == 0 {
		return nil, ErrNoSeries
	}
	if em.HasTarget {
		target := make([]float64, len(xs))
		for i := range target {
			target[i] = em.TargetEC
		}
		series = append(series, chart.TimeSeries{
			Name:    "목표 EC",
			XValues: xs,
			YValues: target,
			Style: chart.Style{
				StrokeColor:     groupColor(cfg, group),
				StrokeDashArray: []float64{5.0, 5.0},
			},
		})
	}

	c := chart.Chart{
		Title:  fmt.Sprintf("%s 환경 시계열", group),
		Width:  800,
		Height: 420,
		XAxis:  chart.XAxis{ValueFormatter: chart.TimeHourValueFormatter},
		Series: series,
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render time series for %q: %w", group, err)
	}
	return buf.Bytes(), nil
}

// presentPoints keeps each reading paired with the timestamp of its own row
// and drops the rows where the reading is NaN.
func presentPoints(xs []time.Time, vals []float64) ([]time.Time, []float64) {
	px := make([]time.Time, 0, len(xs))
	py := make([]float64, 0, len(vals))
	for i, v := range vals {
		if isNaN(v) {
			continue
		}
		px = append(px, xs[i])
		py = append(py, v)
	}
	return px, py
}

// Scatter plots one specimen measurement against fresh weight, one dot
// series per group in the group's configured color, annotated with the
// Pearson r of the pooled data.
func Scatter(cfg *config.Global, title string, rows []analysis.Specimen, corr analysis.Corr, pick func(analysis.Specimen) float64) ([]byte, error) {
	byGroup := map[string][]analysis.Specimen{}
	var order []string
	for _, r := range rows {
		if _, ok := byGroup[r.Group]; !ok {
			order = append(order, r.Group)
		}
		byGroup[r.Group] = append(byGroup[r.Group], r)
	}

	var series []chart.Series
	for _, g := range order {
		var xv, yv []float64
		for _, s := range byGroup[g] {
			x, y := pick(s), s.Weight
			if isNaN(x) || isNaN(y) {
				continue
			}
			xv = append(xv, x)
			yv = append(yv, y)
		}
		if len(xv) == 0 {
			continue
		}
		series = append(series, chart.ContinuousSeries{
			Name:    g,
			XValues: xv,
			YValues: yv,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    5,
				DotColor:    groupColor(cfg, g),
			},
		})
	}
	if len(series) == 0 {
		return nil, ErrNoSeries
	}
	if corr.Pairs >= 2 {
		title = fmt.Sprintf("%s (r=%.2f)", title, corr.R)
	}
	c := chart.Chart{
		Title:  title,
		Width:  640,
		Height: 420,
		Series: series,
	}
	c.Elements = []chart.Renderable{chart.Legend(&c)}

	var buf bytes.Buffer
	if err := c.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render scatter %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

// WeightBox renders a box plot of fresh weight per group from the long-form
// specimen table.
func WeightBox(title string, rows []analysis.Specimen) ([]byte, error) {
	byGroup := map[string]plotter.Values{}
	var order []string
	for _, r := range rows {
		if isNaN(r.Weight) {
			continue
		}
		if _, ok := byGroup[r.Group]; !ok {
			order = append(order, r.Group)
		}
		byGroup[r.Group] = append(byGroup[r.Group], r.Weight)
	}
	if len(order) == 0 {
		return nil, ErrNoSeries
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "생중량(g)"
	w := vg.Points(36)
	for i, g := range order {
		box, err := plotter.NewBoxPlot(w, float64(i), byGroup[g])
		if err != nil {
			return nil, fmt.Errorf("box plot for %q: %w", g, err)
		}
		p.Add(box)
	}
	p.NominalX(order...)

	wt, err := p.WriterTo(6*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render box plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write box plot: %w", err)
	}
	return buf.Bytes(), nil
}

func isNaN(f float64) bool { return f != f }
