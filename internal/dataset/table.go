package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Table is an immutable in-memory tabular dataset with a header row.
// Loaders build one per source; nothing mutates it afterwards.
type Table struct {
	Columns []string
	Rows    [][]string

	index map[string]int
}

// NewTable builds a table from a header and rows. Short rows are padded so
// every row has one cell per column.
func NewTable(columns []string, rows [][]string) *Table {
	idx := make(map[string]int, len(columns))
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = strings.TrimSpace(c)
		idx[strings.ToLower(cols[i])] = i
	}
	padded := make([][]string, len(rows))
	for i, r := range rows {
		if len(r) < len(cols) {
			tmp := make([]string, len(cols))
			copy(tmp, r)
			r = tmp
		}
		padded[i] = r
	}
	return &Table{Columns: cols, Rows: padded, index: idx}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether the table has the named column
// (case-insensitive).
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	_, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Column returns the raw string values of the named column.
func (t *Table) Column(name string) ([]string, error) {
	if t == nil {
		return nil, fmt.Errorf("column %q: nil table", name)
	}
	i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("column %q: not present (have %v)", name, t.Columns)
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// FloatCells returns one value per data row for the named column, keeping
// row positions: empty or unparseable cells become NaN instead of being
// dropped. A missing column yields all NaN. Use this wherever a value must
// stay paired with the other cells of its row.
func (t *Table) FloatCells(name string) []float64 {
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = math.NaN()
	}
	raw, err := t.Column(name)
	if err != nil {
		return out
	}
	for i, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			out[i] = f
		}
	}
	return out
}

// Floats returns the numeric values of the named column. Empty cells and
// cells that do not parse as numbers are skipped, so the result may be
// shorter than Len.
func (t *Table) Floats(name string) ([]float64, error) {
	raw, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
