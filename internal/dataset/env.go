package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Columns every environment CSV must carry. Files are produced by the
// schools' sensor loggers with this fixed header.
var envColumns = []string{"time", "temperature", "humidity", "ph", "ec"}

// LoadEnvironment parses every located environment CSV into a table keyed by
// group identity. A malformed file or a missing required column aborts the
// load: the dashboard cannot render meaningfully from partial sensor data.
func LoadEnvironment(layout *Layout) (map[string]*Table, error) {
	out := make(map[string]*Table, len(layout.EnvFiles))
	for group, fi := range layout.EnvFiles {
		t, err := readCSV(fi.Path)
		if err != nil {
			return nil, fmt.Errorf("environment data for %q: %w", group, err)
		}
		for _, col := range envColumns {
			if !t.HasColumn(col) {
				return nil, fmt.Errorf("environment data for %q: %s: missing column %q", group, fi.Path, col)
			}
		}
		out[group] = t
	}
	return out, nil
}

func readCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var rows [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make([]string, len(rec))
		copy(row, rec)
		rows = append(rows, row)
	}
	return NewTable(header, rows), nil
}
