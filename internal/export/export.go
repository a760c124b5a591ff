package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/greenplot/ecdash/internal/analysis"
	"github.com/greenplot/ecdash/internal/config"
	"github.com/greenplot/ecdash/internal/dataset"
)

// EnvironmentCSV encodes one group's environment table back to CSV bytes,
// header first, for download.
func EnvironmentCSV(t *dataset.Table) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("encode environment csv: nil table")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// GrowthWorkbook builds the combined growth workbook: one sheet per group in
// the given order, plus a long-form sheet with every specimen tagged by
// group.
func GrowthWorkbook(cfg *config.Global, groups []string, growth map[string]*dataset.Table, longForm []analysis.Specimen) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for _, g := range groups {
		t, ok := growth[g]
		if !ok || t == nil {
			continue
		}
		if first {
			f.SetSheetName("Sheet1", g)
			first = false
		} else {
			if _, err := f.NewSheet(g); err != nil {
				return nil, fmt.Errorf("new sheet %q: %w", g, err)
			}
		}
		if err := writeGrid(f, g, t); err != nil {
			return nil, err
		}
	}

	combined := "전체"
	if first {
		f.SetSheetName("Sheet1", combined)
	} else if _, err := f.NewSheet(combined); err != nil {
		return nil, fmt.Errorf("new sheet %q: %w", combined, err)
	}
	header := []interface{}{"학교", cfg.WeightColumn, cfg.LeafColumn, cfg.ShootColumn}
	if err := f.SetSheetRow(combined, "A1", &header); err != nil {
		return nil, fmt.Errorf("write combined header: %w", err)
	}
	for i, s := range longForm {
		row := []interface{}{s.Group, cell(s.Weight), cell(s.Leaves), cell(s.Shoot)}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(combined, addr, &row); err != nil {
			return nil, fmt.Errorf("write combined row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeGrid(f *excelize.File, sheet string, t *dataset.Table) error {
	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header of %q: %w", sheet, err)
	}
	for r, row := range t.Rows {
		vals := make([]interface{}, len(row))
		for i, v := range row {
			vals[i] = v
		}
		addr, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, addr, &vals); err != nil {
			return fmt.Errorf("write row %d of %q: %w", r+1, sheet, err)
		}
	}
	return nil
}

// cell maps NaN (missing measurement) to an empty cell.
func cell(v float64) interface{} {
	if v != v {
		return ""
	}
	return v
}

// WriteFile writes data to a temp file and atomically renames it into place.
func WriteFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
