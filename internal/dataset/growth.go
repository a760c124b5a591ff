package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// LoadGrowth opens the growth workbook and parses every sheet into a table.
// Sheet names are the group identities by convention, normalized the same
// way as filenames. Sheets without a header row load as empty tables.
func LoadGrowth(layout *Layout) (map[string]*Table, error) {
	if !layout.HasWorkbook() {
		return nil, fmt.Errorf("growth data: %w", ErrNoData)
	}
	f, err := excelize.OpenFile(layout.Workbook.Path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", layout.Workbook.Path, err)
	}
	defer f.Close()

	out := map[string]*Table{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		group := Normalize(sheet)
		if len(rows) == 0 {
			out[group] = NewTable(nil, nil)
			continue
		}
		out[group] = NewTable(rows[0], rows[1:])
	}
	return out, nil
}
