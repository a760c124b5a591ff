package export_test

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/greenplot/ecdash/internal/analysis"
	"github.com/greenplot/ecdash/internal/config"
	"github.com/greenplot/ecdash/internal/dataset"
	"github.com/greenplot/ecdash/internal/export"
)

func testConfig() *config.Global {
	return &config.Global{
		WeightColumn: "생중량(g)",
		LeafColumn:   "잎 수(장)",
		ShootColumn:  "지상부 길이(mm)",
	}
}

func TestEnvironmentCSVRoundtrip(t *testing.T) {
	tbl := dataset.NewTable(
		[]string{"time", "temperature", "humidity", "ph", "ec"},
		[][]string{
			{"2025-03-01 09:00", "18.2", "65.1", "6.1", "1.1"},
			{"2025-03-01 10:00", "19.0", "63.8", "6.0", "1.0"},
		},
	)
	b, err := export.EnvironmentCSV(tbl)
	if err != nil {
		t.Fatalf("EnvironmentCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header + 2 rows", len(lines))
	}
	if lines[0] != "time,temperature,humidity,ph,ec" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2025-03-01 09:00,18.2") {
		t.Errorf("row 1 = %q", lines[1])
	}
}

func TestGrowthWorkbook(t *testing.T) {
	growth := map[string]*dataset.Table{
		"송도고": dataset.NewTable(
			[]string{"생중량(g)", "잎 수(장)", "지상부 길이(mm)"},
			[][]string{{"1.2", "8", "95"}, {"1.4", "9", "102"}},
		),
		"하늘고": dataset.NewTable(
			[]string{"생중량(g)", "잎 수(장)", "지상부 길이(mm)"},
			[][]string{{"1.8", "10", "110"}},
		),
	}
	longForm := []analysis.Specimen{
		{Group: "송도고", Weight: 1.2, Leaves: 8, Shoot: 95},
		{Group: "송도고", Weight: 1.4, Leaves: 9, Shoot: 102},
		{Group: "하늘고", Weight: 1.8, Leaves: 10, Shoot: 110},
	}

	b, err := export.GrowthWorkbook(testConfig(), []string{"송도고", "하늘고"}, growth, longForm)
	if err != nil {
		t.Fatalf("GrowthWorkbook: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := map[string]bool{"송도고": true, "하늘고": true, "전체": true}
	for _, s := range sheets {
		delete(want, s)
	}
	if len(want) != 0 {
		t.Fatalf("missing sheets %v in %v", want, sheets)
	}

	rows, err := f.GetRows("전체")
	if err != nil {
		t.Fatalf("GetRows(전체): %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("combined rows = %d, want header + 3", len(rows))
	}
	if rows[0][0] != "학교" || rows[0][1] != "생중량(g)" {
		t.Errorf("combined header = %v", rows[0])
	}
	if rows[3][0] != "하늘고" {
		t.Errorf("combined row 3 = %v", rows[3])
	}

	perGroup, err := f.GetRows("송도고")
	if err != nil {
		t.Fatalf("GetRows(송도고): %v", err)
	}
	if len(perGroup) != 3 {
		t.Errorf("송도고 rows = %d, want header + 2", len(perGroup))
	}
}

func TestGrowthWorkbookBlanksMissingCells(t *testing.T) {
	longForm := []analysis.Specimen{
		{Group: "A", Weight: math.NaN(), Leaves: 7, Shoot: 90},
	}
	b, err := export.GrowthWorkbook(testConfig(), nil, nil, longForm)
	if err != nil {
		t.Fatalf("GrowthWorkbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()
	got, err := f.GetCellValue("전체", "B2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if got != "" {
		t.Errorf("missing weight cell = %q, want empty", got)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	if err := export.WriteFile(path, []byte("a,b\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "a,b\n" {
		t.Errorf("content = %q", b)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should not remain")
	}
}
