package dataset_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/greenplot/ecdash/internal/dataset"
)

const envCSV = "time,temperature,humidity,ph,ec\n" +
	"2025-03-01 09:00,18.2,65.1,6.1,1.1\n" +
	"2025-03-01 10:00,19.0,63.8,6.0,1.0\n" +
	"2025-03-01 11:00,19.5,62.2,6.2,0.9\n"

// writeWorkbook builds a growth workbook with the given sheet names, three
// specimen rows each.
func writeWorkbook(t *testing.T, path string, sheets ...string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, sheet := range sheets {
		if i == 0 {
			f.SetSheetName("Sheet1", sheet)
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				t.Fatalf("NewSheet(%q): %v", sheet, err)
			}
		}
		rows := [][]interface{}{
			{"생중량(g)", "잎 수(장)", "지상부 길이(mm)"},
			{1.2, 8, 95.0},
			{1.4, 9, 102.0},
			{1.0, 7, 88.0},
		}
		for r, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("CoordinatesToCellName: %v", err)
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				t.Fatalf("SetSheetRow: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs(%q): %v", path, err)
	}
}

func writeDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"송도고_환경.csv", "하늘고_환경.csv"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(envCSV), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	writeWorkbook(t, filepath.Join(dir, "생육결과.xlsx"), "송도고", "하늘고")
	return dir
}

func TestNormalizeComposesHangul(t *testing.T) {
	composed := "송도고"
	decomposed := norm.NFD.String(composed)
	if decomposed == composed {
		t.Fatal("fixture not decomposed")
	}
	if got := dataset.Normalize(decomposed); got != composed {
		t.Errorf("Normalize(%q) = %q, want %q", decomposed, got, composed)
	}
}

func TestFindEntryMatchesAcrossForms(t *testing.T) {
	dir := t.TempDir()
	// Write the file under its decomposed name, look it up composed.
	name := norm.NFD.String("아라고_환경.csv")
	if err := os.WriteFile(filepath.Join(dir, name), []byte(envCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	got, ok, err := dataset.FindEntry(dir, "아라고_환경.csv")
	if err != nil {
		t.Fatalf("FindEntry: %v", err)
	}
	if !ok || got != name {
		t.Errorf("FindEntry = %q, %v; want %q, true", got, ok, name)
	}
}

func TestScanClassifiesFiles(t *testing.T) {
	dir := writeDataDir(t)
	layout, err := dataset.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	groups := layout.Groups()
	if len(groups) != 2 || groups[0] != "송도고" || groups[1] != "하늘고" {
		t.Errorf("groups = %v", groups)
	}
	if !layout.HasWorkbook() {
		t.Error("workbook not located")
	}
}

func TestScanLastCSVWinsPerGroup(t *testing.T) {
	dir := writeDataDir(t)
	// Second file computing the same group identity.
	dup := filepath.Join(dir, "송도고_환경_v2.csv")
	if err := os.WriteFile(dup, []byte(envCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	layout, err := dataset.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if got := layout.EnvFiles["송도고"].Path; got != dup {
		t.Errorf("registered path = %q, want the later file %q", got, dup)
	}
	if len(layout.Warnings) == 0 {
		t.Error("overwrite should be recorded as a warning")
	}
}

func TestScanFirstWorkbookWins(t *testing.T) {
	dir := writeDataDir(t)
	writeWorkbook(t, filepath.Join(dir, "추가.xlsx"), "송도고")
	layout, err := dataset.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	// ReadDir yields lexical order; 생육결과.xlsx sorts before 추가.xlsx.
	if filepath.Base(layout.Workbook.Path) != "생육결과.xlsx" {
		t.Errorf("workbook = %q", layout.Workbook.Path)
	}
}

func TestScanEmptyDirIsNoData(t *testing.T) {
	_, err := dataset.Scan(t.TempDir())
	if !errors.Is(err, dataset.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestScanMissingWorkbookIsNoData(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "송도고_환경.csv"), []byte(envCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := dataset.Scan(dir)
	if !errors.Is(err, dataset.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestLoadEnvironment(t *testing.T) {
	dir := writeDataDir(t)
	layout, err := dataset.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	env, err := dataset.LoadEnvironment(layout)
	if err != nil {
		t.Fatalf("LoadEnvironment: %v", err)
	}
	tbl := env["송도고"]
	if tbl.Len() != 3 {
		t.Fatalf("rows = %d, want 3", tbl.Len())
	}
	temps, err := tbl.Floats("temperature")
	if err != nil {
		t.Fatalf("Floats: %v", err)
	}
	if len(temps) != 3 || temps[0] != 18.2 {
		t.Errorf("temperature = %v", temps)
	}
}

func TestFloatCellsKeepsRowAlignment(t *testing.T) {
	tbl := dataset.NewTable(
		[]string{"time", "temperature"},
		[][]string{
			{"2025-03-01 08:00", "18.5"},
			{"2025-03-01 09:00", ""},
			{"2025-03-01 10:00", "19.0"},
		},
	)
	vals := tbl.FloatCells("temperature")
	if len(vals) != tbl.Len() {
		t.Fatalf("len = %d, want %d", len(vals), tbl.Len())
	}
	if !math.IsNaN(vals[1]) {
		t.Errorf("vals[1] = %v, want NaN for the dropped 09:00 reading", vals[1])
	}
	// The 10:00 reading must stay on the 10:00 row, not shift to 09:00.
	if vals[0] != 18.5 || vals[2] != 19.0 {
		t.Errorf("vals = %v, want readings at their own row positions", vals)
	}

	for i, v := range tbl.FloatCells("no_such_column") {
		if !math.IsNaN(v) {
			t.Errorf("missing column row %d = %v, want NaN", i, v)
		}
	}
}

func TestLoadEnvironmentMissingColumnFails(t *testing.T) {
	dir := t.TempDir()
	bad := "time,temperature,humidity\n2025-03-01,18.0,60\n"
	if err := os.WriteFile(filepath.Join(dir, "송도고_환경.csv"), []byte(bad), 0o644); err != nil {
		t.Fatal(err)
	}
	writeWorkbook(t, filepath.Join(dir, "생육결과.xlsx"), "송도고")
	layout, err := dataset.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if _, err := dataset.LoadEnvironment(layout); err == nil {
		t.Fatal("want error for missing ph/ec columns")
	}
}

func TestLoadGrowthKeysBySheet(t *testing.T) {
	dir := writeDataDir(t)
	layout, err := dataset.Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	growth, err := dataset.LoadGrowth(layout)
	if err != nil {
		t.Fatalf("LoadGrowth: %v", err)
	}
	for _, g := range []string{"송도고", "하늘고"} {
		tbl, ok := growth[g]
		if !ok {
			t.Fatalf("sheet %q not loaded; have %v", g, len(growth))
		}
		if tbl.Len() != 3 {
			t.Errorf("%s rows = %d, want 3", g, tbl.Len())
		}
		weights, err := tbl.Floats("생중량(g)")
		if err != nil {
			t.Fatalf("Floats: %v", err)
		}
		if len(weights) != 3 {
			t.Errorf("%s weights = %v", g, weights)
		}
	}
}

func TestStoreReturnsCachedSnapshot(t *testing.T) {
	dir := writeDataDir(t)
	store := dataset.NewStore(dir)
	ctx := context.Background()

	first, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Error("unchanged directory should return the same snapshot")
	}
}

func TestStoreReloadsOnChange(t *testing.T) {
	dir := writeDataDir(t)
	store := dataset.NewStore(dir)
	ctx := context.Background()

	first, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	path := filepath.Join(dir, "송도고_환경.csv")
	grown := envCSV + "2025-03-01 12:00,20.1,61.0,6.1,1.2\n"
	if err := os.WriteFile(path, []byte(grown), 0o644); err != nil {
		t.Fatal(err)
	}
	// Coarse mtime filesystems need the timestamp to move.
	bump := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, bump, bump); err != nil {
		t.Fatal(err)
	}

	second, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load after change: %v", err)
	}
	if first == second {
		t.Fatal("changed file should invalidate the snapshot")
	}
	if second.Env["송도고"].Len() != 4 {
		t.Errorf("reloaded rows = %d, want 4", second.Env["송도고"].Len())
	}
}

func TestStoreInvalidate(t *testing.T) {
	dir := writeDataDir(t)
	store := dataset.NewStore(dir)
	ctx := context.Background()
	first, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	store.Invalidate()
	second, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first == second {
		t.Error("Invalidate should force a fresh snapshot")
	}
}
