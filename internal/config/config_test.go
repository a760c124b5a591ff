package config_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/greenplot/ecdash/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	// Point at a config file that does not exist; defaults must fill in.
	c, err := config.Load(filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", c.DataDir)
	}
	if c.WeightColumn != "생중량(g)" {
		t.Errorf("WeightColumn = %q", c.WeightColumn)
	}
	if len(c.Groups) != 4 {
		t.Fatalf("default groups = %d, want 4", len(c.Groups))
	}
	if c.Groups[1].Name != "하늘고" || c.Groups[1].TargetEC != 2.0 {
		t.Errorf("group[1] = %+v", c.Groups[1])
	}
}

func TestSaveThenLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	in := &config.Global{
		DataDir:     filepath.Join(dir, "readings"),
		ListenAddr:  ":9000",
		ReportTitle: "pilot run",
		Groups: []config.GroupConfig{
			{Name: "A", TargetEC: 1.5, Color: "#111111"},
			{Name: "B", TargetEC: 3.0, Color: "#222222"},
		},
		WeightColumn: "weight",
		LeafColumn:   "leaves",
		ShootColumn:  "shoot",
	}
	if err := config.Save(in, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.ListenAddr != ":9000" || out.ReportTitle != "pilot run" {
		t.Errorf("roundtrip mismatch: %+v", out)
	}
	if len(out.Groups) != 2 || out.Groups[0].Name != "A" || out.Groups[1].TargetEC != 3.0 {
		t.Errorf("groups roundtrip mismatch: %+v", out.Groups)
	}
}

func TestValidateRejectsDuplicates(t *testing.T) {
	c := &config.Global{Groups: []config.GroupConfig{
		{Name: "A", TargetEC: 1},
		{Name: "A", TargetEC: 2},
	}}
	err := config.Validate(c)
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("want duplicate error, got %v", err)
	}
}

func TestValidateRejectsBadTargetEC(t *testing.T) {
	c := &config.Global{Groups: []config.GroupConfig{{Name: "A", TargetEC: 0}}}
	if err := config.Validate(c); err == nil {
		t.Fatal("want error for target_ec 0")
	}
}

func TestGroupLookupAndOrder(t *testing.T) {
	c := &config.Global{Groups: config.DefaultGroups()}
	g, ok := c.Group("아라고")
	if !ok || g.TargetEC != 4.0 {
		t.Fatalf("Group(아라고) = %+v, %v", g, ok)
	}
	if _, ok := c.Group("없는학교"); ok {
		t.Fatal("unknown group should not resolve")
	}
	names := c.GroupNames()
	want := []string{"송도고", "하늘고", "아라고", "동산고"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("GroupNames = %v, want %v", names, want)
		}
	}
}
