package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrNoData signals that the data directory holds no usable datasets: either
// no per-group environment CSV was found, or no growth workbook. The
// dashboard cannot render anything without both, so callers treat this as
// fatal.
var ErrNoData = errors.New("no data found in data directory")

// FileInfo records identity of a located file for cache signatures.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Layout is the result of one directory scan: which file feeds which group,
// and which workbook holds the growth measurements.
type Layout struct {
	// EnvFiles maps group identity to its environment CSV.
	EnvFiles map[string]FileInfo
	// Workbook is the single growth workbook, zero-valued when none was found.
	Workbook FileInfo
	// Warnings notes overwrites and ignored files from the scan.
	Warnings []string
}

// HasWorkbook reports whether the scan found a growth workbook.
func (l *Layout) HasWorkbook() bool { return l.Workbook.Path != "" }

// Groups returns the located environment group identities, sorted.
func (l *Layout) Groups() []string {
	out := make([]string, 0, len(l.EnvFiles))
	for g := range l.EnvFiles {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Scan enumerates dir once and classifies entries by suffix. CSV entries are
// registered as environment sources keyed by the normalized filename stem up
// to the first underscore; if two files map to the same group the later one
// in directory order replaces the earlier (recorded as a warning). The first
// .xlsx entry becomes the growth workbook; later ones are ignored.
func Scan(dir string) (*Layout, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}
	layout := &Layout{EnvFiles: map[string]FileInfo{}}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := Normalize(e.Name())
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		fi := FileInfo{
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			group, _, _ := strings.Cut(stem, "_")
			if prev, ok := layout.EnvFiles[group]; ok {
				layout.Warnings = append(layout.Warnings,
					fmt.Sprintf("group %q: %s replaces %s", group, fi.Path, prev.Path))
			}
			layout.EnvFiles[group] = fi
		case ".xlsx":
			if layout.HasWorkbook() {
				layout.Warnings = append(layout.Warnings,
					fmt.Sprintf("ignoring extra workbook %s (using %s)", fi.Path, layout.Workbook.Path))
				continue
			}
			layout.Workbook = fi
		}
	}
	if len(layout.EnvFiles) == 0 || !layout.HasWorkbook() {
		return nil, fmt.Errorf("scan %s: %w", dir, ErrNoData)
	}
	return layout, nil
}
