package dataset

import (
	"fmt"
	"os"

	"golang.org/x/text/unicode/norm"
)

// Normalize returns the NFC composed form of a filesystem entry name.
// Hangul filenames written on macOS arrive decomposed (NFD), so names must be
// normalized before any comparison against configured group names.
func Normalize(name string) string {
	return norm.NFC.String(name)
}

// FindEntry scans dir for an entry whose normalized name equals target and
// returns its actual on-disk name. The second return is false when no entry
// matches.
func FindEntry(dir, target string) (string, bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, fmt.Errorf("read dir %s: %w", dir, err)
	}
	want := Normalize(target)
	for _, e := range entries {
		if Normalize(e.Name()) == want {
			return e.Name(), true, nil
		}
	}
	return "", false, nil
}
