package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	exportPrefix = "skis_unified_"
	exportSuffix = ".csv"
	timeLayout   = "20060102_1504"
)

// ExportFileName encodes the capture time into the snapshot filename:
// skis_unified_YYYYMMDD_HHMM.csv.
func ExportFileName(t time.Time) string {
	return exportPrefix + t.Format(timeLayout) + exportSuffix
}

// DefaultExportPath builds the snapshot path for a capture time inside
// the export directory.
func DefaultExportPath(dir string, t time.Time) string {
	return filepath.Join(dir, ExportFileName(t))
}

// FindLatestExports returns the two most recent snapshot files in dir,
// previous first. Recency is decided by the timestamp encoded in the
// filename, never by filesystem modification time.
func FindLatestExports(dir string) (previous, current string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("exports: read dir %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, exportPrefix) || !strings.HasSuffix(name, exportSuffix) {
			continue
		}
		if _, err := time.Parse(timeLayout, exportLabel(name)); err != nil {
			continue
		}
		names = append(names, name)
	}

	if len(names) < 2 {
		return "", "", fmt.Errorf("exports: need at least two %s*%s files in %q, found %d",
			exportPrefix, exportSuffix, dir, len(names))
	}

	// the timestamp format sorts lexicographically
	sort.Strings(names)
	previous = filepath.Join(dir, names[len(names)-2])
	current = filepath.Join(dir, names[len(names)-1])
	return previous, current, nil
}

// DiffFileName derives the diff report filename from the two snapshot
// paths being compared: skis_diff_<old>_vs_<new>.csv.
func DiffFileName(previousPath, currentPath string) string {
	return fmt.Sprintf("skis_diff_%s_vs_%s.csv",
		exportLabel(filepath.Base(previousPath)),
		exportLabel(filepath.Base(currentPath)))
}

// exportLabel strips the snapshot prefix and suffix, leaving the encoded
// timestamp.
func exportLabel(name string) string {
	name = strings.TrimPrefix(name, exportPrefix)
	return strings.TrimSuffix(name, exportSuffix)
}
