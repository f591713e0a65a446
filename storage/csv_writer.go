package storage

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/renbrahe/parsing-ski/models"
)

// UnifiedHeader is the fixed column order of a snapshot export.
var UnifiedHeader = []string{
	"shop", "brand", "model", "condition", "orig_price", "price", "length_cm", "url",
}

// DiffHeader is the column order of a diff report export.
var DiffHeader = []string{
	"status", "shop", "brand", "model", "length_cm", "condition", "old_price", "new_price", "url",
}

// Export serializes records to a CSV snapshot at path and returns the
// number of bytes written. The file is written to a temp path in the
// destination directory and renamed into place, so a failed export never
// leaves a partial snapshot behind.
func Export(records []*models.UnifiedRecord, path string) (int64, error) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			string(r.Shop),
			r.Brand,
			r.Model,
			r.Condition,
			formatOptPrice(r.OrigPrice),
			FormatPrice(r.Price),
			strconv.Itoa(r.LengthCM),
			r.URL,
		})
	}
	return writeCSV(path, UnifiedHeader, rows)
}

// ExportDiff serializes a change report to a CSV file at path and returns
// the number of bytes written.
func ExportDiff(entries []*models.ChangeEntry, path string) (int64, error) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		oldPrice, newPrice := "", ""
		switch e.Kind {
		case models.ChangeSold:
			oldPrice = FormatPrice(e.OldPrice)
		case models.ChangeNew:
			newPrice = FormatPrice(e.NewPrice)
		case models.ChangePriceChanged:
			oldPrice = FormatPrice(e.OldPrice)
			newPrice = FormatPrice(e.NewPrice)
		}

		rows = append(rows, []string{
			string(e.Kind),
			string(e.Key.Shop),
			e.Key.Brand,
			e.Key.Model,
			strconv.Itoa(e.Key.LengthCM),
			e.Key.Condition,
			oldPrice,
			newPrice,
			e.Record.URL,
		})
	}
	return writeCSV(path, DiffHeader, rows)
}

func writeCSV(path string, header []string, rows [][]string) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("csv: create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.csv")
	if err != nil {
		return 0, fmt.Errorf("csv: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	// the temp file only survives on the happy path
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return 0, fmt.Errorf("csv: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("csv: flush: %w", err)
	}

	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("csv: stat temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("csv: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return 0, fmt.Errorf("csv: finalize %q: %w", path, err)
	}
	return info.Size(), nil
}

// FormatPrice renders a price with 2 decimals when it has a fractional
// part and as a bare integer otherwise.
func FormatPrice(p float64) string {
	if p == math.Trunc(p) {
		return strconv.FormatFloat(p, 'f', 0, 64)
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}

func formatOptPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return FormatPrice(*p)
}
