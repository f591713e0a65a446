package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/utils"
)

// FormatError marks a snapshot file that cannot serve as diff input:
// missing, unreadable, or carrying an unexpected header. A diff run
// failing with FormatError emits no partial report.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("snapshot %q: %s", e.Path, e.Reason)
}

// ReadSnapshot loads a CSV snapshot export. Rows with unparseable numeric
// fields are dropped and logged; a bad header fails the whole read.
func ReadSnapshot(path string, logger *utils.Logger) ([]*models.UnifiedRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FormatError{Path: path, Reason: err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = len(UnifiedHeader)

	header, err := reader.Read()
	if err != nil {
		return nil, &FormatError{Path: path, Reason: "missing header row"}
	}
	if !headerMatches(header) {
		return nil, &FormatError{
			Path:   path,
			Reason: fmt.Sprintf("unexpected header %v", header),
		}
	}

	var records []*models.UnifiedRecord
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &FormatError{Path: path, Reason: fmt.Sprintf("line %d: %v", line, err)}
		}

		rec, err := parseRow(row)
		if err != nil {
			logger.Warn("[reader] %s line %d dropped: %v (model=%q)", path, line, err, row[2])
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func headerMatches(header []string) bool {
	if len(header) != len(UnifiedHeader) {
		return false
	}
	for i, h := range header {
		// tolerate a UTF-8 BOM glued onto the first column
		if strings.TrimPrefix(strings.TrimSpace(h), "\uFEFF") != UnifiedHeader[i] {
			return false
		}
	}
	return true
}

func parseRow(row []string) (*models.UnifiedRecord, error) {
	price, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
	if err != nil {
		return nil, fmt.Errorf("bad price %q", row[5])
	}

	length, err := strconv.Atoi(strings.TrimSpace(row[6]))
	if err != nil || length <= 0 {
		return nil, fmt.Errorf("bad length_cm %q", row[6])
	}

	var origPrice *float64
	if raw := strings.TrimSpace(row[4]); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("bad orig_price %q", row[4])
		}
		origPrice = &v
	}

	return &models.UnifiedRecord{
		Shop:      models.Shop(row[0]),
		Brand:     row[1],
		Model:     row[2],
		Condition: row[3],
		OrigPrice: origPrice,
		Price:     price,
		LengthCM:  length,
		URL:       row[7],
	}, nil
}
