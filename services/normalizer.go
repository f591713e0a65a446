package services

import (
	"sort"

	"github.com/renbrahe/parsing-ski/config"
	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/scraper"
	"github.com/renbrahe/parsing-ski/utils"
)

// Normalizer expands raw listings into unified records, one row per
// distinct ski length.
type Normalizer struct {
	logger *utils.Logger
	minCM  int
	maxCM  int
}

// NewNormalizer creates a Normalizer with the given logger and length band.
func NewNormalizer(logger *utils.Logger, cfg *config.Config) *Normalizer {
	return &Normalizer{
		logger: logger,
		minCM:  cfg.MinSkiLengthCM,
		maxCM:  cfg.MaxSkiLengthCM,
	}
}

// Normalize turns raw listings into unified records. Input listing order
// is preserved; within a listing, rows come out in ascending numeric
// length order with duplicate lengths collapsed. A listing whose size
// strings yield no usable length falls back to a 3-digit number in the
// model name; if that also fails the listing is dropped and logged.
func (n *Normalizer) Normalize(raw []*models.RawListing) []*models.UnifiedRecord {
	records := make([]*models.UnifiedRecord, 0, len(raw))
	dropped := 0

	for _, r := range raw {
		lengths := scraper.ParseLengths(r.Lengths, n.minCM, n.maxCM)

		if len(lengths) == 0 {
			if l, ok := scraper.LengthFromModel(r.Model, n.minCM, n.maxCM); ok {
				lengths = []int{l}
			}
		}
		if len(lengths) == 0 {
			n.logger.Warn("[normalizer] dropping listing with no usable length: shop=%s title=%q",
				r.Shop, r.Title)
			dropped++
			continue
		}

		sort.Ints(lengths)

		for _, length := range lengths {
			records = append(records, &models.UnifiedRecord{
				Shop:      r.Shop,
				Brand:     r.Brand,
				Model:     r.Model,
				Condition: r.Condition,
				OrigPrice: r.OrigPrice,
				Price:     r.Price,
				LengthCM:  length,
				URL:       r.URL,
			})
		}
	}

	n.logger.Info("[normalizer] %d listings → %d rows (dropped %d)",
		len(raw), len(records), dropped)
	return records
}
