package services

import (
	"sort"

	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/utils"
)

// Differ matches two snapshots by derived identity keys and classifies
// every change. It is purely in-memory and deterministic on fixed inputs.
type Differ struct {
	logger *utils.Logger
}

// NewDiffer creates a Differ with the given logger.
func NewDiffer(logger *utils.Logger) *Differ {
	return &Differ{logger: logger}
}

// Diff compares the previous and current snapshots. Unchanged items
// produce no output. Entries come back grouped SOLD, NEW, PRICE_CHANGED,
// each group sorted by (shop, brand, model, length_cm) — independent of
// the input row order.
func (d *Differ) Diff(previous, current []*models.UnifiedRecord) []*models.ChangeEntry {
	prevIdx := d.index(previous, "previous")
	currIdx := d.index(current, "current")

	var sold, arrived, repriced []*models.ChangeEntry

	for key, prevRec := range prevIdx {
		currRec, exists := currIdx[key]
		if !exists {
			sold = append(sold, &models.ChangeEntry{
				Kind:     models.ChangeSold,
				Key:      key,
				OldPrice: prevRec.Price,
				Record:   prevRec,
			})
			continue
		}
		if currRec.Price != prevRec.Price {
			repriced = append(repriced, &models.ChangeEntry{
				Kind:     models.ChangePriceChanged,
				Key:      key,
				OldPrice: prevRec.Price,
				NewPrice: currRec.Price,
				Record:   currRec,
			})
		}
	}

	for key, currRec := range currIdx {
		if _, exists := prevIdx[key]; !exists {
			arrived = append(arrived, &models.ChangeEntry{
				Kind:     models.ChangeNew,
				Key:      key,
				NewPrice: currRec.Price,
				Record:   currRec,
			})
		}
	}

	sortEntries(sold)
	sortEntries(arrived)
	sortEntries(repriced)

	entries := make([]*models.ChangeEntry, 0, len(sold)+len(arrived)+len(repriced))
	entries = append(entries, sold...)
	entries = append(entries, arrived...)
	entries = append(entries, repriced...)
	return entries
}

// index maps key → record for one snapshot. Two rows with the same key
// are ambiguous; the first occurrence wins and the collision is logged.
func (d *Differ) index(records []*models.UnifiedRecord, label string) map[models.Key]*models.UnifiedRecord {
	idx := make(map[models.Key]*models.UnifiedRecord, len(records))
	for _, r := range records {
		key := models.KeyOf(r)
		if _, dup := idx[key]; dup {
			d.logger.Warn("[differ] duplicate key in %s snapshot, keeping first: shop=%s brand=%q model=%q length=%d condition=%s",
				label, key.Shop, key.Brand, key.Model, key.LengthCM, key.Condition)
			continue
		}
		idx[key] = r
	}
	return idx
}

func sortEntries(entries []*models.ChangeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key.Less(entries[j].Key)
	})
}
