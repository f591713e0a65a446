package models

// ChangeKind classifies one diff entry.
type ChangeKind string

const (
	ChangeSold         ChangeKind = "sold_out"
	ChangeNew          ChangeKind = "new_arrival"
	ChangePriceChanged ChangeKind = "price_change"
)

// Key is the derived identity of a ski size across two snapshots. Rows
// carry no stable product ID, so two exports are matched on this tuple.
// URL and price are deliberately excluded: URLs change on re-listing and
// price is the thing being diffed.
type Key struct {
	Shop      Shop
	Brand     string
	Model     string
	LengthCM  int
	Condition string
}

// KeyOf derives the identity key for a record. All matching logic goes
// through this single function so the key policy can be revisited in one
// place.
func KeyOf(r *UnifiedRecord) Key {
	return Key{
		Shop:      r.Shop,
		Brand:     r.Brand,
		Model:     r.Model,
		LengthCM:  r.LengthCM,
		Condition: r.Condition,
	}
}

// Less orders keys by (shop, brand, model, length_cm, condition). Used to
// make diff output deterministic.
func (k Key) Less(o Key) bool {
	if k.Shop != o.Shop {
		return k.Shop < o.Shop
	}
	if k.Brand != o.Brand {
		return k.Brand < o.Brand
	}
	if k.Model != o.Model {
		return k.Model < o.Model
	}
	if k.LengthCM != o.LengthCM {
		return k.LengthCM < o.LengthCM
	}
	return k.Condition < o.Condition
}

// ChangeEntry is one line of a diff report. Record points at the row the
// entry was derived from: the previous snapshot's row for sold items, the
// current snapshot's row otherwise.
type ChangeEntry struct {
	Kind     ChangeKind
	Key      Key
	OldPrice float64
	NewPrice float64
	Record   *UnifiedRecord
}
