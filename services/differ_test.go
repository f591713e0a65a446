package services

import (
	"testing"

	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/utils"
)

func record(shop models.Shop, brand, model string, length int, price float64) *models.UnifiedRecord {
	return &models.UnifiedRecord{
		Shop:      shop,
		Brand:     brand,
		Model:     model,
		Condition: "new",
		Price:     price,
		LengthCM:  length,
		URL:       "https://example.com",
	}
}

func TestDiffClassifiesChanges(t *testing.T) {
	previous := []*models.UnifiedRecord{
		record(models.ShopXtreme, "Atomic", "Redster", 170, 300),
		record(models.ShopXtreme, "Atomic", "Redster", 160, 300),
	}
	current := []*models.UnifiedRecord{
		record(models.ShopXtreme, "Atomic", "Redster", 170, 250),
		record(models.ShopXtreme, "Atomic", "Redster", 180, 260),
	}

	entries := NewDiffer(utils.NewLogger()).Diff(previous, current)
	if len(entries) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(entries))
	}

	sold := entries[0]
	if sold.Kind != models.ChangeSold || sold.Key.LengthCM != 160 {
		t.Errorf("first entry must be the sold 160, got %s/%d", sold.Kind, sold.Key.LengthCM)
	}
	if sold.OldPrice != 300 {
		t.Errorf("sold old price: got %.2f, want 300", sold.OldPrice)
	}

	arrived := entries[1]
	if arrived.Kind != models.ChangeNew || arrived.Key.LengthCM != 180 {
		t.Errorf("second entry must be the new 180, got %s/%d", arrived.Kind, arrived.Key.LengthCM)
	}
	if arrived.NewPrice != 260 {
		t.Errorf("new arrival price: got %.2f, want 260", arrived.NewPrice)
	}

	repriced := entries[2]
	if repriced.Kind != models.ChangePriceChanged || repriced.Key.LengthCM != 170 {
		t.Errorf("third entry must be the repriced 170, got %s/%d", repriced.Kind, repriced.Key.LengthCM)
	}
	if repriced.OldPrice != 300 || repriced.NewPrice != 250 {
		t.Errorf("repriced prices: got %.2f→%.2f, want 300→250", repriced.OldPrice, repriced.NewPrice)
	}
}

func TestDiffIdenticalSnapshotsAreEmpty(t *testing.T) {
	snapshot := []*models.UnifiedRecord{
		record(models.ShopSnowmania, "Head", "Kore 93", 177, 1700),
		record(models.ShopXtreme, "Atomic", "Redster", 170, 300),
	}

	entries := NewDiffer(utils.NewLogger()).Diff(snapshot, snapshot)
	if len(entries) != 0 {
		t.Fatalf("identical snapshots must produce no changes, got %d", len(entries))
	}
}

func TestDiffIgnoresRowOrder(t *testing.T) {
	a := record(models.ShopXtreme, "Atomic", "Redster", 170, 300)
	b := record(models.ShopSnowmania, "Head", "Kore 93", 177, 1700)

	d := NewDiffer(utils.NewLogger())
	entries := d.Diff(
		[]*models.UnifiedRecord{a, b},
		[]*models.UnifiedRecord{b, a},
	)
	if len(entries) != 0 {
		t.Fatalf("row order must not matter, got %d changes", len(entries))
	}
}

func TestDiffGroupOrdering(t *testing.T) {
	previous := []*models.UnifiedRecord{
		record(models.ShopXtreme, "Volkl", "Deacon", 180, 900), // will be sold
		record(models.ShopXtreme, "Atomic", "Bent", 184, 800),  // will be sold
		record(models.ShopSnowmania, "Head", "Kore", 177, 700), // will change price
	}
	current := []*models.UnifiedRecord{
		record(models.ShopSnowmania, "Head", "Kore", 177, 650),
		record(models.ShopBurosports, "Elan", "Ripstick", 172, 1000), // new
	}

	entries := NewDiffer(utils.NewLogger()).Diff(previous, current)

	wantKinds := []models.ChangeKind{
		models.ChangeSold, models.ChangeSold, models.ChangeNew, models.ChangePriceChanged,
	}
	if len(entries) != len(wantKinds) {
		t.Fatalf("expected %d entries, got %d", len(wantKinds), len(entries))
	}
	for i, kind := range wantKinds {
		if entries[i].Kind != kind {
			t.Errorf("position %d: got %s, want %s", i, entries[i].Kind, kind)
		}
	}
	// inside the SOLD group entries sort by brand before model
	if entries[0].Key.Brand != "Atomic" || entries[1].Key.Brand != "Volkl" {
		t.Errorf("sold group must be key-sorted, got %q then %q",
			entries[0].Key.Brand, entries[1].Key.Brand)
	}
}

func TestDiffDuplicateKeyKeepsFirst(t *testing.T) {
	previous := []*models.UnifiedRecord{
		record(models.ShopXtreme, "Atomic", "Redster", 170, 300),
		record(models.ShopXtreme, "Atomic", "Redster", 170, 999), // ambiguous duplicate
	}
	current := []*models.UnifiedRecord{
		record(models.ShopXtreme, "Atomic", "Redster", 170, 250),
	}

	entries := NewDiffer(utils.NewLogger()).Diff(previous, current)
	if len(entries) != 1 {
		t.Fatalf("expected 1 change, got %d", len(entries))
	}
	if entries[0].Kind != models.ChangePriceChanged || entries[0].OldPrice != 300 {
		t.Errorf("first occurrence must win: got %s old=%.2f", entries[0].Kind, entries[0].OldPrice)
	}
}

func TestDiffDifferentConditionsAreDistinct(t *testing.T) {
	newSki := record(models.ShopSnowmania, "Salomon", "S/Force", 170, 1500)
	usedSki := record(models.ShopSnowmania, "Salomon", "S/Force", 170, 900)
	usedSki.Condition = "used"

	entries := NewDiffer(utils.NewLogger()).Diff(
		[]*models.UnifiedRecord{newSki, usedSki},
		[]*models.UnifiedRecord{newSki},
	)
	if len(entries) != 1 || entries[0].Kind != models.ChangeSold {
		t.Fatalf("used variant must diff independently, got %v", entries)
	}
	if entries[0].Key.Condition != "used" {
		t.Errorf("sold key condition: got %q, want used", entries[0].Key.Condition)
	}
}
