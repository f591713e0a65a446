package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/utils"
)

func TestExportReadSnapshotRoundTrip(t *testing.T) {
	orig := 1855.0
	records := []*models.UnifiedRecord{
		{
			Shop: models.ShopXtreme, Brand: "Head", Model: "Kore 93",
			Condition: "new", OrigPrice: &orig, Price: 1575.5,
			LengthCM: 177, URL: "https://example.com/kore",
		},
		{
			Shop: models.ShopSnowmania, Brand: "", Model: "NoName Cruiser",
			Condition: "used", Price: 950,
			LengthCM: 160, URL: "https://example.com/cruiser",
		},
	}

	path := filepath.Join(t.TempDir(), "skis_unified_20260115_0930.csv")
	n, err := Export(records, path)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n <= 0 {
		t.Errorf("Export must report bytes written, got %d", n)
	}

	got, err := ReadSnapshot(path, utils.NewLogger())
	if err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("round trip: got %d records, want 2", len(got))
	}

	first := got[0]
	if first.Shop != models.ShopXtreme || first.Model != "Kore 93" || first.LengthCM != 177 {
		t.Errorf("first record mangled: %+v", first)
	}
	if first.Price != 1575.5 {
		t.Errorf("fractional price: got %v, want 1575.5", first.Price)
	}
	if first.OrigPrice == nil || *first.OrigPrice != 1855 {
		t.Errorf("orig price: got %v, want 1855", first.OrigPrice)
	}
	if got[1].OrigPrice != nil {
		t.Errorf("empty orig_price column must read back as nil")
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.csv"), utils.NewLogger())
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("missing file must yield *FormatError, got %v", err)
	}
}

func TestReadSnapshotBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skis_unified_20260101_0000.csv")
	content := "shop,brand,model,price\nxtreme,Head,Kore,100\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadSnapshot(path, utils.NewLogger())
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("bad header must yield *FormatError, got %v", err)
	}
}

func TestReadSnapshotDropsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skis_unified_20260101_0000.csv")
	content := "shop,brand,model,condition,orig_price,price,length_cm,url\n" +
		"xtreme,Head,Kore 93,new,,1350,177,https://example.com/a\n" +
		"xtreme,Head,Kore 99,new,,oops,177,https://example.com/b\n" +
		"xtreme,Head,Kore 105,new,,1400,-5,https://example.com/c\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSnapshot(path, utils.NewLogger())
	if err != nil {
		t.Fatalf("bad rows must not fail the read: %v", err)
	}
	if len(got) != 1 || got[0].Model != "Kore 93" {
		t.Fatalf("expected only the valid row to survive, got %v", got)
	}
}

func TestReadSnapshotToleratesBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skis_unified_20260101_0000.csv")
	content := "\uFEFFshop,brand,model,condition,orig_price,price,length_cm,url\n" +
		"xtreme,Head,Kore 93,new,,1350,177,https://example.com/a\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadSnapshot(path, utils.NewLogger())
	if err != nil {
		t.Fatalf("BOM header must be accepted: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

func TestExportDiff(t *testing.T) {
	rec := &models.UnifiedRecord{
		Shop: models.ShopXtreme, Brand: "Atomic", Model: "Redster",
		Condition: "new", Price: 250, LengthCM: 170, URL: "https://example.com/r",
	}
	entries := []*models.ChangeEntry{
		{
			Kind:     models.ChangePriceChanged,
			Key:      models.KeyOf(rec),
			OldPrice: 300,
			NewPrice: 250,
			Record:   rec,
		},
	}

	path := filepath.Join(t.TempDir(), "diff.csv")
	if _, err := ExportDiff(entries, path); err != nil {
		t.Fatalf("ExportDiff: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "status,shop,brand,model,length_cm,condition,old_price,new_price,url\n" +
		"price_change,xtreme,Atomic,Redster,170,new,300,250,https://example.com/r\n"
	if string(data) != want {
		t.Errorf("diff csv:\n got %q\nwant %q", string(data), want)
	}
}

func TestExportLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "skis_unified_20260101_0000.csv")
	if _, err := Export(nil, path); err != nil {
		t.Fatalf("Export: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != filepath.Base(path) {
		t.Errorf("export dir must contain only the final file, got %v", entries)
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1350, "1350"},
		{1575.5, "1575.50"},
		{0, "0"},
		{299.99, "299.99"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
