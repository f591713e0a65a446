package megasport

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/renbrahe/parsing-ski/config"
)

func docFromString(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to build doc: %v", err)
	}
	return doc
}

func testConfig() *config.Config {
	return &config.Config{
		Brands:         []string{"Rossignol", "Head", "Atomic", "Elan"},
		MinSkiLengthCM: 80,
		MaxSkiLengthCM: 210,
	}
}

func TestExtractProductLinks(t *testing.T) {
	html := `<html><body>
		<a href="/products/zeta-ski">Zeta</a>
		<a href="https://megasport.ge/products/alpha-ski">Alpha</a>
		<a href="/products/zeta-ski">Zeta again</a>
		<a href="/category/skiing?page=2">not a product</a>
	</body></html>`

	links := extractProductLinks(docFromString(t, html))
	want := []string{
		"https://megasport.ge/products/alpha-ski",
		"https://megasport.ge/products/zeta-ski",
	}
	if len(links) != len(want) {
		t.Fatalf("expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("position %d: got %q, want %q", i, links[i], want[i])
		}
	}
}

func TestExtractListing(t *testing.T) {
	html := `<html><body>
		<h2 class="text-heading-4">Head Kore 93</h2>
		<div class="text-primary text-heading font-semibold">3 550,00 ₾</div>
		<ul class="product-colors">
			<li>170</li>
			<li>177 cm</li>
			<li>170</li>
			<li>400</li>
		</ul>
	</body></html>`

	listing, err := extractListing(docFromString(t, html), "https://megasport.ge/products/kore-93", testConfig())
	if err != nil {
		t.Fatalf("extractListing: %v", err)
	}

	if listing.Brand != "Head" || listing.Model != "Kore 93" {
		t.Errorf("brand/model: got %q/%q", listing.Brand, listing.Model)
	}
	if listing.Price != 3550 {
		t.Errorf("price: got %.2f, want 3550", listing.Price)
	}
	if listing.OrigPrice != nil {
		t.Errorf("megasport shows a single price, orig must be nil")
	}
	if len(listing.Lengths) != 2 {
		t.Fatalf("lengths: got %v, want [170 177]", listing.Lengths)
	}
	if listing.Lengths[0] != "170" || listing.Lengths[1] != "177" {
		t.Errorf("lengths: got %v", listing.Lengths)
	}
}

func TestExtractListingSkipsSkiPoles(t *testing.T) {
	html := `<html><body>
		<h2 class="text-heading-4">Elan თხილამურის ჯოხი</h2>
		<div class="text-primary text-heading font-semibold">120,00 ₾</div>
		<ul class="product-colors"><li>110</li></ul>
	</body></html>`

	if _, err := extractListing(docFromString(t, html), "u", testConfig()); err == nil {
		t.Fatal("expected pole product to be rejected")
	}
}

func TestExtractListingRequiresLengths(t *testing.T) {
	// boots share the category but have no lengths in the ski band
	html := `<html><body>
		<h2 class="text-heading-4">Head Edge LYT Boot</h2>
		<div class="text-primary text-heading font-semibold">800,00 ₾</div>
		<ul class="product-colors"><li>27.5</li><li>28.5</li></ul>
	</body></html>`

	if _, err := extractListing(docFromString(t, html), "u", testConfig()); err == nil {
		t.Fatal("expected product without ski lengths to be rejected")
	}
}

func TestExtractPriceFallback(t *testing.T) {
	// no styled price block, only a plain span with the lari sign
	html := `<html><body>
		<h2 class="text-heading-4">Atomic Redster</h2>
		<span>₾ 1 299</span>
	</body></html>`

	price, ok := extractPrice(docFromString(t, html))
	if !ok || price != 1299 {
		t.Errorf("extractPrice fallback: got %.2f, %v; want 1299, true", price, ok)
	}
}
