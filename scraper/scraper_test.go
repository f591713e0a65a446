package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/utils"
)

func float64Ptr(v float64) *float64 { return &v }

func listingWithPrice(shop models.Shop, model string, price float64) *models.RawListing {
	return &models.RawListing{Shop: shop, Model: model, Price: price, Condition: "new"}
}

func TestFiltersApplyPriceBand(t *testing.T) {
	f := Filters{MinPrice: float64Ptr(150), MaxPrice: float64Ptr(190)}

	in := []*models.RawListing{
		listingWithPrice(models.ShopXtreme, "a", 100),
		listingWithPrice(models.ShopXtreme, "b", 150),
		listingWithPrice(models.ShopXtreme, "c", 170),
		listingWithPrice(models.ShopXtreme, "d", 190),
		listingWithPrice(models.ShopXtreme, "e", 191),
	}

	out := f.Apply(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 listings in band, got %d", len(out))
	}
	for _, l := range out {
		if l.Price < 150 || l.Price > 190 {
			t.Errorf("listing %q with price %.2f escaped the band", l.Model, l.Price)
		}
	}
}

func TestFiltersApplyMaxItems(t *testing.T) {
	f := Filters{MaxItems: 2}

	in := []*models.RawListing{
		listingWithPrice(models.ShopXtreme, "a", 100),
		listingWithPrice(models.ShopXtreme, "b", 200),
		listingWithPrice(models.ShopXtreme, "c", 300),
	}

	out := f.Apply(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 listings after cap, got %d", len(out))
	}
	if out[0].Model != "a" || out[1].Model != "b" {
		t.Errorf("cap must keep the leading listings, got %q, %q", out[0].Model, out[1].Model)
	}
}

type fakeScraper struct {
	shop     models.Shop
	listings []*models.RawListing
	err      error
	delay    time.Duration
}

func (f *fakeScraper) Shop() models.Shop { return f.shop }

func (f *fakeScraper) Scrape(ctx context.Context, _ Filters) ([]*models.RawListing, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.listings, f.err
}

func TestRunAllMergesInScraperOrder(t *testing.T) {
	scrapers := []ShopScraper{
		// the first shop finishes last; order must not depend on timing
		&fakeScraper{
			shop:  models.ShopXtreme,
			delay: 50 * time.Millisecond,
			listings: []*models.RawListing{
				listingWithPrice(models.ShopXtreme, "x1", 100),
				listingWithPrice(models.ShopXtreme, "x2", 200),
			},
		},
		&fakeScraper{
			shop: models.ShopSnowmania,
			listings: []*models.RawListing{
				listingWithPrice(models.ShopSnowmania, "s1", 300),
			},
		},
	}

	got := RunAll(context.Background(), scrapers, Filters{}, utils.NewWorkerPool(2), utils.NewLogger())

	want := []string{"x1", "x2", "s1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d listings, got %d", len(want), len(got))
	}
	for i, model := range want {
		if got[i].Model != model {
			t.Errorf("position %d: got %q, want %q", i, got[i].Model, model)
		}
	}
}

func TestRunAllIsolatesShopFailure(t *testing.T) {
	scrapers := []ShopScraper{
		&fakeScraper{shop: models.ShopXtreme, err: errors.New("layout changed")},
		&fakeScraper{
			shop: models.ShopMegasport,
			listings: []*models.RawListing{
				listingWithPrice(models.ShopMegasport, "m1", 400),
			},
		},
	}

	got := RunAll(context.Background(), scrapers, Filters{}, utils.NewWorkerPool(2), utils.NewLogger())

	if len(got) != 1 || got[0].Model != "m1" {
		t.Fatalf("failing shop must contribute zero listings without aborting, got %v", got)
	}
}
