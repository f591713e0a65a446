package scraper

import (
	"context"

	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/utils"
)

// Filters bounds what a shop scraper returns. Zero values mean "no bound";
// MaxItems caps the number of listings per shop (used by test mode).
type Filters struct {
	MinPrice *float64
	MaxPrice *float64
	MaxItems int
	TestMode bool
}

// PriceInBand reports whether a price passes the min/max filter.
func (f Filters) PriceInBand(price float64) bool {
	if f.MinPrice != nil && price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && price > *f.MaxPrice {
		return false
	}
	return true
}

// Apply enforces the price band and the item cap on a shop's listings.
// Every scraper runs its output through this before returning.
func (f Filters) Apply(listings []*models.RawListing) []*models.RawListing {
	out := make([]*models.RawListing, 0, len(listings))
	for _, l := range listings {
		if !f.PriceInBand(l.Price) {
			continue
		}
		out = append(out, l)
		if f.MaxItems > 0 && len(out) >= f.MaxItems {
			break
		}
	}
	return out
}

// ShopScraper is the capability every storefront variant implements:
// crawl the shop and produce raw listings. Implementations never panic
// across this boundary; a broken page degrades to fewer listings.
type ShopScraper interface {
	Shop() models.Shop
	Scrape(ctx context.Context, f Filters) ([]*models.RawListing, error)
}

// RunAll runs the given scrapers concurrently, one pool job per shop.
// A failing shop is logged and contributes zero listings; it never aborts
// the run. Results are merged back in the scrapers' given order, so the
// output is deterministic regardless of completion order.
func RunAll(ctx context.Context, scrapers []ShopScraper, f Filters, pool *utils.WorkerPool, logger *utils.Logger) []*models.RawListing {
	results := make([][]*models.RawListing, len(scrapers))

	for i, sc := range scrapers {
		i, sc := i, sc
		pool.Submit(func() {
			listings, err := sc.Scrape(ctx, f)
			if err != nil {
				logger.Warn("[%s] scrape failed, shop contributes 0 listings: %v", sc.Shop(), err)
				return
			}
			logger.Info("[%s] %d listings after filters", sc.Shop(), len(listings))
			results[i] = listings
		})
	}
	pool.Wait()

	var merged []*models.RawListing
	for _, r := range results {
		merged = append(merged, r...)
	}
	return merged
}
