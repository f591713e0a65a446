// Package snowmania scrapes snowmania.ge, a WooCommerce shop selling both
// new and second-hand skis in separate categories.
package snowmania

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/renbrahe/parsing-ski/config"
	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/scraper"
	"github.com/renbrahe/parsing-ski/scraper/fetch"
	"github.com/renbrahe/parsing-ski/utils"
)

// The two scraped categories: new skis and used skis. Category membership
// is the only condition signal the shop exposes.
var categories = []struct {
	url       string
	condition string
}{
	{
		"https://snowmania.ge/product-category/%e1%83%90%e1%83%ae%e1%83%90%e1%83%9a%e1%83%98/%e1%83%97%e1%83%ae%e1%83%98%e1%83%9a%e1%83%90%e1%83%9b%e1%83%a3%e1%83%a0%e1%83%98/",
		"new",
	},
	{
		"https://snowmania.ge/product-category/%e1%83%9b%e1%83%94%e1%83%9d%e1%83%a0%e1%83%90%e1%83%93%e1%83%98/%e1%83%97%e1%83%ae%e1%83%98%e1%83%9a%e1%83%90%e1%83%9b%e1%83%a3%e1%83%a0%e1%83%98-%e1%83%9b%e1%83%94%e1%83%9d%e1%83%a0%e1%83%90%e1%83%93%e1%83%98/",
		"used",
	},
}

var (
	origPriceRegexp = regexp.MustCompile(`Original price was:\s*₾?\.?\s*([\d.,]+)`)
	currPriceRegexp = regexp.MustCompile(`Current price is:\s*₾?\.?\s*([\d.,]+)`)
)

// Scraper crawls both snowmania categories.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher fetch.Fetcher
	visited *utils.URLSet
}

// New creates a ready-to-use snowmania scraper.
func New(cfg *config.Config, logger *utils.Logger, fetcher fetch.Fetcher) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		visited: utils.NewURLSet(),
	}
}

func (s *Scraper) Shop() models.Shop { return models.ShopSnowmania }

// Scrape walks the new and used categories in order and returns the
// filtered listings.
func (s *Scraper) Scrape(ctx context.Context, f scraper.Filters) ([]*models.RawListing, error) {
	maxPages := 0
	if f.TestMode {
		maxPages = 1
	}

	var listings []*models.RawListing
	for _, cat := range categories {
		catListings, err := s.scrapeCategory(ctx, cat.url, cat.condition, maxPages)
		if err != nil {
			// one broken category should not take the other down
			s.logger.Warn("[snowmania] category %q failed: %v", cat.condition, err)
			continue
		}
		listings = append(listings, catListings...)
	}

	if len(listings) == 0 {
		return nil, fmt.Errorf("snowmania: no listings from any category")
	}
	return f.Apply(listings), nil
}

func (s *Scraper) scrapeCategory(ctx context.Context, baseURL, condition string, maxPages int) ([]*models.RawListing, error) {
	var listings []*models.RawListing

	for page := 1; ; page++ {
		if maxPages > 0 && page > maxPages {
			break
		}

		doc, err := s.fetcher.Fetch(ctx, categoryPageURL(baseURL, page))
		if err != nil {
			// WooCommerce answers 404 past the last page
			if errors.Is(err, fetch.ErrNotFound) {
				break
			}
			if page == 1 {
				return nil, err
			}
			s.logger.Warn("[snowmania] %s page %d failed, stopping: %v", condition, page, err)
			break
		}

		links := extractProductLinks(doc)
		if len(links) == 0 {
			break
		}
		s.logger.Debug("[snowmania] %s page %d: %d products", condition, page, len(links))

		for _, u := range links {
			if !s.visited.Add(u) {
				continue
			}
			productDoc, err := s.fetcher.Fetch(ctx, u)
			if err != nil {
				s.logger.Warn("[snowmania] failed to load %s: %v", u, err)
				continue
			}
			listing, err := extractListing(productDoc, u, condition, s.cfg.Brands)
			if err != nil {
				s.logger.Warn("[snowmania] skipping %s: %v", u, err)
				continue
			}
			listings = append(listings, listing)
		}
	}

	return listings, nil
}

// categoryPageURL builds the WooCommerce /page/N/ pagination URL.
func categoryPageURL(base string, page int) string {
	base = strings.TrimRight(base, "/")
	if page <= 1 {
		return base + "/"
	}
	return fmt.Sprintf("%s/page/%d/", base, page)
}

// extractProductLinks pulls the product page links out of a category page.
func extractProductLinks(doc *goquery.Document) []string {
	var links []string
	seen := make(map[string]struct{})

	doc.Find("ul.products li.product a.woocommerce-LoopProduct-link, ul.products li.product a[href*='/product/']").
		Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if !ok || href == "" {
				return
			}
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}
			links = append(links, href)
		})

	return links
}

// extractListing parses one WooCommerce product page.
func extractListing(doc *goquery.Document, pageURL, condition string, brands []string) (*models.RawListing, error) {
	title := scraper.NormalizeText(doc.Find("h1.product_title").First().Text())
	if title == "" {
		title = scraper.NormalizeText(doc.Find("h1").First().Text())
	}
	if title == "" {
		return nil, fmt.Errorf("no product title found")
	}

	brand, sizes := extractAttributes(doc)
	model := title
	if brand == "" {
		brand, model = scraper.SplitTitle(title, brands)
	}

	price, origPrice, err := extractPrices(doc)
	if err != nil {
		return nil, err
	}

	return &models.RawListing{
		Shop:      models.ShopSnowmania,
		Title:     title,
		Brand:     brand,
		Model:     model,
		Condition: condition,
		Price:     price,
		OrigPrice: origPrice,
		Lengths:   sizes,
		URL:       pageURL,
	}, nil
}

// extractAttributes reads brand and size values out of the WooCommerce
// attributes table. The shop labels the rows in Georgian: "ზომა" is size,
// "ბრენდი" is brand.
func extractAttributes(doc *goquery.Document) (brand string, sizes []string) {
	doc.Find("table.woocommerce-product-attributes tr").Each(func(_ int, tr *goquery.Selection) {
		label := strings.ToLower(scraper.NormalizeText(tr.Find("th").First().Text()))
		value := scraper.NormalizeText(tr.Find("td").First().Text())
		if value == "" {
			return
		}
		switch {
		case strings.Contains(label, "ზომა"):
			// size cell holds a comma list: "170, 177, 184"
			for _, part := range strings.Split(value, ",") {
				if p := strings.TrimSpace(part); p != "" {
					sizes = append(sizes, p)
				}
			}
		case strings.Contains(label, "ბრენდი"):
			brand = value
		}
	})
	return brand, sizes
}

// extractPrices reads the WooCommerce price block. Discounted products
// carry screen-reader phrases ("Original price was: X" / "Current price
// is: Y"); plain products a single amount. del/ins markup is the second
// chance, bare numbers in the block the last.
func extractPrices(doc *goquery.Document) (price float64, origPrice *float64, err error) {
	block := doc.Find("p.price, span.price, div.price").First()
	text := strings.ReplaceAll(block.Text(), " ", " ")

	if m := currPriceRegexp.FindStringSubmatch(text); m != nil {
		if v, ok := scraper.ParsePrice(m[1]); ok {
			price = v
			if om := origPriceRegexp.FindStringSubmatch(text); om != nil {
				if ov, ok := scraper.ParsePrice(om[1]); ok {
					origPrice = &ov
				}
			}
			return price, origPrice, nil
		}
	}

	if v, ok := scraper.ParsePrice(block.Find("ins").First().Text()); ok {
		price = v
		if ov, ok := scraper.ParsePrice(block.Find("del").First().Text()); ok {
			origPrice = &ov
		}
		return price, origPrice, nil
	}

	if v, ok := scraper.ParsePrice(text); ok {
		return v, nil, nil
	}
	return 0, nil, fmt.Errorf("no parseable price")
}
