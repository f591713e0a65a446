// Package xtreme scrapes the ski catalog of xtreme.ge (an Odoo webshop).
package xtreme

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/renbrahe/parsing-ski/config"
	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/scraper"
	"github.com/renbrahe/parsing-ski/scraper/fetch"
	"github.com/renbrahe/parsing-ski/utils"
)

const categoryURL = "https://www.xtreme.ge/en/shop/category/ski-skis-2"

// Scraper crawls the xtreme.ge ski category and extracts listings.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher fetch.Fetcher
	visited *utils.URLSet
}

// New creates a ready-to-use xtreme scraper.
func New(cfg *config.Config, logger *utils.Logger, fetcher fetch.Fetcher) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		visited: utils.NewURLSet(),
	}
}

func (s *Scraper) Shop() models.Shop { return models.ShopXtreme }

// Scrape walks the category pages, visits every product and returns the
// filtered listings. Broken product pages are logged and skipped.
func (s *Scraper) Scrape(ctx context.Context, f scraper.Filters) ([]*models.RawListing, error) {
	maxPages := 0
	if f.TestMode {
		maxPages = 1
	}

	productURLs, err := s.collectProductURLs(ctx, maxPages)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[xtreme] %d unique product URLs", len(productURLs))

	var listings []*models.RawListing
	for _, u := range productURLs {
		doc, err := s.fetcher.Fetch(ctx, u)
		if err != nil {
			s.logger.Warn("[xtreme] failed to load %s: %v", u, err)
			continue
		}
		listing, err := extractListing(doc, u, s.cfg.Brands)
		if err != nil {
			s.logger.Warn("[xtreme] skipping %s: %v", u, err)
			continue
		}
		listings = append(listings, listing)
	}

	return f.Apply(listings), nil
}

// collectProductURLs paginates through the category until a page yields
// no new unique products.
func (s *Scraper) collectProductURLs(ctx context.Context, maxPages int) ([]string, error) {
	var urls []string

	for page := 1; ; page++ {
		if maxPages > 0 && page > maxPages {
			break
		}

		pageURL := categoryURL
		if page > 1 {
			pageURL = fmt.Sprintf("%s?page=%d", categoryURL, page)
		}

		doc, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if errors.Is(err, fetch.ErrNotFound) {
				break
			}
			if page == 1 {
				return nil, fmt.Errorf("xtreme: category page: %w", err)
			}
			s.logger.Warn("[xtreme] page %d failed, stopping pagination: %v", page, err)
			break
		}

		links := extractProductLinks(doc, categoryURL)
		if len(links) == 0 {
			break
		}

		added := 0
		for _, l := range links {
			if s.visited.Add(l) {
				urls = append(urls, l)
				added++
			}
		}
		s.logger.Debug("[xtreme] page %d: %d links, %d new", page, len(links), added)

		// no new unique products means the shop is repeating the last page
		if added == 0 {
			break
		}
	}

	sort.Strings(urls)
	return urls, nil
}

// extractProductLinks pulls product page links out of a category page.
// Odoo renders each product as div.oe_product with the link on the image.
func extractProductLinks(doc *goquery.Document, base string) []string {
	var links []string
	seen := make(map[string]struct{})

	doc.Find("div.oe_product").Each(func(_ int, product *goquery.Selection) {
		a := product.Find("a.oe_product_image_link").First()
		if a.Length() == 0 {
			a = product.Find("h6.o_wsale_products_item_title a").First()
		}
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}

		full := normalizeProductURL(href, base)
		if full == "" {
			return
		}
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		links = append(links, full)
	})

	return links
}

// normalizeProductURL resolves href against base and strips volatile
// query parameters so the same product never shows up twice.
func normalizeProductURL(href, base string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u, err := baseURL.Parse(href)
	if err != nil {
		return ""
	}

	q := u.Query()
	kept := url.Values{}
	for _, key := range []string{"page", "category_id"} {
		if v := q.Get(key); v != "" {
			kept.Set(key, v)
		}
	}
	u.RawQuery = kept.Encode()
	u.Fragment = ""
	return u.String()
}

// extractListing parses one product page into a raw listing.
func extractListing(doc *goquery.Document, pageURL string, brands []string) (*models.RawListing, error) {
	brand := scraper.NormalizeText(doc.Find("h1.o_wsale_product_page_title .brand-name-detail span").First().Text())
	model := scraper.NormalizeText(doc.Find("h1.o_wsale_product_page_title .product-name-detail span").First().Text())

	if brand == "" && model == "" {
		title := scraper.NormalizeText(doc.Find("h1").First().Text())
		if title == "" {
			return nil, fmt.Errorf("no product title found")
		}
		brand, model = scraper.SplitTitle(title, brands)
	}

	title := scraper.NormalizeText(strings.TrimSpace(brand + " " + model))

	price, origPrice, err := extractPrices(doc)
	if err != nil {
		return nil, err
	}

	return &models.RawListing{
		Shop:      models.ShopXtreme,
		Title:     title,
		Brand:     brand,
		Model:     model,
		Condition: "new",
		Price:     price,
		OrigPrice: origPrice,
		Lengths:   extractSizes(doc),
		URL:       pageURL,
	}, nil
}

// extractPrices reads the current price and, when the product is
// discounted, the crossed-out original price.
func extractPrices(doc *goquery.Document) (price float64, origPrice *float64, err error) {
	currentText := doc.Find("div.product_price span.oe_price.text-danger").First().Text()
	origText := doc.Find("div.product_price span.oe_price.text-muted").First().Text()

	// undiscounted products render a single plain price
	if strings.TrimSpace(currentText) == "" {
		currentText = doc.Find("div.product_price span.oe_price").First().Text()
	}
	if strings.TrimSpace(currentText) == "" {
		currentText = doc.Find("span[itemprop='price']").First().Text()
	}

	price, ok := scraper.ParsePrice(currentText)
	if !ok {
		return 0, nil, fmt.Errorf("no parseable price")
	}

	if orig, ok := scraper.ParsePrice(origText); ok {
		origPrice = &orig
	}
	return price, origPrice, nil
}

// extractSizes collects the raw size badge values (main and alternative
// grids). Values stay as strings; the normalizer turns them into lengths.
func extractSizes(doc *goquery.Document) []string {
	var sizes []string

	collect := func(_ int, sel *goquery.Selection) {
		val, ok := sel.Attr("title")
		if !ok || strings.TrimSpace(val) == "" {
			val = sel.Text()
		}
		val = scraper.NormalizeText(val)
		if val != "" {
			sizes = append(sizes, val)
		}
	}

	doc.Find("div.main-product-sizes-grid span.main-size-badge").Each(collect)
	doc.Find("div.alternative-product-sizes-grid span.alternative-size-badge-clickable").Each(collect)

	return sizes
}
