// Package megasport scrapes megasport.ge. The catalog is rendered by
// JavaScript behind a "Load More" button, so this scraper needs the
// browser-backed fetcher. The skiing category mixes skis with poles,
// boots and helmets; only products with plausible ski lengths survive.
package megasport

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/renbrahe/parsing-ski/config"
	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/scraper"
	"github.com/renbrahe/parsing-ski/scraper/fetch"
	"github.com/renbrahe/parsing-ski/utils"
)

const (
	baseDomain  = "https://megasport.ge"
	categoryURL = baseDomain + "/category/skiing"

	loadMoreLabel = "load more"
)

var (
	// prices render as "3 550,00 ₾"
	priceGELRegexp = regexp.MustCompile(`([\d.,\s]+)\s*₾`)
	sizeRegexp     = regexp.MustCompile(`\b(\d{3})\b`)
)

// browserFetcher is the extra capability megasport needs on top of the
// plain Fetcher contract.
type browserFetcher interface {
	fetch.Fetcher
	FetchExpanded(ctx context.Context, url, buttonText string, maxClicks int) (*goquery.Document, error)
}

// Scraper crawls the megasport skiing category through a headless browser.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher browserFetcher
	visited *utils.URLSet
}

// New creates a ready-to-use megasport scraper.
func New(cfg *config.Config, logger *utils.Logger, fetcher *fetch.BrowserFetcher) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		visited: utils.NewURLSet(),
	}
}

func (s *Scraper) Shop() models.Shop { return models.ShopMegasport }

// Scrape expands the category page, visits every product link and keeps
// the products that look like skis.
func (s *Scraper) Scrape(ctx context.Context, f scraper.Filters) ([]*models.RawListing, error) {
	maxClicks := 20
	if f.TestMode {
		maxClicks = 1
	}

	doc, err := s.fetcher.FetchExpanded(ctx, categoryURL, loadMoreLabel, maxClicks)
	if err != nil {
		return nil, fmt.Errorf("megasport: category page: %w", err)
	}

	links := extractProductLinks(doc)
	s.logger.Info("[megasport] %d product links on category page", len(links))

	if f.TestMode && len(links) > 10 {
		links = links[:10]
	}

	var listings []*models.RawListing
	for _, u := range links {
		if !s.visited.Add(u) {
			continue
		}
		productDoc, err := s.fetcher.Fetch(ctx, u)
		if err != nil {
			s.logger.Warn("[megasport] failed to load %s: %v", u, err)
			continue
		}
		listing, err := extractListing(productDoc, u, s.cfg)
		if err != nil {
			s.logger.Debug("[megasport] skipping %s: %v", u, err)
			continue
		}
		listings = append(listings, listing)
	}

	return f.Apply(listings), nil
}

// extractProductLinks collects every /products/ link on the expanded
// category page.
func extractProductLinks(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href*='/products/']").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		if strings.HasPrefix(href, "/") {
			href = baseDomain + href
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		links = append(links, href)
	})

	sort.Strings(links)
	return links
}

// extractListing parses one megasport product page. Products without a
// usable name, price or ski lengths are rejected.
func extractListing(doc *goquery.Document, pageURL string, cfg *config.Config) (*models.RawListing, error) {
	name := extractName(doc)
	if name == "" {
		return nil, fmt.Errorf("no product name found")
	}

	// "ჯოხ" (pole) in a product name marks ski poles of every flavor;
	// real skis never carry it
	if strings.Contains(name, "ჯოხ") {
		return nil, fmt.Errorf("ski pole product")
	}

	price, ok := extractPrice(doc)
	if !ok {
		return nil, fmt.Errorf("no parseable price")
	}

	lengths := extractSizes(doc, cfg.MinSkiLengthCM, cfg.MaxSkiLengthCM)
	if len(lengths) == 0 {
		// boots, helmets and goggles share the category; no ski
		// length means not a ski
		return nil, fmt.Errorf("no ski lengths found")
	}

	brand, model := scraper.SplitTitle(name, cfg.Brands)

	return &models.RawListing{
		Shop:      models.ShopMegasport,
		Title:     name,
		Brand:     brand,
		Model:     model,
		Condition: "new",
		Price:     price,
		OrigPrice: nil, // the shop shows a single price only
		Lengths:   lengths,
		URL:       pageURL,
	}, nil
}

func extractName(doc *goquery.Document) string {
	var name string
	doc.Find("h2").EachWithBreak(func(_ int, h *goquery.Selection) bool {
		class, _ := h.Attr("class")
		if strings.Contains(class, "text-heading") {
			name = scraper.NormalizeText(h.Text())
			return false
		}
		return true
	})
	return name
}

// extractPrice looks for the styled price block first, then any element
// carrying the lari symbol, then a regex over the whole page text.
func extractPrice(doc *goquery.Document) (float64, bool) {
	if v, ok := scraper.ParsePrice(doc.Find("div.text-primary.text-heading.font-semibold").First().Text()); ok {
		return v, true
	}

	var price float64
	found := false
	doc.Find("span, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, "₾") {
			return true
		}
		if v, ok := scraper.ParsePrice(text); ok {
			price = v
			found = true
			return false
		}
		return true
	})
	if found {
		return price, true
	}

	if m := priceGELRegexp.FindStringSubmatch(doc.Text()); m != nil {
		return scraper.ParsePrice(m[1])
	}
	return 0, false
}

// extractSizes reads the size option bubbles (an ul with a "colors" class)
// and keeps 3-digit values inside the ski length band.
func extractSizes(doc *goquery.Document, minCM, maxCM int) []string {
	var sizes []string
	seen := make(map[int]struct{})

	doc.Find("ul[class*='colors'] li").Each(func(_ int, li *goquery.Selection) {
		m := sizeRegexp.FindStringSubmatch(li.Text())
		if m == nil {
			return
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < minCM || n > maxCM {
			return
		}
		if _, dup := seen[n]; dup {
			return
		}
		seen[n] = struct{}{}
		sizes = append(sizes, m[1])
	})

	return sizes
}
