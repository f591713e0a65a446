// Package burosports scrapes the ski catalog of burusports.ge. Prices
// live on the category cards (old and discounted values as bare numbers),
// sizes on the product pages.
package burosports

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/renbrahe/parsing-ski/config"
	"github.com/renbrahe/parsing-ski/models"
	"github.com/renbrahe/parsing-ski/scraper"
	"github.com/renbrahe/parsing-ski/scraper/fetch"
	"github.com/renbrahe/parsing-ski/utils"
)

const (
	baseDomain  = "https://burusports.ge"
	categoryURL = baseDomain + "/en/products/tkhilamuri/tkhilamuri"
)

var (
	// card prices are bare 3-4 digit GEL amounts at the end of the text
	cardPriceRegexp = regexp.MustCompile(`\b\d{3,4}\b`)
	// the size block is a labeled run of text on the product page
	sizeBlockRegexp = regexp.MustCompile(`Size:\s*(.*?)(?:Adult:|Quantity:|$)`)
	digitsRegexp    = regexp.MustCompile(`\d{2,3}`)
)

// card is one category listing entry before the product page visit.
type card struct {
	url       string
	price     float64
	origPrice *float64
}

// Scraper crawls the burusports ski category.
type Scraper struct {
	cfg     *config.Config
	logger  *utils.Logger
	fetcher fetch.Fetcher
	visited *utils.URLSet
}

// New creates a ready-to-use burosports scraper.
func New(cfg *config.Config, logger *utils.Logger, fetcher fetch.Fetcher) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		fetcher: fetcher,
		visited: utils.NewURLSet(),
	}
}

func (s *Scraper) Shop() models.Shop { return models.ShopBurosports }

// Scrape paginates the category, merging card prices with product page
// titles and sizes.
func (s *Scraper) Scrape(ctx context.Context, f scraper.Filters) ([]*models.RawListing, error) {
	maxPages := 0
	if f.TestMode {
		maxPages = 1
	}

	cards, err := s.collectCards(ctx, maxPages)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[burosports] %d product cards", len(cards))

	var listings []*models.RawListing
	for _, c := range cards {
		doc, err := s.fetcher.Fetch(ctx, c.url)
		if err != nil {
			s.logger.Warn("[burosports] failed to load %s: %v", c.url, err)
			continue
		}
		listing, err := extractListing(doc, c, s.cfg.Brands)
		if err != nil {
			s.logger.Warn("[burosports] skipping %s: %v", c.url, err)
			continue
		}
		listings = append(listings, listing)
	}

	return f.Apply(listings), nil
}

func (s *Scraper) collectCards(ctx context.Context, maxPages int) ([]card, error) {
	var cards []card

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
				return nil, fmt.Errorf("burosports: category page: %w", err)
			}
			s.logger.Warn("[burosports] page %d failed, stopping pagination: %v", page, err)
			break
		}

		pageCards := extractCards(doc)
		if len(pageCards) == 0 {
			break
		}

		added := 0
		for _, c := range pageCards {
			if s.visited.Add(c.url) {
				cards = append(cards, c)
				added++
			}
		}
		if added == 0 {
			break
		}
	}

	return cards, nil
}

// extractCards reads the category cards. Each card's text ends with one
// bare price (regular) or two (old price then discounted price).
func extractCards(doc *goquery.Document) []card {
	var cards []card

	doc.Find("a.product-list-item").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || href == "" {
			return
		}
		full := resolveURL(href)
		if full == "" {
			return
		}

		nums := cardPriceRegexp.FindAllString(a.Text(), -1)
		if len(nums) == 0 {
			return
		}

		c := card{url: full}
		if len(nums) == 1 {
			c.price, _ = scraper.ParsePrice(nums[0])
		} else {
			orig, _ := scraper.ParsePrice(nums[0])
			c.price, _ = scraper.ParsePrice(nums[1])
			c.origPrice = &orig
		}
		if c.price > 0 {
			cards = append(cards, c)
		}
	})

	return cards
}

func resolveURL(href string) string {
	base, _ := url.Parse(baseDomain)
	u, err := base.Parse(href)
	if err != nil {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// extractListing merges one card with its product page.
func extractListing(doc *goquery.Document, c card, brands []string) (*models.RawListing, error) {
	title := scraper.NormalizeText(doc.Find("h1").First().Text())
	if title == "" {
		// fall back to the <title> tag minus the shop suffix
		title = scraper.NormalizeText(strings.SplitN(doc.Find("title").Text(), "|", 2)[0])
	}
	if title == "" {
		return nil, fmt.Errorf("no product title found")
	}

	brand := detectBrand(doc, brands)
	model := title
	if brand == "" {
		brand, model = scraper.SplitTitle(title, brands)
	} else {
		model = stripBrand(title, brand)
	}

	return &models.RawListing{
		Shop:      models.ShopBurosports,
		Title:     title,
		Brand:     brand,
		Model:     model,
		Condition: "new",
		Price:     c.price,
		OrigPrice: c.origPrice,
		Lengths:   extractSizes(doc),
		URL:       c.url,
	}, nil
}

// detectBrand matches the page <title> against the controlled brand list.
func detectBrand(doc *goquery.Document, brands []string) string {
	pageTitle := strings.ToLower(doc.Find("title").Text())
	for _, b := range brands {
		if strings.Contains(pageTitle, strings.ToLower(b)) {
			return b
		}
	}
	return ""
}

func stripBrand(title, brand string) string {
	model := title
	if idx := strings.Index(strings.ToLower(title), strings.ToLower(brand)); idx >= 0 {
		model = title[:idx] + title[idx+len(brand):]
	}
	model = scraper.NormalizeText(model)
	if model == "" {
		return title
	}
	return model
}

// extractSizes finds the "Size: ..." run in the product description and
// returns the numbers in it as raw size strings.
func extractSizes(doc *goquery.Document) []string {
	text := scraper.NormalizeText(doc.Find("body").Text())
	m := sizeBlockRegexp.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	return digitsRegexp.FindAllString(m[1], -1)
}
