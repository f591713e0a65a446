package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/renbrahe/parsing-ski/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/129.0 Safari/537.36"

// ErrNotFound is returned for 404 responses. Paginating scrapers treat it
// as "no more pages" rather than a failure.
var ErrNotFound = errors.New("fetch: page not found")

// Fetcher retrieves a page and hands it over as a parsed document. Shop
// extractors never talk to the network themselves; they only see the
// documents a Fetcher produced.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// StaticFetcher fetches server-rendered pages over plain HTTP.
// It paces requests so shops are not hammered.
type StaticFetcher struct {
	client *resty.Client

	mu          sync.Mutex
	minInterval time.Duration
	lastRequest time.Time
}

// NewStaticFetcher builds an HTTP fetcher with the configured timeout and
// retry policy.
func NewStaticFetcher(cfg *config.Config) *StaticFetcher {
	client := resty.New().
		SetTimeout(time.Duration(cfg.HTTPTimeoutSec)*time.Second).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(2 * time.Second)

	return &StaticFetcher{
		client:      client,
		minInterval: time.Duration(cfg.RateLimitMs) * time.Millisecond,
	}
}

// Fetch downloads url and parses it into a goquery document.
func (f *StaticFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	f.pace()

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", url, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("fetch %q: %w", url, ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %q: HTTP %d", url, resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("fetch %q: parse html: %w", url, err)
	}
	return doc, nil
}

func (f *StaticFetcher) pace() {
	f.mu.Lock()
	defer f.mu.Unlock()

	elapsed := time.Since(f.lastRequest)
	if elapsed < f.minInterval {
		time.Sleep(f.minInterval - elapsed)
	}
	f.lastRequest = time.Now()
}
