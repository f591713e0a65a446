package fetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/renbrahe/parsing-ski/config"
	"github.com/renbrahe/parsing-ski/utils"
)

// BrowserFetcher drives a headless Chrome for storefronts that render
// their catalog with JavaScript. Each Fetch runs in a fresh tab against a
// shared allocator.
type BrowserFetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
}

// NewBrowserFetcher builds a chromedp-backed fetcher.
func NewBrowserFetcher(cfg *config.Config, logger *utils.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// Fetch renders url in a headless browser and returns the settled DOM.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	return f.fetch(ctx, url, 0, "")
}

// FetchExpanded renders url and clicks the button whose text contains
// buttonText up to maxClicks times before capturing the DOM. Used for
// "Load More" style catalogs.
func (f *BrowserFetcher) FetchExpanded(ctx context.Context, url, buttonText string, maxClicks int) (*goquery.Document, error) {
	return f.fetch(ctx, url, maxClicks, buttonText)
}

func (f *BrowserFetcher) fetch(ctx context.Context, url string, maxClicks int, buttonText string) (*goquery.Document, error) {
	var doc *goquery.Document

	err := f.retry.Do("browser-fetch", func() error {
		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
		defer cancelAlloc()

		tabCtx, cancelTab := chromedp.NewContext(allocCtx,
			chromedp.WithLogf(func(string, ...interface{}) {}))
		defer cancelTab()

		tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 90*time.Second)
		defer cancelTimeout()

		if err := chromedp.Run(tabCtx,
			chromedp.Navigate(url),
			chromedp.Sleep(3*time.Second),
		); err != nil {
			return fmt.Errorf("navigate %q: %w", url, err)
		}

		for click := 0; click < maxClicks; click++ {
			var clicked bool
			err := chromedp.Run(tabCtx,
				chromedp.Evaluate(clickButtonScript(buttonText), &clicked),
				chromedp.Sleep(1500*time.Millisecond),
			)
			if err != nil {
				return fmt.Errorf("click %q: %w", buttonText, err)
			}
			if !clicked {
				break
			}
			f.logger.Debug("[browser] clicked %q (%d/%d)", buttonText, click+1, maxClicks)
		}

		var html string
		if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html)); err != nil {
			return fmt.Errorf("capture dom %q: %w", url, err)
		}

		parsed, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return fmt.Errorf("parse dom %q: %w", url, err)
		}
		doc = parsed
		return nil
	})

	return doc, err
}

func (f *BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if bin := f.findChromeBinary(); bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	return opts
}

// clickButtonScript returns JS that clicks the first enabled button whose
// text contains wanted, reporting whether anything was clicked.
func clickButtonScript(wanted string) string {
	return `(function() {
		var wanted = ` + strconv.Quote(strings.ToLower(wanted)) + `;
		var buttons = document.querySelectorAll('button');
		for (var i = 0; i < buttons.length; i++) {
			var b = buttons[i];
			var text = (b.textContent || '').toLowerCase();
			if (text.indexOf(wanted) !== -1 && !b.disabled) {
				b.click();
				return true;
			}
		}
		return false;
	})()`
}

// findChromeBinary locates a Chrome/Chromium binary.
func (f *BrowserFetcher) findChromeBinary() string {
	if f.cfg.ChromeBin != "" {
		return f.cfg.ChromeBin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
