package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"coffeescraper/models"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

const systemChromium = "/usr/bin/chromium-browser"

// BrowserOptions configures the headless Chromium used by BrowserScraper.
type BrowserOptions struct {
	// Bin is the browser executable; empty means the system Chromium when
	// present, otherwise whatever rod detects or downloads.
	Bin     string
	Timeout time.Duration
}

// BrowserScraper renders the page in headless Chromium and reads the price
// from the element named by its locator.
type BrowserScraper struct {
	url       string
	locator   Locator
	normalize Normalizer
	opts      BrowserOptions
}

// NewBrowserScraper validates the locator and returns a scraper for url.
func NewBrowserScraper(url string, locator Locator, normalize Normalizer, opts BrowserOptions) (*BrowserScraper, error) {
	if err := locator.Validate(); err != nil {
		return nil, err
	}
	if normalize == nil {
		normalize = Identity
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &BrowserScraper{
		url:       url,
		locator:   locator,
		normalize: normalize,
		opts:      opts,
	}, nil
}

func (s *BrowserScraper) URL() string { return s.url }

// Scrape launches a browser for this page only and closes it afterwards.
func (s *BrowserScraper) Scrape(ctx context.Context) (models.Observation, error) {
	browser, cleanup, err := launchBrowser(ctx, s.opts.Bin)
	if err != nil {
		return models.Observation{}, &FetchError{URL: s.url, Err: err}
	}
	defer cleanup()

	pageCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return models.Observation{}, &FetchError{URL: s.url, Err: err}
	}
	defer page.Close()
	page = page.Context(pageCtx)

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: UserAgent}); err != nil {
		return models.Observation{}, &FetchError{URL: s.url, Err: err}
	}
	if err := page.Navigate(s.url); err != nil {
		return models.Observation{}, &FetchError{URL: s.url, Err: err}
	}
	if err := page.WaitLoad(); err != nil {
		return models.Observation{}, &FetchError{URL: s.url, Err: err}
	}
	slog.Debug("page rendered", "url", s.url)

	raw, err := s.readElement(page)
	if err != nil {
		if ctx.Err() != nil {
			// cancelled by the caller, not a missing element
			return models.Observation{}, &FetchError{URL: s.url, Err: ctx.Err()}
		}
		return models.Observation{}, &PriceNotFoundError{URL: s.url, Reason: err.Error()}
	}

	return observe(s.url, raw, s.normalize)
}

// readElement waits for the located element until the page deadline.
func (s *BrowserScraper) readElement(page *rod.Page) (string, error) {
	var (
		el  *rod.Element
		err error
	)
	if s.locator.By == ByXPath {
		el, err = page.ElementX(s.locator.Value)
	} else {
		var selector string
		selector, err = s.locator.Selector()
		if err != nil {
			return "", err
		}
		el, err = page.Element(selector)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("element %s did not appear", s.locator)
		}
		return "", err
	}

	if s.locator.Attr != "" {
		value, err := el.Attribute(s.locator.Attr)
		if err != nil {
			return "", err
		}
		if value == nil {
			return "", fmt.Errorf("element %s has no attribute %q", s.locator, s.locator.Attr)
		}
		return *value, nil
	}
	return el.Text()
}

// launchBrowser starts a headless Chromium bound to ctx. The returned
// cleanup closes the browser and removes its profile directory.
func launchBrowser(ctx context.Context, bin string) (*rod.Browser, func(), error) {
	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage")

	switch {
	case bin != "":
		l = l.Bin(bin)
	default:
		if _, err := os.Stat(systemChromium); err == nil {
			l = l.Bin(systemChromium)
		}
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, nil, fmt.Errorf("connect to browser: %w", err)
	}

	return browser, func() {
		shutdownBrowser(browser.Close, l.Kill, l.Cleanup)
	}, nil
}

// shutdownBrowser closes the browser and removes its profile. A browser
// that does not close, for instance because its context is already
// cancelled, is killed so no Chromium process outlives the scrape.
func shutdownBrowser(closeBrowser func() error, kill, cleanup func()) {
	if err := closeBrowser(); err != nil {
		slog.Warn("failed to close browser, killing it", "error", err)
		kill()
	}
	cleanup()
}
