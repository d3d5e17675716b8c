package scraper

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/stretchr/testify/require"
)

// browserOptions skips the test unless a local Chromium can be found.
func browserOptions(t *testing.T) BrowserOptions {
	t.Helper()
	if testing.Short() {
		t.Skip("headless browser tests are skipped in short mode")
	}
	bin, ok := launcher.LookPath()
	if !ok {
		t.Skip("no chromium found")
	}
	return BrowserOptions{Bin: bin, Timeout: 5 * time.Second}
}

const renderedPage = `<html><body><div id="app"></div>
<script>
document.getElementById("app").innerHTML = '<span class="current-price">3 66</span>';
</script></body></html>`

func TestBrowserScraperRenderedPrice(t *testing.T) {
	opts := browserOptions(t)
	ts := newTestServer(t, http.StatusOK, renderedPage)

	s, err := NewBrowserScraper(ts.URL, Locator{By: ByClassName, Value: "current-price"}, Cents, opts)
	require.NoError(t, err)

	obs, err := s.Scrape(context.Background())
	require.NoError(t, err)
	require.Equal(t, ts.URL, obs.URL)
	require.Equal(t, 3.66, obs.Price)
}

func TestBrowserScraperXPath(t *testing.T) {
	opts := browserOptions(t)
	ts := newTestServer(t, http.StatusOK, renderedPage)

	s, err := NewBrowserScraper(ts.URL, Locator{By: ByXPath, Value: `//span[@class="current-price"]`}, Cents, opts)
	require.NoError(t, err)

	obs, err := s.Scrape(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3.66, obs.Price)
}

func TestBrowserScraperMissingElement(t *testing.T) {
	opts := browserOptions(t)
	opts.Timeout = 2 * time.Second
	ts := newTestServer(t, http.StatusOK, `<html><body>nothing here</body></html>`)

	s, err := NewBrowserScraper(ts.URL, Locator{By: ByClassName, Value: "current-price"}, Cents, opts)
	require.NoError(t, err)

	_, err = s.Scrape(context.Background())
	require.ErrorIs(t, err, ErrPriceNotFound)
}

func TestShutdownBrowser(t *testing.T) {
	var calls []string
	kill := func() { calls = append(calls, "kill") }
	cleanup := func() { calls = append(calls, "cleanup") }

	shutdownBrowser(func() error { return nil }, kill, cleanup)
	require.Equal(t, []string{"cleanup"}, calls)

	calls = nil
	shutdownBrowser(func() error { return errors.New("context canceled") }, kill, cleanup)
	require.Equal(t, []string{"kill", "cleanup"}, calls)
}
