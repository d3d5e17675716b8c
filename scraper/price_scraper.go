package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"coffeescraper/models"

	"github.com/go-resty/resty/v2"
)

// UserAgent is sent with every request so the shops serve their desktop pages.
const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/111.0.0.0 Safari/537.36"

const priceGroup = "price"

// Scraper fetches one page and reads a single price from it.
type Scraper interface {
	URL() string
	Scrape(ctx context.Context) (models.Observation, error)
}

// NewHTTPClient returns the resty client shared by the plain HTTP scrapers.
func NewHTTPClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", UserAgent)
}

// RegexScraper reads the price from the raw markup with a regular
// expression that captures a named group "price".
type RegexScraper struct {
	url       string
	pattern   *regexp.Regexp
	normalize Normalizer
	client    *resty.Client
	detector  *BotDetector
}

// NewRegexScraper compiles pattern and checks that it declares the price group.
func NewRegexScraper(client *resty.Client, url, pattern string, normalize Normalizer) (*RegexScraper, error) {
	re, err := CompilePricePattern(pattern)
	if err != nil {
		return nil, err
	}
	if normalize == nil {
		normalize = Identity
	}
	return &RegexScraper{
		url:       url,
		pattern:   re,
		normalize: normalize,
		client:    client,
		detector:  NewBotDetector(),
	}, nil
}

// CompilePricePattern compiles a price pattern and rejects patterns that do
// not capture the "price" group.
func CompilePricePattern(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid price pattern: %w", err)
	}
	if re.SubexpIndex(priceGroup) < 0 {
		return nil, fmt.Errorf("price pattern %q has no named group %q", pattern, priceGroup)
	}
	return re, nil
}

func (s *RegexScraper) URL() string { return s.url }

// Scrape fetches the page and returns the first match of the pattern.
func (s *RegexScraper) Scrape(ctx context.Context) (models.Observation, error) {
	body, err := fetch(ctx, s.client, s.url)
	if err != nil {
		return models.Observation{}, err
	}

	match := s.pattern.FindStringSubmatch(body)
	if match == nil {
		return models.Observation{}, &PriceNotFoundError{URL: s.url, Reason: s.detector.Explain(body)}
	}

	return observe(s.url, match[s.pattern.SubexpIndex(priceGroup)], s.normalize)
}

// fetch performs a GET and returns the body; transport errors and error
// statuses become a FetchError.
func fetch(ctx context.Context, client *resty.Client, url string) (string, error) {
	resp, err := client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", &FetchError{URL: url, Err: err}
	}
	if resp.IsError() {
		return "", &FetchError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status())}
	}

	slog.Debug("fetched page", "url", url, "status", resp.StatusCode(), "bytes", len(resp.Body()))
	return resp.String(), nil
}

// observe normalizes raw and parses it; any failure is a missing price.
func observe(url, raw string, normalize Normalizer) (models.Observation, error) {
	text := strings.TrimSpace(normalize(raw))
	price, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return models.Observation{}, &PriceNotFoundError{
			URL:    url,
			Reason: fmt.Sprintf("unparseable price %q", raw),
		}
	}
	return models.Observation{URL: url, Price: price}, nil
}
