package scraper

import (
	"context"
	"fmt"
	"strings"

	"coffeescraper/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// SelectorScraper reads the price from static markup with a structural
// locator, for shops that render the price server side.
type SelectorScraper struct {
	url       string
	locator   Locator
	selector  string
	normalize Normalizer
	client    *resty.Client
	detector  *BotDetector
}

// NewSelectorScraper rejects XPath locators, which goquery cannot evaluate.
func NewSelectorScraper(client *resty.Client, url string, locator Locator, normalize Normalizer) (*SelectorScraper, error) {
	if err := locator.Validate(); err != nil {
		return nil, err
	}
	selector, err := locator.Selector()
	if err != nil {
		return nil, err
	}
	if normalize == nil {
		normalize = Identity
	}
	return &SelectorScraper{
		url:       url,
		locator:   locator,
		selector:  selector,
		normalize: normalize,
		client:    client,
		detector:  NewBotDetector(),
	}, nil
}

func (s *SelectorScraper) URL() string { return s.url }

func (s *SelectorScraper) Scrape(ctx context.Context) (models.Observation, error) {
	body, err := fetch(ctx, s.client, s.url)
	if err != nil {
		return models.Observation{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return models.Observation{}, &PriceNotFoundError{URL: s.url, Reason: err.Error()}
	}

	sel := doc.Find(s.selector).First()
	if sel.Length() == 0 {
		reason := s.detector.Explain(body)
		if reason == "" {
			reason = fmt.Sprintf("no element matches %s", s.locator)
		}
		return models.Observation{}, &PriceNotFoundError{URL: s.url, Reason: reason}
	}

	raw := sel.Text()
	if s.locator.Attr != "" {
		value, ok := sel.Attr(s.locator.Attr)
		if !ok {
			return models.Observation{}, &PriceNotFoundError{
				URL:    s.url,
				Reason: fmt.Sprintf("element %s has no attribute %q", s.locator, s.locator.Attr),
			}
		}
		raw = value
	}

	return observe(s.url, raw, s.normalize)
}
