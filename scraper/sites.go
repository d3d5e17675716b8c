package scraper

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/titanous/json5"
)

// Site describes one watched product page: either a price pattern applied
// to the raw markup, or a locator applied to the static or rendered DOM.
type Site struct {
	Name      string   `json:"name"`
	URL       string   `json:"url"`
	Pattern   string   `json:"pattern,omitempty"`
	Locator   *Locator `json:"locator,omitempty"`
	Render    bool     `json:"render,omitempty"`
	Normalize string   `json:"normalize,omitempty"`
}

const metaPriceAmount = `<meta property="product:price:amount" content="(?P<price>\d+\.\d+)"/>`

// DefaultSites is the registry of Dolce Gusto Lungo XL offers.
var DefaultSites = []Site{
	{
		Name:    "koffiehenk",
		URL:     "https://www.koffiehenk.nl/dolce-gusto-lungo-xl",
		Pattern: metaPriceAmount,
	},
	{
		Name:    "coffeepoddeals",
		URL:     "https://www.coffeepoddeals.com/capsules-dolce-gusto-lungo-xl",
		Pattern: metaPriceAmount,
	},
	{
		Name:    "deprijshamer",
		URL:     "https://www.deprijshamer.nl/koffie/cups/dolce-gusto-lungo-xl",
		Pattern: `'value':\s+(?P<price>\d+\.\d+),`,
	},
	{
		Name:    "dolce-gusto",
		URL:     "https://www.dolce-gusto.nl/koffiesmaken/lungo-xl",
		Pattern: metaPriceAmount,
	},
	{
		Name:      "koffievoordeel",
		URL:       "https://www.koffievoordeel.nl/dolce-gusto-capsules-cafe-lungo-xl",
		Pattern:   `<meta property="bc:current_price" content="(?P<price>\d+\,\d+)"/>`,
		Normalize: "comma-decimal",
	},
	{
		Name:      "jumbo",
		URL:       "https://www.jumbo.com/producten/nescafe-dolce-gusto-lungo-capsules-30-koffiecups-352850DS",
		Locator:   &Locator{By: ByClassName, Value: "current-price"},
		Render:    true,
		Normalize: "cents",
	},
}

// LoadSites reads a JSON5 list of sites and validates every entry.
func LoadSites(path string) ([]Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}

	var sites []Site
	if err := json5.Unmarshal(data, &sites); err != nil {
		return nil, fmt.Errorf("parse sites file %s: %w", path, err)
	}
	if len(sites) == 0 {
		return nil, fmt.Errorf("sites file %s lists no sites", path)
	}
	for i, site := range sites {
		if err := site.Validate(); err != nil {
			return nil, fmt.Errorf("site %d (%s): %w", i, site.Name, err)
		}
	}
	return sites, nil
}

// Validate checks that the site can be turned into a Scraper.
func (s Site) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("missing url")
	}
	hasPattern := s.Pattern != ""
	hasLocator := s.Locator != nil
	switch {
	case hasPattern && hasLocator:
		return fmt.Errorf("both pattern and locator given")
	case !hasPattern && !hasLocator:
		return fmt.Errorf("neither pattern nor locator given")
	case hasPattern && s.Render:
		return fmt.Errorf("render requires a locator")
	}
	if _, err := NormalizerByName(s.Normalize); err != nil {
		return err
	}
	if hasPattern {
		_, err := CompilePricePattern(s.Pattern)
		return err
	}
	if err := s.Locator.Validate(); err != nil {
		return err
	}
	if !s.Render && s.Locator.By == ByXPath {
		return fmt.Errorf("xpath locators require render")
	}
	return nil
}

// Factory builds scrapers that share one HTTP client and browser setup.
type Factory struct {
	Client  *resty.Client
	Browser BrowserOptions
}

// NewFactory returns a Factory with a client using the given timeout.
func NewFactory(httpTimeout time.Duration, browser BrowserOptions) *Factory {
	return &Factory{
		Client:  NewHTTPClient(httpTimeout),
		Browser: browser,
	}
}

// Build picks the scraper implementation that fits the site definition.
func (f *Factory) Build(site Site) (Scraper, error) {
	if err := site.Validate(); err != nil {
		return nil, fmt.Errorf("site %s: %w", site.Name, err)
	}
	normalize, _ := NormalizerByName(site.Normalize)

	switch {
	case site.Pattern != "":
		return NewRegexScraper(f.Client, site.URL, site.Pattern, normalize)
	case site.Render:
		return NewBrowserScraper(site.URL, *site.Locator, normalize, f.Browser)
	default:
		return NewSelectorScraper(f.Client, site.URL, *site.Locator, normalize)
	}
}

// BuildAll builds a scraper for every site, in order.
func (f *Factory) BuildAll(sites []Site) ([]Scraper, error) {
	scrapers := make([]Scraper, 0, len(sites))
	for _, site := range sites {
		s, err := f.Build(site)
		if err != nil {
			return nil, err
		}
		scrapers = append(scrapers, s)
	}
	return scrapers, nil
}
