package scraper

import (
	"fmt"
	"strings"
)

// Strategy names how a Locator identifies an element.
type Strategy string

const (
	ByClassName Strategy = "class name"
	ByID        Strategy = "id"
	ByCSS       Strategy = "css selector"
	ByTagName   Strategy = "tag name"
	ByName      Strategy = "name"
	ByXPath     Strategy = "xpath"
)

// Locator is a structural locator: the element whose text, or whose Attr
// attribute when set, holds the price.
type Locator struct {
	By    Strategy `json:"by"`
	Value string   `json:"value"`
	Attr  string   `json:"attr,omitempty"`
}

func (l Locator) String() string {
	return fmt.Sprintf("%s=%q", l.By, l.Value)
}

// Validate checks the strategy and that a value is present.
func (l Locator) Validate() error {
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("locator %s has no value", l)
	}
	if l.By == ByXPath {
		return nil
	}
	_, err := l.Selector()
	return err
}

// Selector translates the locator into a CSS selector. XPath locators have
// no CSS form.
func (l Locator) Selector() (string, error) {
	v := strings.ReplaceAll(l.Value, `"`, `\"`)
	switch l.By {
	case ByClassName:
		return fmt.Sprintf(`[class~="%s"]`, v), nil
	case ByID:
		return fmt.Sprintf(`[id="%s"]`, v), nil
	case ByName:
		return fmt.Sprintf(`[name="%s"]`, v), nil
	case ByTagName, ByCSS:
		return l.Value, nil
	case ByXPath:
		return "", fmt.Errorf("locator %s cannot be expressed as a css selector", l)
	default:
		return "", fmt.Errorf("unknown locator strategy %q", l.By)
	}
}
