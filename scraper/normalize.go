package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Normalizer maps the raw text matched on a page to a string that
// strconv.ParseFloat accepts.
type Normalizer func(raw string) string

// Identity leaves the matched text untouched.
func Identity(raw string) string { return raw }

// CommaDecimal turns a decimal comma into a decimal point: 3,66 -> 3.66
func CommaDecimal(raw string) string {
	return strings.ReplaceAll(raw, ",", ".")
}

// Cents handles prices rendered as whole cents with the euro and cent parts
// split by whitespace, e.g. "3 66" -> 3.66
func Cents(raw string) string {
	stripped := stripSpace(raw)
	cents, err := strconv.ParseFloat(stripped, 64)
	if err != nil {
		// left for the caller to reject
		return stripped
	}
	return strconv.FormatFloat(cents/100, 'f', -1, 64)
}

// Locale detects US and European separator conventions.
func Locale(raw string) string {
	value, _, err := defaultLocaleParser.ParsePrice(raw)
	if err != nil {
		return raw
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

var normalizers = map[string]Normalizer{
	"":              Identity,
	"identity":      Identity,
	"comma-decimal": CommaDecimal,
	"cents":         Cents,
	"locale":        Locale,
}

// NormalizerByName resolves the normalizer names used in site files.
func NormalizerByName(name string) (Normalizer, error) {
	n, ok := normalizers[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown normalizer %q", name)
	}
	return n, nil
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

var defaultLocaleParser = NewLocaleParser()

// LocaleParser handles number formats from different regions
type LocaleParser struct {
	number   *regexp.Regexp
	currency *regexp.Regexp
}

// NewLocaleParser creates a new locale-aware parser
func NewLocaleParser() *LocaleParser {
	return &LocaleParser{
		// digits with optional '.', ',' or space group separators
		number:   regexp.MustCompile(`[0-9](?:[0-9.,\s\x{00a0}]*[0-9])?`),
		currency: regexp.MustCompile(`[$£€]`),
	}
}

// ParsePrice finds the first number in text and converts it to a float,
// treating the last separator as decimal mark unless it groups exactly
// three digits and is the only kind of separator present.
func (lp *LocaleParser) ParsePrice(text string) (float64, string, error) {
	text = strings.TrimSpace(text)

	token := lp.number.FindString(text)
	if token == "" {
		return 0, "", fmt.Errorf("no valid price pattern found in: %s", text)
	}
	currency := lp.currency.FindString(text)

	value, err := strconv.ParseFloat(lp.cleanNumberString(stripSpace(token)), 64)
	if err != nil {
		return 0, "", fmt.Errorf("no valid price pattern found in: %s", text)
	}
	return value, currency, nil
}

// cleanNumberString converts locale-specific number formats to standard decimal
func (lp *LocaleParser) cleanNumberString(number string) string {
	last := strings.LastIndexAny(number, ".,")
	if last < 0 {
		return number
	}

	sep := number[last]
	other := byte(',')
	if sep == ',' {
		other = '.'
	}
	mixed := strings.IndexByte(number, other) >= 0
	decimals := len(number) - last - 1
	repeated := strings.Count(number, string(sep)) > 1

	if !mixed && (decimals == 3 || repeated) {
		// 1,234 or 1.234.567: grouping only
		return strings.NewReplacer(".", "", ",", "").Replace(number)
	}

	intPart := strings.NewReplacer(".", "", ",", "").Replace(number[:last])
	return intPart + "." + number[last+1:]
}
