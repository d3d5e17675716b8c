package scraper

import (
	"errors"
	"fmt"
)

var (
	// ErrFetchFailed matches any error raised while retrieving a page.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrPriceNotFound matches any error raised when a page was retrieved
	// but no usable price could be read from it.
	ErrPriceNotFound = errors.New("price not found")
)

// FetchError is returned when a page could not be retrieved.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

// PriceNotFoundError is returned when no match or element was found, or
// when the matched text did not normalize to a number.
type PriceNotFoundError struct {
	URL    string
	Reason string
}

func (e *PriceNotFoundError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("no price found in %s", e.URL)
	}
	return fmt.Sprintf("no price found in %s: %s", e.URL, e.Reason)
}

func (e *PriceNotFoundError) Is(target error) bool { return target == ErrPriceNotFound }
