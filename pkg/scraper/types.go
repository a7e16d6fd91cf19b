package scraper

import (
	"context"
	"fmt"
	"net/http"
)

// Fetcher retrieves the document at url as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Selector returns the text of the first element in doc matching expr.
// found is false when nothing matches; err is reserved for an expr that
// cannot be evaluated or a doc that cannot be parsed.
type Selector interface {
	Select(doc string, expr string) (text string, found bool, err error)
}

// FetchError reports a failure to retrieve the product page: a transport
// error or a non-2xx response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %q: status %d %s: %v", e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Err)
	}
	return fmt.Sprintf("fetch %q: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PriceNotFoundError means the page was fetched but the price element was
// missing, which usually means the page layout changed.
type PriceNotFoundError struct {
	URL      string
	Selector string
}

func (e *PriceNotFoundError) Error() string {
	return fmt.Sprintf("couldn't find price in %s (selector %q)", e.URL, e.Selector)
}

// PriceFormatError means the price element was found but its text is not a
// non-negative integer.
type PriceFormatError struct {
	URL  string
	Text string
	Err  error
}

func (e *PriceFormatError) Error() string {
	return fmt.Sprintf("unparsable price %q in %s: %v", e.Text, e.URL, e.Err)
}

func (e *PriceFormatError) Unwrap() error {
	return e.Err
}
