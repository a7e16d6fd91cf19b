package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultURLTemplate = "https://www.amazon.fr/dp/%s"
	// DefaultSelector marks the integer part of the displayed price.
	DefaultSelector = "span.a-price-whole"
	// DefaultGroupingSeparators covers thousands separators and the trailing
	// decimal mark rendered inside the integer part.
	DefaultGroupingSeparators = ",. \u00a0\u202f"
)

var errNotDigits = errors.New("not a non-negative integer")

// PriceScraper turns a product identifier into the currently displayed price.
type PriceScraper struct {
	fetcher     Fetcher
	selector    Selector
	urlTemplate string
	expr        string
	separators  string
	logger      *slog.Logger
}

// Option configures a PriceScraper.
type Option func(*PriceScraper)

// WithURLTemplate sets the product page template; it must contain one %s.
func WithURLTemplate(tpl string) Option {
	return func(s *PriceScraper) {
		s.urlTemplate = tpl
	}
}

// WithSelectorExpr sets the expression handed to the Selector.
func WithSelectorExpr(expr string) Option {
	return func(s *PriceScraper) {
		s.expr = expr
	}
}

// WithGroupingSeparators sets the characters stripped from the price text.
func WithGroupingSeparators(seps string) Option {
	return func(s *PriceScraper) {
		s.separators = seps
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *PriceScraper) {
		s.logger = logger
	}
}

func NewPriceScraper(fetcher Fetcher, selector Selector, opts ...Option) *PriceScraper {
	s := &PriceScraper{
		fetcher:     fetcher,
		selector:    selector,
		urlTemplate: DefaultURLTemplate,
		expr:        DefaultSelector,
		separators:  DefaultGroupingSeparators,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TargetURL builds the product page URL for productID.
func (s *PriceScraper) TargetURL(productID string) string {
	return fmt.Sprintf(s.urlTemplate, url.PathEscape(productID))
}

// FetchPrice fetches the product page and extracts its price.
func (s *PriceScraper) FetchPrice(ctx context.Context, productID string) (int64, error) {
	if productID == "" {
		return 0, errors.New("empty product id")
	}
	target := s.TargetURL(productID)

	doc, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: target, Err: err}
		}
		return 0, err
	}

	return s.ExtractPrice(target, doc)
}

// ExtractPrice reads the price out of an already fetched document.
func (s *PriceScraper) ExtractPrice(target, doc string) (int64, error) {
	text, found, err := s.selector.Select(doc, s.expr)
	if err != nil {
		return 0, fmt.Errorf("select price in %s: %w", target, err)
	}
	if !found {
		return 0, &PriceNotFoundError{URL: target, Selector: s.expr}
	}

	price, err := ParsePrice(text, s.separators)
	if err != nil {
		return 0, &PriceFormatError{URL: target, Text: text, Err: err}
	}

	s.logger.Debug("found price", "url", target, "text", text, "price", price)
	return price, nil
}

// ParsePrice strips every rune of separators from text and parses the rest
// as a non-negative base-10 integer. The number is taken literally; no
// currency unit is inferred.
func ParsePrice(text, separators string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(separators, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(text))

	if cleaned == "" {
		return 0, errNotDigits
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return 0, errNotDigits
		}
	}
	return strconv.ParseInt(cleaned, 10, 64)
}
