package scraper

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
)

// Selector kinds accepted by NewSelector.
const (
	SelectorCSS   = "css"
	SelectorXPath = "xpath"
)

// NewSelector returns the Selector for kind.
func NewSelector(kind string) (Selector, error) {
	switch kind {
	case SelectorCSS, "":
		return CSSSelector{}, nil
	case SelectorXPath:
		return XPathSelector{}, nil
	default:
		return nil, fmt.Errorf("unknown selector kind %q", kind)
	}
}

// CSSSelector matches CSS selectors with goquery.
type CSSSelector struct{}

func (CSSSelector) Select(doc string, expr string) (string, bool, error) {
	// goquery silently matches nothing on a bad selector
	if _, err := cascadia.Compile(expr); err != nil {
		return "", false, fmt.Errorf("invalid css selector %q: %w", expr, err)
	}

	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return "", false, fmt.Errorf("parse html: %w", err)
	}

	sel := d.Find(expr).First()
	if sel.Length() == 0 {
		return "", false, nil
	}
	return sel.Text(), true, nil
}

// XPathSelector matches XPath expressions with htmlquery.
type XPathSelector struct{}

func (XPathSelector) Select(doc string, expr string) (string, bool, error) {
	root, err := htmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return "", false, fmt.Errorf("parse html: %w", err)
	}

	n, err := htmlquery.Query(root, expr)
	if err != nil {
		return "", false, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}
	if n == nil {
		return "", false, nil
	}
	return htmlquery.InnerText(n), true, nil
}
