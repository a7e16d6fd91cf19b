package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/geniass/pricewatch/pkg/scraper"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Product.ID == "" {
		return errors.New("product.id is required")
	}
	if n := strings.Count(c.Product.URLTemplate, "%s"); n != 1 {
		return fmt.Errorf("product.url_template must contain exactly one %%s, found %d", n)
	}
	if err := validateHTTPURL(strings.Replace(c.Product.URLTemplate, "%s", "x", 1)); err != nil {
		return fmt.Errorf("product.url_template: %w", err)
	}

	if c.Scraper.Selector == "" {
		return errors.New("scraper.selector is required")
	}
	if _, err := scraper.NewSelector(c.Scraper.SelectorKind); err != nil {
		return fmt.Errorf("scraper.selector_kind: %w", err)
	}
	if c.Scraper.Proxy != "" {
		if err := validateHTTPURL(c.Scraper.Proxy); err != nil {
			return fmt.Errorf("scraper.proxy: %w", err)
		}
	}
	if c.Scraper.Timeout < 0 {
		return fmt.Errorf("scraper.timeout must be >= 0, got %v", c.Scraper.Timeout)
	}

	if c.History.Path == "" {
		return errors.New("history.path is required")
	}

	if c.Alert.IsEnabled() {
		if c.Alert.Token == "" {
			return errors.New("alert.token is required (set PUSHOVER_TOKEN)")
		}
		if c.Alert.User == "" {
			return errors.New("alert.user is required (set PUSHOVER_USER)")
		}
		if err := validateHTTPURL(c.Alert.APIURL); err != nil {
			return fmt.Errorf("alert.api_url: %w", err)
		}
	}
	if c.Alert.Timeout < 0 {
		return fmt.Errorf("alert.timeout must be >= 0, got %v", c.Alert.Timeout)
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, err := ParseLevel(c.Log.FileLevel); err != nil {
		return fmt.Errorf("log.file_level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// ParseLevel maps debug, info, warn/warning and error to slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if strings.EqualFold(s, "warning") {
		s = "warn"
	}
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown level %q", s)
	}
	return l, nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must be an http or https url", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%q has no host", raw)
	}
	return nil
}
