package config

import (
	"github.com/geniass/pricewatch/pkg/alert"
	"github.com/geniass/pricewatch/pkg/scraper"
)

// Default values for optional configuration fields.
const (
	DefaultProductID    = "B0B46N7QQL"
	DefaultURLTemplate  = scraper.DefaultURLTemplate
	DefaultSelector     = scraper.DefaultSelector
	DefaultSelectorKind = scraper.SelectorCSS
	DefaultUserAgent    = scraper.DefaultUserAgent
	DefaultSeparators   = scraper.DefaultGroupingSeparators
	DefaultHistoryPath  = "price.json"
	DefaultAlertURL     = alert.DefaultPushoverURL
	DefaultLogLevel     = "debug"
	DefaultLogFormat    = "text"
	DefaultLogFileLevel = "warn"
)

func (c *Config) applyDefaults() {
	if c.Product.ID == "" {
		c.Product.ID = DefaultProductID
	}
	if c.Product.URLTemplate == "" {
		c.Product.URLTemplate = DefaultURLTemplate
	}

	if c.Scraper.Selector == "" {
		c.Scraper.Selector = DefaultSelector
	}
	if c.Scraper.SelectorKind == "" {
		c.Scraper.SelectorKind = DefaultSelectorKind
	}
	if c.Scraper.UserAgent == "" {
		c.Scraper.UserAgent = DefaultUserAgent
	}
	if c.Scraper.GroupingSeparators == "" {
		c.Scraper.GroupingSeparators = DefaultSeparators
	}

	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}

	if c.Alert.APIURL == "" {
		c.Alert.APIURL = DefaultAlertURL
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Log.FileLevel == "" {
		c.Log.FileLevel = DefaultLogFileLevel
	}
}
