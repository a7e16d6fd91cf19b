package config

import "time"

// Config is the root configuration for a pricewatch run.
type Config struct {
	Product ProductConfig `yaml:"product"`
	Scraper ScraperConfig `yaml:"scraper"`
	History HistoryConfig `yaml:"history"`
	Alert   AlertConfig   `yaml:"alert"`
	Log     LogConfig     `yaml:"log"`
}

// ProductConfig identifies the watched product.
type ProductConfig struct {
	ID          string `yaml:"id"`
	URLTemplate string `yaml:"url_template"` // must contain exactly one %s
}

// ScraperConfig controls how the product page is fetched and read.
type ScraperConfig struct {
	Selector           string        `yaml:"selector"`
	SelectorKind       string        `yaml:"selector_kind"` // css or xpath
	UserAgent          string        `yaml:"user_agent"`
	Proxy              string        `yaml:"proxy"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	Timeout            time.Duration `yaml:"timeout"`
	GroupingSeparators string        `yaml:"grouping_separators"`
}

// HistoryConfig locates the price history file.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// AlertConfig holds Pushover settings.
type AlertConfig struct {
	Enabled *bool         `yaml:"enabled"`
	APIURL  string        `yaml:"api_url"`
	Token   string        `yaml:"token"`
	User    string        `yaml:"user"`
	Title   string        `yaml:"title"`
	Timeout time.Duration `yaml:"timeout"`
}

// IsEnabled reports whether alerts are delivered; unset means enabled.
func (a AlertConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// LogConfig controls the stderr log and the optional log file.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"` // text or json
	File      string `yaml:"file"`
	FileLevel string `yaml:"file_level"`
}
