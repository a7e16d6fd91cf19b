// Package config loads pricewatch settings.
//
// Settings come from an optional YAML file that supports ${VAR} environment
// interpolation, then from the environment (PUSHOVER_TOKEN, PUSHOVER_USER,
// PROXY), then from defaults. A .env file is loaded into the environment
// first when present.
package config
