// Package config loads, normalizes, and validates gallerydl's TOML
// configuration. Defaults live in defaults.go; path expansion and the
// embedded sample are in config.go.
package config
