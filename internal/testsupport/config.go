// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"gallerydl/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DownloadDir = filepath.Join(base, "downloads")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ExportDir = filepath.Join(base, "exports")
	cfg.Paths.Socket = filepath.Join(base, "gallerydld.sock")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithQueueSettings overrides the [queue] section on the test config.
func WithQueueSettings(q config.Queue) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Queue = q
	}
}
