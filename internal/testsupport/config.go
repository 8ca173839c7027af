package testsupport

import (
	"path/filepath"
	"testing"

	"vink/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.AuditDir = filepath.Join(base, "audit")
	cfg.Paths.MirrorDir = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithMirrorDir points the audit mirror at the given directory.
func WithMirrorDir(dir string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.MirrorDir = dir
	}
}

// WithPendingCapacity overrides the pending buffer size.
func WithPendingCapacity(capacity int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Pipeline.PendingCapacity = capacity
	}
}
