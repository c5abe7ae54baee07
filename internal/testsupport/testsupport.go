// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"numcheck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.SessionsDir = filepath.Join(base, "sessions")
	cfg.DatabaseDir = filepath.Join(base, "database")
	cfg.ReportDir = filepath.Join(base, "reports")
	cfg.LogDir = filepath.Join(base, "logs")
	cfg.Access.OwnerID = "628000000000"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure test directories: %v", err)
	}
	return &cfg
}

// WithOwner overrides the owner identifier on the test config.
func WithOwner(id string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Access.OwnerID = id
	}
}

// WithNtfyTopic enables notifications on the test config.
func WithNtfyTopic(topic string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Notifications.NtfyTopic = topic
	}
}
