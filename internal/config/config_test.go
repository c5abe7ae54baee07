package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"numcheck/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.Supervisor.ReconnectDelay != 3 {
		t.Fatalf("expected default reconnect delay 3, got %d", cfg.Supervisor.ReconnectDelay)
	}
	if strings.Contains(cfg.SessionsDir, "~") {
		t.Fatalf("expected expanded sessions dir, got %q", cfg.SessionsDir)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")
	if _, _, err := config.Load(missing); err == nil {
		t.Fatal("expected error for explicit missing config path")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
sessions_dir = "` + filepath.Join(dir, "sessions") + `"
database_dir = "` + filepath.Join(dir, "db") + `"
log_level = "debug"

[supervisor]
reconnect_delay = 7

[notifications]
ntfy_topic = "https://ntfy.sh/numcheck-test"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level debug, got %q", cfg.LogLevel)
	}
	if cfg.Supervisor.ReconnectDelay != 7 {
		t.Fatalf("expected reconnect delay 7, got %d", cfg.Supervisor.ReconnectDelay)
	}
	if cfg.Notifications.NtfyTopic == "" {
		t.Fatal("expected ntfy topic to survive load")
	}
}

func TestValidateRejectsBadLogFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("log_format = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for log_format")
	}
}

func TestValidateRejectsPartialMailCredentials(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[mail]\nusername = \"bot@example.com\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for partial mail credentials")
	}
}

func TestWriteSampleRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := config.WriteSample(path); err != nil {
		t.Fatalf("WriteSample failed: %v", err)
	}
	if err := config.WriteSample(path); err == nil {
		t.Fatal("expected overwrite refusal")
	}
}
