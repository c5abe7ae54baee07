package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SessionsDir string `toml:"sessions_dir"`
	DatabaseDir string `toml:"database_dir"`
	ReportDir   string `toml:"report_dir"`
	LogDir      string `toml:"log_dir"`
}

// Logging contains log output configuration.
type Logging struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// Supervisor contains connection supervision timing.
type Supervisor struct {
	ReconnectDelay int `toml:"reconnect_delay"` // seconds between failover attempts
	ConnectTimeout int `toml:"connect_timeout"` // seconds to wait for a handshake
}

// Access contains operator access and cooldown configuration.
type Access struct {
	OwnerID         string `toml:"owner_id"`
	CooldownSeconds int    `toml:"cooldown_seconds"`
	PremiumSweep    int    `toml:"premium_sweep_minutes"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	SessionEvents  bool   `toml:"session_events"`
	JobEvents      bool   `toml:"job_events"`
	Errors         bool   `toml:"errors"`
}

// Mail contains the fallback SMTP sender used for appeal emails.
type Mail struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Config is the root numcheck configuration document.
type Config struct {
	Paths
	Logging
	Supervisor    Supervisor    `toml:"supervisor"`
	Access        Access        `toml:"access"`
	Notifications Notifications `toml:"notifications"`
	Mail          Mail          `toml:"mail"`
}

// DefaultConfigPath returns the preferred config file location.
func DefaultConfigPath() string {
	return expandPath("~/.config/numcheck/config.toml")
}

// Load reads configuration from the provided path, falling back to the
// default location. A missing file yields defaults. The resolved path is
// returned alongside the config.
func Load(path string) (*Config, string, error) {
	resolved := path
	if resolved == "" {
		resolved = DefaultConfigPath()
	}
	resolved = expandPath(resolved)

	cfg := Default()
	data, err := os.ReadFile(resolved)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if path != "" {
			return nil, resolved, fmt.Errorf("config file not found: %s", resolved)
		}
	default:
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

// WriteSample writes the embedded sample configuration to path, refusing to
// overwrite an existing file.
func WriteSample(path string) error {
	path = expandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates every directory the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.SessionsDir, c.DatabaseDir, c.ReportDir, c.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.LogDir, "numcheckd.sock")
}
