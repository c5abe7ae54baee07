package config

import (
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() {
	c.SessionsDir = expandPath(orDefault(c.SessionsDir, defaultSessionsDir))
	c.DatabaseDir = expandPath(orDefault(c.DatabaseDir, defaultDatabaseDir))
	c.ReportDir = expandPath(orDefault(c.ReportDir, defaultReportDir))
	c.LogDir = expandPath(orDefault(c.LogDir, defaultLogDir))

	c.LogLevel = strings.ToLower(strings.TrimSpace(orDefault(c.LogLevel, defaultLogLevel)))
	c.LogFormat = strings.ToLower(strings.TrimSpace(orDefault(c.LogFormat, defaultLogFormat)))

	if c.Supervisor.ReconnectDelay <= 0 {
		c.Supervisor.ReconnectDelay = defaultReconnectDelay
	}
	if c.Supervisor.ConnectTimeout <= 0 {
		c.Supervisor.ConnectTimeout = defaultConnectTimeout
	}
	if c.Access.CooldownSeconds <= 0 {
		c.Access.CooldownSeconds = defaultCooldownSeconds
	}
	if c.Access.PremiumSweep <= 0 {
		c.Access.PremiumSweep = defaultPremiumSweep
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
	if c.Mail.Port <= 0 {
		c.Mail.Port = defaultMailPort
	}
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Mail.Host = strings.TrimSpace(orDefault(c.Mail.Host, defaultMailHost))
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func expandPath(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return trimmed
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
		}
	}
	return filepath.Clean(trimmed)
}
