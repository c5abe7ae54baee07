package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("logging.log_format must be console or json, got %q", c.LogFormat)
	}
	if c.SessionsDir == "" {
		return errors.New("paths.sessions_dir must be set")
	}
	if c.DatabaseDir == "" {
		return errors.New("paths.database_dir must be set")
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateMail()
}

func (c *Config) validateNotifications() error {
	n := c.Notifications
	if n.NtfyTopic == "" {
		return nil
	}
	if n.RequestTimeout <= 0 || n.RequestTimeout > 120 {
		return errors.New("notifications.request_timeout must be between 1 and 120 seconds")
	}
	return nil
}

func (c *Config) validateMail() error {
	m := c.Mail
	if m.Username == "" && m.Password == "" {
		// Appeal sending is optional; stored sender accounts may supply
		// credentials instead.
		return nil
	}
	if m.Username == "" || m.Password == "" {
		return errors.New("mail.username and mail.password must be set together")
	}
	if m.Port <= 0 || m.Port > 65535 {
		return fmt.Errorf("mail.port out of range: %d", m.Port)
	}
	return nil
}
