package config

const (
	defaultSessionsDir        = "~/.local/share/numcheck/sessions"
	defaultDatabaseDir        = "~/.local/share/numcheck/database"
	defaultReportDir          = "~/.local/share/numcheck/reports"
	defaultLogDir             = "~/.local/share/numcheck/logs"
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
	defaultReconnectDelay     = 3
	defaultConnectTimeout     = 60
	defaultCooldownSeconds    = 60
	defaultPremiumSweep       = 30
	defaultNotifyTimeout      = 10
	defaultMailPort           = 587
	defaultMailHost           = "smtp.gmail.com"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SessionsDir: defaultSessionsDir,
			DatabaseDir: defaultDatabaseDir,
			ReportDir:   defaultReportDir,
			LogDir:      defaultLogDir,
		},
		Logging: Logging{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Supervisor: Supervisor{
			ReconnectDelay: defaultReconnectDelay,
			ConnectTimeout: defaultConnectTimeout,
		},
		Access: Access{
			CooldownSeconds: defaultCooldownSeconds,
			PremiumSweep:    defaultPremiumSweep,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			SessionEvents:  true,
			JobEvents:      true,
			Errors:         true,
		},
		Mail: Mail{
			Host: defaultMailHost,
			Port: defaultMailPort,
		},
	}
}
