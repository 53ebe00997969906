package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string
	MaxConnections    int32
	MinConnections    int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// TelegramBotConfig holds Telegram bot settings.
type TelegramBotConfig struct {
	Token string
	// UpdateTimeoutSec is the long polling timeout.
	UpdateTimeoutSec int
}

// DigestConfig holds digest scheduling and execution settings.
type DigestConfig struct {
	TickInterval  string
	RecentLimit   int
	JobTimeout    time.Duration
	DrainTimeout  time.Duration
	EncryptionKey string
}

// DatabaseCfg returns the database configuration extracted from Config.
func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{
		PostgresDSN:       c.PostgresDSN,
		MaxConnections:    c.DBMaxConnections,
		MinConnections:    c.DBMinConnections,
		MaxConnIdleTime:   c.DBMaxConnIdleTime,
		MaxConnLifetime:   c.DBMaxConnLifetime,
		HealthCheckPeriod: c.DBHealthCheckPeriod,
	}
}

// TelegramBotCfg returns the Telegram bot configuration.
func (c *Config) TelegramBotCfg() TelegramBotConfig {
	return TelegramBotConfig{
		Token:            c.BotToken,
		UpdateTimeoutSec: c.TelegramUpdateTimeoutSec,
	}
}

// DigestCfg returns the digest configuration.
func (c *Config) DigestCfg() DigestConfig {
	return DigestConfig{
		TickInterval:  c.SchedulerTickInterval,
		RecentLimit:   c.DigestRecentLimit,
		JobTimeout:    c.DigestJobTimeout,
		DrainTimeout:  c.ShutdownDrainTimeout,
		EncryptionKey: c.EncryptionKey,
	}
}
