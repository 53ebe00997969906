package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/lueurxax/chat-digest-bot/internal/platform/worker"
)

// Completion transports.
const (
	LLMTransportChat    = "chat"
	LLMTransportPolling = "polling"
)

// Static validation errors.
var (
	ErrUnknownLLMTransport = errors.New("unknown LLM transport")
	ErrInvalidRetryCount   = errors.New("LLM retry attempts must be positive")
	ErrInvalidRecentLimit  = errors.New("digest recent limit must be positive")
	ErrInvalidLLMTimeout   = errors.New("LLM timeout must be positive")
	ErrInvalidRetryDelay   = errors.New("LLM retry delays must be positive with max >= base")
	ErrJobTimeoutTooShort  = errors.New("digest job timeout is shorter than the LLM retry budget")
)

type Config struct {
	AppEnv        string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN   string `env:"POSTGRES_DSN,required"`
	BotToken      string `env:"BOT_TOKEN,required"`
	EncryptionKey string `env:"ENCRYPTION_KEY,required"`
	HealthPort    int    `env:"HEALTH_PORT" envDefault:"8080"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	// Completion API
	LLMAPIKey                string        `env:"LLM_API_KEY,required"`
	LLMBaseURL               string        `env:"LLM_BASE_URL" envDefault:"https://gptunnel.ru/v1"`
	LLMModel                 string        `env:"LLM_MODEL" envDefault:"deepseek-3"`
	LLMTransport             string        `env:"LLM_TRANSPORT" envDefault:"chat"`
	LLMMaxTokens             int           `env:"LLM_MAX_TOKENS" envDefault:"7500"`
	LLMTemperature           float32       `env:"LLM_TEMPERATURE" envDefault:"0.6"`
	LLMTimeout               time.Duration `env:"LLM_TIMEOUT" envDefault:"2m"`
	LLMRetryAttempts         int           `env:"LLM_RETRY_ATTEMPTS" envDefault:"5"`
	LLMRetryBaseDelay        time.Duration `env:"LLM_RETRY_BASE_DELAY" envDefault:"1s"`
	LLMRetryMaxDelay         time.Duration `env:"LLM_RETRY_MAX_DELAY" envDefault:"30s"`
	LLMPollInterval          time.Duration `env:"LLM_POLL_INTERVAL" envDefault:"2s"`
	LLMPromptPricePer1M      float64       `env:"LLM_PROMPT_PRICE_PER_1M" envDefault:"0"`
	LLMCompletionPricePer1M  float64       `env:"LLM_COMPLETION_PRICE_PER_1M" envDefault:"0"`
	RateLimitRPS             float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`
	SchedulerTickInterval    string        `env:"SCHEDULER_TICK_INTERVAL" envDefault:"1m"`
	DigestRecentLimit        int           `env:"DIGEST_RECENT_LIMIT" envDefault:"100"`
	DigestJobTimeout         time.Duration `env:"DIGEST_JOB_TIMEOUT" envDefault:"15m"`
	ShutdownDrainTimeout     time.Duration `env:"SHUTDOWN_DRAIN_TIMEOUT" envDefault:"2m"`
	TelegramUpdateTimeoutSec int           `env:"TG_UPDATE_TIMEOUT" envDefault:"60"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	switch c.LLMTransport {
	case LLMTransportChat, LLMTransportPolling:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLLMTransport, c.LLMTransport)
	}

	if c.LLMRetryAttempts <= 0 {
		return ErrInvalidRetryCount
	}

	if c.DigestRecentLimit <= 0 {
		return ErrInvalidRecentLimit
	}

	if c.LLMTimeout <= 0 {
		return ErrInvalidLLMTimeout
	}

	if c.LLMRetryBaseDelay <= 0 || c.LLMRetryMaxDelay < c.LLMRetryBaseDelay {
		return ErrInvalidRetryDelay
	}

	// Every completion attempt and backoff must fit inside the job deadline.
	if budget := c.LLMRetryBudget(); c.DigestJobTimeout < budget {
		return fmt.Errorf("%w: %s < %s", ErrJobTimeoutTooShort, c.DigestJobTimeout, budget)
	}

	return nil
}

// LLMRetryBudget is the worst-case duration of one retried completion call.
func (c *Config) LLMRetryBudget() time.Duration {
	return worker.RetryBudget(c.LLMRetryAttempts, c.LLMTimeout, c.LLMRetryBaseDelay, c.LLMRetryMaxDelay)
}
