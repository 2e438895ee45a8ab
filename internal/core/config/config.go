package config

import (
	"time"

	"github.com/vietddude/txsubmit/internal/core/domain"
	redisclient "github.com/vietddude/txsubmit/internal/infra/redis"
	"github.com/vietddude/txsubmit/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Ledger   LedgerConfig       `yaml:"ledger"`
	Submit   SubmitConfig       `yaml:"submit"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// LedgerConfig holds the ledger endpoints and read behavior.
type LedgerConfig struct {
	Commitment   domain.Commitment `yaml:"commitment"`
	Timeout      time.Duration     `yaml:"timeout"`
	PollInterval time.Duration     `yaml:"poll_interval"`
	Providers    []ProviderConfig  `yaml:"providers"`
}

// ProviderConfig holds settings for one JSON-RPC endpoint.
type ProviderConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// SubmitConfig holds retry and confirmation timings.
type SubmitConfig struct {
	MaxRetries     *int           `yaml:"max_retries"`
	BaseRetryDelay time.Duration  `yaml:"base_retry_delay"`
	ConfirmTimeout time.Duration  `yaml:"confirm_timeout"`
	SettleDelay    *time.Duration `yaml:"settle_delay"` // nil takes the default, 0 disables
	ResendDelay    *time.Duration `yaml:"resend_delay"`
	MaxJitter      *time.Duration `yaml:"max_jitter"`
	Verbose        bool           `yaml:"verbose"` // log every transition at info

	// RetentionPeriod bounds how long submission records are kept; 0 keeps them forever.
	RetentionPeriod time.Duration `yaml:"retention_period"`
}

// Options converts the retry settings to per-call submission options.
func (c SubmitConfig) Options() domain.SubmissionOptions {
	opts := domain.DefaultSubmissionOptions()
	if c.MaxRetries != nil {
		opts.MaxRetries = *c.MaxRetries
	}
	if c.BaseRetryDelay > 0 {
		opts.BaseRetryDelay = c.BaseRetryDelay
	}
	return opts
}
