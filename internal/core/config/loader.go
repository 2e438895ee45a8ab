package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/txsubmit/internal/core/domain"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${ENV} references and
// applying defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.Ledger.Commitment == "" {
		cfg.Ledger.Commitment = domain.CommitmentConfirmed
	}
	if cfg.Ledger.Timeout == 0 {
		cfg.Ledger.Timeout = 30 * time.Second
	}
	if cfg.Ledger.PollInterval == 0 {
		cfg.Ledger.PollInterval = 500 * time.Millisecond
	}
	for i := range cfg.Ledger.Providers {
		if cfg.Ledger.Providers[i].Name == "" {
			cfg.Ledger.Providers[i].Name = fmt.Sprintf("provider-%d", i)
		}
	}

	s := &cfg.Submit
	if s.MaxRetries == nil {
		n := domain.DefaultMaxRetries
		s.MaxRetries = &n
	}
	if s.BaseRetryDelay == 0 {
		s.BaseRetryDelay = domain.DefaultBaseRetryDelay
	}
	if s.ConfirmTimeout == 0 {
		s.ConfirmTimeout = 60 * time.Second
	}
	s.SettleDelay = durationOr(s.SettleDelay, time.Second)
	s.ResendDelay = durationOr(s.ResendDelay, 500*time.Millisecond)
	s.MaxJitter = durationOr(s.MaxJitter, 500*time.Millisecond)

	if cfg.Redis.Namespace == "" {
		cfg.Redis.Namespace = "default"
	}
}

// durationOr keeps an explicitly set duration, including zero.
func durationOr(d *time.Duration, def time.Duration) *time.Duration {
	if d != nil {
		return d
	}
	return &def
}

func validate(cfg *AppConfig) error {
	if *cfg.Submit.MaxRetries < 0 {
		return fmt.Errorf("submit.max_retries must not be negative, got %d", *cfg.Submit.MaxRetries)
	}
	if cfg.Submit.BaseRetryDelay < 0 {
		return errors.New("submit.base_retry_delay must be positive")
	}
	if *cfg.Submit.SettleDelay < 0 || *cfg.Submit.ResendDelay < 0 || *cfg.Submit.MaxJitter < 0 {
		return errors.New("submit delays must not be negative")
	}
	if cfg.Submit.RetentionPeriod < 0 {
		return errors.New("submit.retention_period must not be negative")
	}
	if !cfg.Ledger.Commitment.Valid() {
		return fmt.Errorf("unknown ledger.commitment %q", cfg.Ledger.Commitment)
	}
	for _, p := range cfg.Ledger.Providers {
		if p.URL == "" {
			return fmt.Errorf("ledger provider %s has no url", p.Name)
		}
	}
	return nil
}
