// Package config loads pipeline configuration from an optional yaml file
// with environment variable overrides for deployment-specific values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config holds every tunable of the sync pipeline. Zero values are filled
// with defaults by Load.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	UserAgent   string `yaml:"user_agent"`

	Fetch struct {
		RatePerSecond  int   `yaml:"rate_per_second"`
		Burst          int   `yaml:"burst"`
		MaxConcurrency int64 `yaml:"max_concurrency"`
		TimeoutSeconds int   `yaml:"timeout_seconds"`
	} `yaml:"fetch"`

	Workers struct {
		Market     int `yaml:"market"`
		Financials int `yaml:"financials"`
	} `yaml:"workers"`

	Freshness struct {
		MarketMaxAgeDays int `yaml:"market_max_age_days"`
		RatiosMaxAgeDays int `yaml:"ratios_max_age_days"`
	} `yaml:"freshness"`

	Retry struct {
		Attempts       int `yaml:"attempts"`
		BackoffSeconds int `yaml:"backoff_seconds"`
	} `yaml:"retry"`

	Market struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"market"`

	ListenAddr string `yaml:"listen_addr"`
}

// Load reads the yaml file at path (skipped when path is empty or the file
// is absent), applies environment overrides, and fills defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("SYNC_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("MARKET_API_URL"); v != "" {
		cfg.Market.BaseURL = v
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.UserAgent == "" {
		c.UserAgent = "filingsync/1.0 (contact@example.com)"
	}
	if c.Fetch.RatePerSecond == 0 {
		c.Fetch.RatePerSecond = 10
	}
	if c.Fetch.Burst == 0 {
		c.Fetch.Burst = 10
	}
	if c.Fetch.MaxConcurrency == 0 {
		c.Fetch.MaxConcurrency = 10
	}
	if c.Fetch.TimeoutSeconds == 0 {
		c.Fetch.TimeoutSeconds = 30
	}
	if c.Workers.Market == 0 {
		c.Workers.Market = 10
	}
	if c.Workers.Financials == 0 {
		c.Workers.Financials = 20
	}
	if c.Freshness.MarketMaxAgeDays == 0 {
		c.Freshness.MarketMaxAgeDays = 7
	}
	if c.Freshness.RatiosMaxAgeDays == 0 {
		c.Freshness.RatiosMaxAgeDays = 7
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.BackoffSeconds == 0 {
		c.Retry.BackoffSeconds = 2
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8090"
	}
}

// Timeout returns the per-request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// Backoff returns the retry backoff as a duration.
func (c *Config) Backoff() time.Duration {
	return time.Duration(c.Retry.BackoffSeconds) * time.Second
}
