// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config populated with defaults.
// - Load layers a YAML file and MERCH_ environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/merch/internal/domain/model"
)

// Catalog source kinds.
const (
	CatalogCSV      = "csv"
	CatalogPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// ShutdownTimeoutSeconds bounds graceful shutdown.
	ShutdownTimeoutSeconds int `koanf:"shutdown_timeout_seconds"`

	Catalog   CatalogConfig   `koanf:"catalog"`
	Redis     RedisConfig     `koanf:"redis"`
	Scheduler SchedulerConfig `koanf:"scheduler"`

	// Touchpoints maps touchpoint ids to their scoring policy. Entries
	// from file or env are merged over the defaults of the same id.
	Touchpoints map[string]model.TouchpointConfig `koanf:"touchpoints"`
}

// CatalogConfig selects where product snapshots come from.
type CatalogConfig struct {
	Source        string `koanf:"source"`
	Path          string `koanf:"path"`
	DSN           string `koanf:"dsn"`
	SkipMalformed bool   `koanf:"skip_malformed"`
}

// RedisConfig configures the rankings publisher.
type RedisConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Addr      string `koanf:"addr"`
	Password  string `koanf:"password"`
	DB        int    `koanf:"db"`
	KeyPrefix string `koanf:"key_prefix"`
}

// SchedulerConfig configures background refreshes.
type SchedulerConfig struct {
	Enabled bool `koanf:"enabled"`
	// TickSeconds overrides every touchpoint's refresh interval when positive.
	TickSeconds   int  `koanf:"tick_seconds"`
	ReloadCatalog bool `koanf:"reload_catalog"`
}

// Tick returns the scheduler tick override, zero when unset.
func (s SchedulerConfig) Tick() time.Duration {
	if s.TickSeconds <= 0 {
		return 0
	}
	return time.Duration(s.TickSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		ShutdownTimeoutSeconds: 10,
		Catalog: CatalogConfig{
			Source:        CatalogCSV,
			Path:          "data/products.csv",
			SkipMalformed: true,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "merch",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			ReloadCatalog: true,
		},
		Touchpoints: model.DefaultTouchpoints(),
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.ShutdownTimeoutSeconds < 0:
		return fmt.Errorf("%w: shutdown_timeout_seconds must not be negative", ErrInvalidConfig)
	case c.Scheduler.TickSeconds < 0:
		return fmt.Errorf("%w: scheduler.tick_seconds must not be negative", ErrInvalidConfig)
	case c.Redis.Enabled && c.Redis.Addr == "":
		return fmt.Errorf("%w: redis.addr is required when redis is enabled", ErrInvalidConfig)
	}

	switch c.Catalog.Source {
	case CatalogCSV:
		if c.Catalog.Path == "" {
			return fmt.Errorf("%w: catalog.path is required for the csv source", ErrInvalidConfig)
		}
	case CatalogPostgres:
		if c.Catalog.DSN == "" {
			return fmt.Errorf("%w: catalog.dsn is required for the postgres source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown catalog.source %q", ErrInvalidConfig, c.Catalog.Source)
	}

	if len(c.Touchpoints) == 0 {
		return fmt.Errorf("%w: no touchpoints configured", ErrInvalidConfig)
	}
	for id, tp := range c.Touchpoints {
		if tp.ID != id {
			return fmt.Errorf("%w: touchpoint %q carries id %q", ErrInvalidConfig, id, tp.ID)
		}
		if err := tp.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	return nil
}
