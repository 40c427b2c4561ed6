// Package config defines service configuration and its loading.
//
// Conventions:
// - New(ctx) builds a Config with defaults; Load layers overrides on top.
// - Functions accept context.Context as the first parameter.
// - Errors wrap this package's sentinel kinds.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Database drivers understood by the service.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatabaseDriver is memory, sqlite or postgres.
	DatabaseDriver string `koanf:"database_driver"`

	// DatabaseURL is the DSN handed to the driver; a file path for sqlite.
	DatabaseURL string `koanf:"database_url"`

	// QueueSize bounds the change-notice queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the number of pending recompute keys.
	DedupeSize int `koanf:"dedupe_size"`

	// DefaultTopN and MaxTopN bound GET /events/{id}/best-times?top.
	DefaultTopN int `koanf:"default_top_n"`
	MaxTopN     int `koanf:"max_top_n"`

	// DefaultMinDuration is the minimum block length in slots.
	DefaultMinDuration int `koanf:"default_min_duration"`

	// StreamHeartbeat is the keep-alive interval of change streams.
	StreamHeartbeat time.Duration `koanf:"stream_heartbeat"`

	// StreamBuffer is how many messages a slow stream client may lag.
	StreamBuffer int `koanf:"stream_buffer"`

	// ExpirySchedule is the cron spec of the expired-event sweeper.
	ExpirySchedule string `koanf:"expiry_schedule"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		DatabaseDriver:     DriverSQLite,
		DatabaseURL:        "huddle.db",
		QueueSize:          1024,
		WorkerCount:        runtime.NumCPU(),
		DedupeSize:         10_000,
		DefaultTopN:        10,
		MaxTopN:            100,
		DefaultMinDuration: 1,
		StreamHeartbeat:    30 * time.Second,
		StreamBuffer:       16,
		ExpirySchedule:     "@every 1m",
		ShutdownTimeout:    30 * time.Second,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatabaseDriver != DriverMemory && c.DatabaseDriver != DriverSQLite && c.DatabaseDriver != DriverPostgres:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownDriver, c.DatabaseDriver)
	case c.DatabaseDriver != DriverMemory && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for %s", ErrInvalidConfig, c.DatabaseDriver)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DefaultTopN < 1:
		return fmt.Errorf("%w: default_top_n must be positive", ErrInvalidConfig)
	case c.MaxTopN < c.DefaultTopN:
		return fmt.Errorf("%w: max_top_n must be at least default_top_n", ErrInvalidConfig)
	case c.DefaultMinDuration < 1:
		return fmt.Errorf("%w: default_min_duration must be positive", ErrInvalidConfig)
	case c.StreamHeartbeat <= 0:
		return fmt.Errorf("%w: stream_heartbeat must be positive", ErrInvalidConfig)
	}
	return nil
}
