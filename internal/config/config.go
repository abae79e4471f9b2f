// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package config

import (
	"time"

	"github.com/tomtom215/keywordscout/internal/coverage"
	"github.com/tomtom215/keywordscout/internal/cycle"
	"github.com/tomtom215/keywordscout/internal/dispatch"
	"github.com/tomtom215/keywordscout/internal/selection"
	"github.com/tomtom215/keywordscout/internal/signals"
)

// Config holds all application configuration.
//
// Component sections reuse the component's own Config type so defaults and
// cross-field checks live next to the code that consumes them.
type Config struct {
	Database  DatabaseConfig   `koanf:"database"`
	Lease     LeaseConfig      `koanf:"lease"`
	Coverage  coverage.Config  `koanf:"coverage"`
	Signals   signals.Config   `koanf:"signals"`
	Selection selection.Config `koanf:"selection"`
	Cycle     cycle.Config     `koanf:"cycle"`
	Dispatch  dispatch.Config  `koanf:"dispatch"`
	Scheduler SchedulerConfig  `koanf:"scheduler"`
	Server    ServerConfig     `koanf:"server"`
	Logging   LoggingConfig    `koanf:"logging"`
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path        string `koanf:"path" validate:"required"`
	MaxMemory   string `koanf:"max_memory"`
	Threads     int    `koanf:"threads" validate:"min=0"` // Number of DuckDB threads (0 = use NumCPU)
	SkipIndexes bool   `koanf:"skip_indexes"`             // Skip index creation (for fast test setup)

	// WriteRetries bounds retries of a write that hit a DuckDB transaction conflict.
	WriteRetries uint64 `koanf:"write_retries"`
}

// LeaseConfig selects the coverage lease backend.
type LeaseConfig struct {
	// Path of the BadgerDB directory. Empty keeps leases in memory, which is
	// only safe for a single process.
	Path   string `koanf:"path"`
	Prefix string `koanf:"prefix"`
}

// SchedulerConfig drives the background services that start cycles.
type SchedulerConfig struct {
	// Interval between scans for coverage areas whose safe interval elapsed.
	Interval time.Duration `koanf:"interval" validate:"min=1s"`

	// MaxConcurrentCycles bounds cycles running at once across all triggers.
	MaxConcurrentCycles int `koanf:"max_concurrent_cycles" validate:"min=1"`

	// CycleTimeout bounds one cycle up to dispatch.
	CycleTimeout time.Duration `koanf:"cycle_timeout" validate:"min=1s"`

	// HotSpikeEnabled turns on the hot-spike trigger.
	HotSpikeEnabled  bool          `koanf:"hot_spike_enabled"`
	HotSpikeInterval time.Duration `koanf:"hot_spike_interval" validate:"min=1s"`
	// HotSpikeMinGap suppresses another hot-spike cycle for the same area.
	HotSpikeMinGap time.Duration `koanf:"hot_spike_min_gap"`

	// ContributionRetention is how long per-user unmet contributions are kept.
	ContributionRetention time.Duration `koanf:"contribution_retention" validate:"min=24h"`
	PruneInterval         time.Duration `koanf:"prune_interval" validate:"min=1m"`
}

// ServerConfig holds the ops HTTP server settings
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	Host            string        `koanf:"host"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Debug reads hit DuckDB, so they are rate limited per client IP.
	// Zero disables the limit.
	DebugRateLimit  int           `koanf:"debug_rate_limit" validate:"min=0"`
	DebugRateWindow time.Duration `koanf:"debug_rate_window" validate:"min=1s"`

	// CORSOrigins lists browser origins allowed to read the ops endpoints.
	CORSOrigins []string `koanf:"cors_origins" validate:"dive,url"`
}

// LoggingConfig holds logging configuration.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false - include caller file:line (default: false)
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	// JSON is recommended for production (structured, machine-parseable).
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// Load loads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
