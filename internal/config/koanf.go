// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/keywordscout/internal/coverage"
	"github.com/tomtom215/keywordscout/internal/cycle"
	"github.com/tomtom215/keywordscout/internal/dispatch"
	"github.com/tomtom215/keywordscout/internal/selection"
	"github.com/tomtom215/keywordscout/internal/signals"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/keywordscout/config.yaml",
	"/etc/keywordscout/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:         "/data/keywordscout.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			WriteRetries: 5,
		},
		Lease: LeaseConfig{
			Path:   "/data/leases",
			Prefix: "lease/",
		},
		Coverage: coverage.Config{
			AllowSynthesize:         true,
			LookupTimeout:           5 * time.Second,
			DefaultSafeIntervalDays: 7,
		},
		Signals:   signals.DefaultConfig(),
		Selection: *selection.DefaultConfig(),
		Cycle:     cycle.DefaultConfig(),
		Dispatch:  dispatch.DefaultConfig(),
		Scheduler: SchedulerConfig{
			Interval:              time.Minute,
			MaxConcurrentCycles:   4,
			CycleTimeout:          5 * time.Minute,
			HotSpikeEnabled:       true,
			HotSpikeInterval:      5 * time.Minute,
			HotSpikeMinGap:        time.Hour,
			ContributionRetention: 90 * 24 * time.Hour,
			PruneInterval:         6 * time.Hour,
		},
		Server: ServerConfig{
			Enabled:         true,
			Port:            9464,
			Host:            "0.0.0.0",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,

			DebugRateLimit:  60,
			DebugRateWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	return loadFrom(findConfigFile())
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DUCKDB_PATH -> database.path
	// NATS_URL -> dispatch.url
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"cycle.categories",
	"dispatch.stream.subjects",
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names to koanf config paths.
// Unmapped variables are ignored so unrelated environment cannot leak in.
var envMappings = map[string]string{
	// Database
	"duckdb_path":          "database.path",
	"duckdb_max_memory":    "database.max_memory",
	"duckdb_threads":       "database.threads",
	"duckdb_write_retries": "database.write_retries",

	// Lease
	"lease_path":   "lease.path",
	"lease_prefix": "lease.prefix",

	// Coverage
	"coverage_allow_synthesize": "coverage.allow_synthesize",
	"coverage_lookup_timeout":   "coverage.lookup_timeout",
	"coverage_safe_interval":    "coverage.default_safe_interval_days",

	// Signals
	"signals_batch_size":        "signals.batch_size",
	"signals_max_concurrent":    "signals.max_concurrent_batches",
	"signals_call_timeout":      "signals.call_timeout",
	"signals_attribution":       "signals.attribution",
	"signals_breaker_threshold": "signals.breaker_failure_threshold",
	"signals_breaker_timeout":   "signals.breaker_timeout",

	// Selection
	"cycle_budget":                "selection.cycle_budget",
	"share_refresh":               "selection.shares.refresh",
	"share_demand":                "selection.shares.demand",
	"share_unmet":                 "selection.shares.unmet",
	"share_explore":               "selection.shares.explore",
	"candidate_pool_size":         "selection.candidate_pool_size",
	"keyword_normalization":       "selection.normalization",
	"entity_cooldown_days":        "selection.entity_cooldown_days",
	"staleness_horizon_days":      "selection.staleness.horizon_days",
	"min_staleness_days":          "selection.staleness.min_staleness_days",
	"unmet_min_users":             "selection.unmet.min_users_threshold",
	"unmet_hot_spike_threshold":   "selection.unmet.hot_spike_threshold",
	"unmet_cooldown_floor_days":   "selection.unmet.cooldown_floor_days",
	"unmet_no_results_multiplier": "selection.unmet.no_results_multiplier",

	// Cycle
	"cycle_categories":        "cycle.categories",
	"cycle_window_days":       "cycle.window_days",
	"cycle_lease_ttl":         "cycle.lease_ttl",
	"cycle_dispatch_timeout":  "cycle.dispatch_timeout",
	"cycle_recording_retries": "cycle.recording_max_retries",

	// Dispatch (NATS JetStream)
	"nats_url":               "dispatch.url",
	"nats_embedded":          "dispatch.embedded",
	"nats_host":              "dispatch.server.host",
	"nats_port":              "dispatch.server.port",
	"nats_store_dir":         "dispatch.server.store_dir",
	"nats_max_memory":        "dispatch.server.jetstream_max_memory",
	"nats_max_store":         "dispatch.server.jetstream_max_store",
	"nats_stream_name":       "dispatch.stream.name",
	"nats_stream_subjects":   "dispatch.stream.subjects",
	"nats_stream_max_age":    "dispatch.stream.max_age",
	"nats_stream_replicas":   "dispatch.stream.replicas",
	"nats_subscribers":       "dispatch.subscribers_count",
	"nats_durable_name":      "dispatch.durable_name",
	"nats_queue_group":       "dispatch.queue_group",
	"final_list_topic":       "dispatch.final_list_topic",
	"outcome_topic":          "dispatch.outcome_topic",
	"outcome_poison_topic":   "dispatch.poison_topic",
	"unmet_occurrence_topic": "dispatch.occurrence_topic",
	"dispatch_publish_rate":  "dispatch.publish_rate",
	"dispatch_publish_burst": "dispatch.publish_burst",
	"dispatch_max_deliver":   "dispatch.max_deliver",

	// Scheduler
	"scheduler_interval":          "scheduler.interval",
	"max_concurrent_cycles":       "scheduler.max_concurrent_cycles",
	"cycle_timeout":               "scheduler.cycle_timeout",
	"hot_spike_enabled":           "scheduler.hot_spike_enabled",
	"hot_spike_interval":          "scheduler.hot_spike_interval",
	"hot_spike_min_gap":           "scheduler.hot_spike_min_gap",
	"contribution_retention":      "scheduler.contribution_retention",
	"contribution_prune_interval": "scheduler.prune_interval",

	// Ops HTTP server
	"http_enabled": "server.enabled",
	"http_port":    "server.port",
	"http_host":    "server.host",

	"debug_rate_limit":  "server.debug_rate_limit",
	"debug_rate_window": "server.debug_rate_window",
	"http_cors_origins": "server.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - NATS_URL -> dispatch.url
//   - CYCLE_BUDGET -> selection.cycle_budget
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	// Unmapped keys return "" and are skipped.
	return envMappings[strings.ToLower(key)]
}
