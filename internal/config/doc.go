// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package config provides centralized configuration management for Keyword Scout.

Configuration is layered with koanf: built-in defaults, an optional YAML
file, then environment variables. The result is validated with
go-playground/validator struct tags and each component's own Validate.

# Configuration Sources

  - Defaults from defaultConfig()
  - YAML file from CONFIG_PATH, else config.yaml / config.yml in the working
    directory, else /etc/keywordscout/config.yaml
  - Environment variables listed in envMappings (unmapped names are ignored)

# Configuration Structure

  - database: DuckDB path, memory limit, threads, write-conflict retries
  - lease: BadgerDB directory for coverage leases ("" keeps them in memory)
  - coverage: resolver synthesis and lookup timeout
  - signals: batching, attribution strategy, circuit breaker
  - selection: cycle budget, slice shares, scoring weights, cooldowns
  - cycle: scored categories, metric window, lease TTL, recording retries
  - dispatch: NATS JetStream connection, stream, topics, publish pacing
  - scheduler: scan interval, concurrency, hot-spike trigger, retention
  - server: ops HTTP endpoint (/healthz, /metrics, /debug)
  - logging: level, format, caller

# Environment Variables

Common overrides:
  - DUCKDB_PATH: Database file path (default: /data/keywordscout.duckdb)
  - LEASE_PATH: Lease store directory (default: /data/leases)
  - NATS_URL, NATS_EMBEDDED: External server URL or embedded server toggle
  - CYCLE_BUDGET: Keywords per cycle (default: 25)
  - SHARE_REFRESH, SHARE_DEMAND, SHARE_UNMET, SHARE_EXPLORE: Slice shares
  - CYCLE_CATEGORIES: Comma-separated entity categories to score
  - MAX_CONCURRENT_CYCLES: Concurrent cycle bound (default: 4)
  - HTTP_PORT: Ops HTTP port (default: 9464)
  - LOG_LEVEL, LOG_FORMAT: Logging

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	sel := &cfg.Selection // validated, treat as immutable
*/
package config
