// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
database_schema.go - Database Schema Management

Tables:
  - coverage_areas: canonical localities keyed by coverage_key
  - entities: catalog rows owned by the enrichment pipeline
  - entity_selections: selection and outcome bookkeeping written by cycles
  - engagement_events: raw favorite/view/selection/search events
  - demand_metrics: windowed aggregates keyed by (entity_id, window_days)
  - unmet_terms: unmet demand keyed by (normalized_term, reason, coverage_key)
  - unmet_contributions: one row per distinct user backing an unmet term,
    pruned after the retention window
  - unmet_user_keys: hashed dedup keys of every user ever counted for a term;
    never pruned, so a returning user is not counted twice
  - cycle_records: append-only cycle summaries keyed by cycle_id

List and map valued columns of coverage_areas and cycle_records are stored as
JSON text so no DuckDB extension is required.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS coverage_areas (
			coverage_key VARCHAR PRIMARY KEY,
			display_name VARCHAR NOT NULL,
			source_type VARCHAR NOT NULL,
			execution_targets VARCHAR NOT NULL DEFAULT '[]',
			safe_interval_days INTEGER NOT NULL,
			center_lat DOUBLE,
			center_lon DOUBLE,
			radius_km DOUBLE,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS entities (
			entity_id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			last_updated_at TIMESTAMP NOT NULL,
			quality_score DOUBLE NOT NULL DEFAULT 0,
			locality_key VARCHAR
		)`,

		`CREATE TABLE IF NOT EXISTS entity_selections (
			entity_id VARCHAR PRIMARY KEY,
			last_selected_at TIMESTAMP,
			last_cycle_id VARCHAR,
			last_outcome VARCHAR,
			last_outcome_at TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS engagement_events (
			entity_id VARCHAR NOT NULL,
			category VARCHAR NOT NULL,
			kind VARCHAR NOT NULL,
			user_id VARCHAR,
			search_id VARCHAR,
			resolved_entity_count INTEGER NOT NULL DEFAULT 1,
			occurred_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS demand_metrics (
			entity_id VARCHAR NOT NULL,
			window_days INTEGER NOT NULL,
			distinct_favoriters INTEGER NOT NULL,
			distinct_high_intent_users INTEGER NOT NULL,
			distinct_query_users INTEGER NOT NULL,
			query_credit DOUBLE NOT NULL,
			computed_at TIMESTAMP NOT NULL,
			PRIMARY KEY (entity_id, window_days)
		)`,

		`CREATE TABLE IF NOT EXISTS unmet_terms (
			normalized_term VARCHAR NOT NULL,
			reason VARCHAR NOT NULL,
			coverage_key VARCHAR NOT NULL,
			term VARCHAR NOT NULL,
			distinct_user_count INTEGER NOT NULL DEFAULT 0,
			last_seen_at TIMESTAMP NOT NULL,
			last_attempt_at TIMESTAMP,
			last_outcome VARCHAR,
			cooldown_until TIMESTAMP,
			linked_entity_id VARCHAR,
			PRIMARY KEY (normalized_term, reason, coverage_key)
		)`,

		`CREATE TABLE IF NOT EXISTS unmet_contributions (
			normalized_term VARCHAR NOT NULL,
			reason VARCHAR NOT NULL,
			coverage_key VARCHAR NOT NULL,
			user_id VARCHAR NOT NULL,
			first_seen_at TIMESTAMP NOT NULL,
			last_seen_at TIMESTAMP NOT NULL,
			PRIMARY KEY (normalized_term, reason, coverage_key, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS unmet_user_keys (
			normalized_term VARCHAR NOT NULL,
			reason VARCHAR NOT NULL,
			coverage_key VARCHAR NOT NULL,
			user_key VARCHAR NOT NULL,
			PRIMARY KEY (normalized_term, reason, coverage_key, user_key)
		)`,

		// Seed keys for contributions written before unmet_user_keys existed.
		`INSERT OR IGNORE INTO unmet_user_keys
			SELECT normalized_term, reason, coverage_key, sha256(user_id)
			FROM unmet_contributions`,

		`CREATE TABLE IF NOT EXISTS cycle_records (
			cycle_id VARCHAR PRIMARY KEY,
			coverage_key VARCHAR NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			source VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			cycle_budget INTEGER NOT NULL,
			deduped_out_count INTEGER NOT NULL,
			selected_keywords VARCHAR NOT NULL,
			budget_by_slice VARCHAR NOT NULL,
			sub_budgets VARCHAR NOT NULL,
			underfill VARCHAR NOT NULL,
			deduped_out VARCHAR NOT NULL,
			degraded VARCHAR NOT NULL,
			execution_targets VARCHAR NOT NULL
		)`,
	}
}

// createIndexes creates secondary indexes
func (db *DB) createIndexes() error {
	if db.cfg.SkipIndexes {
		return nil
	}
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE INDEX IF NOT EXISTS idx_entities_category ON entities(category)`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity_time ON engagement_events(entity_id, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_unmet_terms_coverage ON unmet_terms(coverage_key)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_records_coverage ON cycle_records(coverage_key, finished_at)`,
	}
	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
