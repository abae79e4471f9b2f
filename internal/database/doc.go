// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

// Package database provides DuckDB persistence for Keyword Scout.
//
// # Overview
//
// DB owns a single DuckDB connection pool and implements every storage
// interface the engine depends on:
//
//   - coverage.Store: coverage areas, including idempotent synthesis
//   - signals.EventSource: bulk engagement-event reads by entity-id set
//   - signals.MetricStore: full-replacement writes of demand metrics
//   - unmet.Store: unmet-demand terms and per-user contributions
//   - cycle.Catalog and cycle.RecordStore: entity reads, selection
//     bookkeeping and append-only cycle records
//
// # Files
//
//   - database.go: lifecycle (open, initialize, close)
//   - database_schema.go: table and index creation
//   - database_connection.go: pool settings, transactions and write retries
//   - coverage.go, events.go, metrics.go, unmet.go, catalog.go, cycles.go:
//     one file per store
//
// # Concurrency
//
// DuckDB uses optimistic concurrency, so concurrent writers touching the same
// row may fail with a transaction conflict. Every write goes through
// withWriteRetry, which retries conflicts with exponential backoff and fails
// fast on anything else. Writes that must never double count, such as unmet
// contributions, rely on primary keys and ON CONFLICT DO NOTHING rather than
// read-modify-write.
//
// # Testing
//
// Tests open an in-memory database through setupTestDB.
package database
