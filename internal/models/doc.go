// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

// Package models defines the data types shared across Keyword Scout.
//
// Persisted types (Entity annotations, DemandMetric, UnmetDemandTerm,
// CoverageArea, CycleRecord) mirror the DuckDB tables in internal/database.
// KeywordCandidate is ephemeral: it lives for one cycle and is never stored.
//
// All enumerations are string types so they serialize readably into JSON
// columns, dispatch payloads, and log fields.
package models
