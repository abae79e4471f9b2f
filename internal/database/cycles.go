// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/keywordscout/internal/models"
)

const cycleColumns = `cycle_id, coverage_key, started_at, finished_at, source, status, cycle_budget,
	deduped_out_count, selected_keywords, budget_by_slice, sub_budgets, underfill, deduped_out,
	degraded, execution_targets`

// InsertCycleRecord appends a cycle record. Records are immutable, so a
// retried insert of the same cycle id is a no-op.
func (db *DB) InsertCycleRecord(ctx context.Context, rec *models.CycleRecord) error {
	encoded, err := encodeCycleJSON(rec)
	if err != nil {
		return err
	}
	return db.withWriteRetry(ctx, "insert", "cycle_records", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO cycle_records (`+cycleColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (cycle_id) DO NOTHING`,
			rec.CycleID, rec.CoverageKey, rec.StartedAt.UTC(), rec.FinishedAt.UTC(), string(rec.Source),
			string(rec.Status), rec.CycleBudget, rec.DedupedOutCount,
			encoded[0], encoded[1], encoded[2], encoded[3], encoded[4], encoded[5], encoded[6])
		return err
	})
}

// LatestCycleRecord returns the most recently finished record for a coverage
// key, or nil when the key never completed a cycle.
func (db *DB) LatestCycleRecord(ctx context.Context, coverageKey string) (*models.CycleRecord, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `SELECT `+cycleColumns+` FROM cycle_records
		WHERE coverage_key = ? ORDER BY finished_at DESC, cycle_id DESC LIMIT 1`, coverageKey)
	rec, err := scanCycleRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		observeQuery("select", "cycle_records", start, nil)
		return nil, nil
	}
	observeQuery("select", "cycle_records", start, err)
	if err != nil {
		return nil, fmt.Errorf("get latest cycle record: %w", err)
	}
	return rec, nil
}

// CycleRecords returns up to limit records for a coverage key, newest first.
func (db *DB) CycleRecords(ctx context.Context, coverageKey string, limit int) ([]models.CycleRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT `+cycleColumns+` FROM cycle_records
		WHERE coverage_key = ? ORDER BY finished_at DESC, cycle_id DESC LIMIT ?`, coverageKey, limit)
	if err != nil {
		observeQuery("select", "cycle_records", start, err)
		return nil, fmt.Errorf("query cycle records: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.CycleRecord
	for rows.Next() {
		rec, err := scanCycleRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cycle record: %w", err)
		}
		out = append(out, *rec)
	}
	err = rows.Err()
	observeQuery("select", "cycle_records", start, err)
	return out, err
}

func encodeCycleJSON(rec *models.CycleRecord) ([7]string, error) {
	var out [7]string
	values := []any{
		nonNilSlice(rec.SelectedKeywords),
		nonNilMap(rec.BudgetBySlice),
		nonNilMap(rec.SubBudgets),
		nonNilMap(rec.Underfill),
		nonNilSlice(rec.DedupedOut),
		nonNilSlice(rec.Degraded),
		nonNilSlice(rec.ExecutionTargets),
	}
	for i, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return out, fmt.Errorf("encode cycle record %s: %w", rec.CycleID, err)
		}
		out[i] = string(b)
	}
	return out, nil
}

func scanCycleRecord(row rowScanner) (*models.CycleRecord, error) {
	var (
		rec     models.CycleRecord
		source  string
		status  string
		encoded [7]string
	)
	if err := row.Scan(&rec.CycleID, &rec.CoverageKey, &rec.StartedAt, &rec.FinishedAt, &source, &status,
		&rec.CycleBudget, &rec.DedupedOutCount, &encoded[0], &encoded[1], &encoded[2], &encoded[3],
		&encoded[4], &encoded[5], &encoded[6]); err != nil {
		return nil, err
	}
	rec.Source = models.CycleSource(source)
	rec.Status = models.CycleStatus(status)
	rec.StartedAt = rec.StartedAt.UTC()
	rec.FinishedAt = rec.FinishedAt.UTC()

	targets := []any{
		&rec.SelectedKeywords,
		&rec.BudgetBySlice,
		&rec.SubBudgets,
		&rec.Underfill,
		&rec.DedupedOut,
		&rec.Degraded,
		&rec.ExecutionTargets,
	}
	for i, target := range targets {
		if err := json.Unmarshal([]byte(encoded[i]), target); err != nil {
			return nil, fmt.Errorf("decode cycle record %s: %w", rec.CycleID, err)
		}
	}
	return &rec, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func nonNilMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return map[K]V{}
	}
	return m
}
