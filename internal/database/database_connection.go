// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
database_connection.go - Pool Configuration, Transactions and Write Retries

DuckDB resolves concurrent writes optimistically: the second writer to touch
a row gets a "Transaction conflict" error instead of blocking. withWriteRetry
wraps every write so that conflicts are retried with exponential backoff
while any other error fails immediately.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/keywordscout/internal/metrics"
)

const defaultWriteRetries = 5

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// isTransactionConflict checks if an error is a DuckDB transaction conflict
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "Transaction conflict") ||
		strings.Contains(errStr, "Conflict on update") ||
		strings.Contains(errStr, "write-write conflict") ||
		strings.Contains(errStr, "cannot update a table that has been altered")
}

// isDuplicateKey checks for a key violation. Every insert here uses
// ON CONFLICT, so a violation means a concurrent transaction inserted the same
// key first and a retry will take the conflict branch.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "PRIMARY KEY or UNIQUE constraint violated")
}

func (db *DB) newWriteBackoff(ctx context.Context) backoff.BackOffContext {
	retries := db.cfg.WriteRetries
	if retries <= 0 {
		retries = defaultWriteRetries
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// withWriteRetry runs fn, retrying only on write conflicts, and records
// the query duration under operation/table.
func (db *DB) withWriteRetry(ctx context.Context, operation, table string, fn func(ctx context.Context) error) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := backoff.Retry(func() error {
		err := fn(ctx)
		if err != nil && !isTransactionConflict(err) && !isDuplicateKey(err) {
			return backoff.Permanent(err)
		}
		return err
	}, db.newWriteBackoff(ctx))
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s %s: %w", operation, table, err)
	}
	return nil
}

// withTx runs fn inside a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback() // Explicitly ignore error - the original error wins
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// observeQuery records a read query's duration.
func observeQuery(operation, table string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, table, time.Since(start), err)
}

// inPlaceholders returns "?, ?, ?" for n parameters and the values as args.
func inPlaceholders(values []string) (string, []any) {
	args := make([]any, len(values))
	marks := make([]string, len(values))
	for i, v := range values {
		args[i] = v
		marks[i] = "?"
	}
	return strings.Join(marks, ", "), args
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func floatPtr(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
