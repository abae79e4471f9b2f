// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/keywordscout/internal/models"
	"github.com/tomtom215/keywordscout/internal/selection"
	"github.com/tomtom215/keywordscout/internal/unmet"
)

// UpsertOccurrence records one user's occurrence of an unmet term. The
// term's distinct user count grows only when the user's hashed key is new in
// unmet_user_keys. Contribution rows carry recency and may be pruned; the
// keys are not, so a user returning after pruning is still deduplicated.
func (db *DB) UpsertOccurrence(ctx context.Context, occ *unmet.Occurrence) (bool, error) {
	at := occ.At.UTC()
	var newUser bool

	err := db.withWriteRetry(ctx, "upsert", "unmet_terms", func(ctx context.Context) error {
		newUser = false
		return db.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO unmet_terms
				(normalized_term, reason, coverage_key, term, distinct_user_count, last_seen_at, linked_entity_id)
				VALUES (?, ?, ?, ?, 0, ?, ?)
				ON CONFLICT (normalized_term, reason, coverage_key) DO NOTHING`,
				occ.NormalizedTerm, string(occ.Reason), occ.CoverageKey, occ.Term, at, nullString(occ.LinkedEntityID)); err != nil {
				return err
			}

			res, err := tx.ExecContext(ctx, `INSERT INTO unmet_contributions
				(normalized_term, reason, coverage_key, user_id, first_seen_at, last_seen_at)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (normalized_term, reason, coverage_key, user_id) DO NOTHING`,
				occ.NormalizedTerm, string(occ.Reason), occ.CoverageKey, occ.UserID, at, at)
			if err != nil {
				return err
			}
			contributed, err := res.RowsAffected()
			if err != nil {
				return err
			}

			res, err = tx.ExecContext(ctx, `INSERT INTO unmet_user_keys
				(normalized_term, reason, coverage_key, user_key)
				VALUES (?, ?, ?, sha256(?))
				ON CONFLICT (normalized_term, reason, coverage_key, user_key) DO NOTHING`,
				occ.NormalizedTerm, string(occ.Reason), occ.CoverageKey, occ.UserID)
			if err != nil {
				return err
			}
			inserted, err := res.RowsAffected()
			if err != nil {
				return err
			}

			if contributed == 0 {
				if _, err := tx.ExecContext(ctx, `UPDATE unmet_contributions SET last_seen_at = greatest(last_seen_at, ?)
					WHERE normalized_term = ? AND reason = ? AND coverage_key = ? AND user_id = ?`,
					at, occ.NormalizedTerm, string(occ.Reason), occ.CoverageKey, occ.UserID); err != nil {
					return err
				}
			}

			if _, err := tx.ExecContext(ctx, `UPDATE unmet_terms SET
					distinct_user_count = distinct_user_count + ?,
					last_seen_at = greatest(last_seen_at, ?),
					linked_entity_id = coalesce(?, linked_entity_id)
				WHERE normalized_term = ? AND reason = ? AND coverage_key = ?`,
				inserted, at, nullString(occ.LinkedEntityID),
				occ.NormalizedTerm, string(occ.Reason), occ.CoverageKey); err != nil {
				return err
			}

			newUser = inserted > 0
			return nil
		})
	})
	return newUser, err
}

// UnmetSnapshots returns every unmet term for coverageKey together with its
// count of distinct contributors active since recentSince.
func (db *DB) UnmetSnapshots(ctx context.Context, coverageKey string, recentSince time.Time) ([]selection.UnmetSnapshot, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT t.term, t.normalized_term, t.coverage_key, t.reason,
			t.distinct_user_count, t.last_seen_at, t.last_attempt_at, t.last_outcome,
			t.cooldown_until, t.linked_entity_id, coalesce(r.recent_users, 0)
		FROM unmet_terms t
		LEFT JOIN (
			SELECT normalized_term, reason, count(*) AS recent_users
			FROM unmet_contributions
			WHERE coverage_key = ? AND last_seen_at >= ?
			GROUP BY normalized_term, reason
		) r ON r.normalized_term = t.normalized_term AND r.reason = t.reason
		WHERE t.coverage_key = ?
		ORDER BY t.normalized_term, t.reason`,
		coverageKey, recentSince.UTC(), coverageKey)
	if err != nil {
		observeQuery("select", "unmet_terms", start, err)
		return nil, fmt.Errorf("query unmet terms: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []selection.UnmetSnapshot
	for rows.Next() {
		var (
			s           selection.UnmetSnapshot
			reason      string
			lastAttempt sql.NullTime
			lastOutcome sql.NullString
			cooldown    sql.NullTime
			linked      sql.NullString
			recent      int64
		)
		if err := rows.Scan(&s.Term.Term, &s.Term.NormalizedTerm, &s.Term.CoverageKey, &reason,
			&s.Term.DistinctUserCount, &s.Term.LastSeenAt, &lastAttempt, &lastOutcome,
			&cooldown, &linked, &recent); err != nil {
			return nil, fmt.Errorf("scan unmet term: %w", err)
		}
		s.Term.Reason = models.UnmetReason(reason)
		s.Term.LastSeenAt = s.Term.LastSeenAt.UTC()
		s.Term.LastAttemptAt = timePtr(lastAttempt)
		if lastOutcome.Valid {
			o := models.Outcome(lastOutcome.String)
			s.Term.LastOutcome = &o
		}
		s.Term.CooldownUntil = timePtr(cooldown)
		s.Term.LinkedEntityID = stringPtr(linked)
		s.RecentUsers = int(recent)
		out = append(out, s)
	}
	err = rows.Err()
	observeQuery("select", "unmet_terms", start, err)
	return out, err
}

// ApplyOutcome records an attempt outcome on every reason row of the term.
// A nil cooldownUntil leaves the stored cooldown untouched.
func (db *DB) ApplyOutcome(ctx context.Context, normalizedTerm, coverageKey string, outcome models.Outcome, at time.Time, cooldownUntil *time.Time) (int64, error) {
	var affected int64
	err := db.withWriteRetry(ctx, "update", "unmet_terms", func(ctx context.Context) error {
		var (
			res sql.Result
			err error
		)
		if cooldownUntil != nil {
			res, err = db.conn.ExecContext(ctx, `UPDATE unmet_terms
				SET last_attempt_at = ?, last_outcome = ?, cooldown_until = ?
				WHERE normalized_term = ? AND coverage_key = ?`,
				at.UTC(), string(outcome), cooldownUntil.UTC(), normalizedTerm, coverageKey)
		} else {
			res, err = db.conn.ExecContext(ctx, `UPDATE unmet_terms
				SET last_attempt_at = ?, last_outcome = ?
				WHERE normalized_term = ? AND coverage_key = ?`,
				at.UTC(), string(outcome), normalizedTerm, coverageKey)
		}
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// HotSpikeCoverageKeys returns coverage keys holding at least one term with
// threshold or more contributors active since recentSince.
func (db *DB) HotSpikeCoverageKeys(ctx context.Context, recentSince time.Time, threshold int) ([]string, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT coverage_key FROM (
			SELECT coverage_key, normalized_term, reason, count(*) AS recent_users
			FROM unmet_contributions
			WHERE last_seen_at >= ?
			GROUP BY coverage_key, normalized_term, reason
		) WHERE recent_users >= ?
		ORDER BY coverage_key`, recentSince.UTC(), threshold)
	if err != nil {
		observeQuery("select", "unmet_contributions", start, err)
		return nil, fmt.Errorf("query hot spikes: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan coverage key: %w", err)
		}
		keys = append(keys, key)
	}
	err = rows.Err()
	observeQuery("select", "unmet_contributions", start, err)
	return keys, err
}

// PruneContributions deletes contribution rows last seen before olderThan.
// distinct_user_count and the hashed user keys are left as is.
func (db *DB) PruneContributions(ctx context.Context, olderThan time.Time) (int64, error) {
	var deleted int64
	err := db.withWriteRetry(ctx, "delete", "unmet_contributions", func(ctx context.Context) error {
		res, err := db.conn.ExecContext(ctx, `DELETE FROM unmet_contributions WHERE last_seen_at < ?`, olderThan.UTC())
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}
