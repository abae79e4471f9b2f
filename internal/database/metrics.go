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
)

// ReplaceDemandMetrics writes metrics with full-replacement semantics: each
// (entity_id, window_days) row is overwritten, never merged.
func (db *DB) ReplaceDemandMetrics(ctx context.Context, metrics []models.DemandMetric) error {
	if len(metrics) == 0 {
		return nil
	}
	return db.withWriteRetry(ctx, "replace", "demand_metrics", func(ctx context.Context) error {
		return db.withTx(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `INSERT INTO demand_metrics
				(entity_id, window_days, distinct_favoriters, distinct_high_intent_users,
				 distinct_query_users, query_credit, computed_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (entity_id, window_days) DO UPDATE SET
					distinct_favoriters = excluded.distinct_favoriters,
					distinct_high_intent_users = excluded.distinct_high_intent_users,
					distinct_query_users = excluded.distinct_query_users,
					query_credit = excluded.query_credit,
					computed_at = excluded.computed_at`)
			if err != nil {
				return err
			}
			defer closeWithLog(stmt, "statement")

			for i := range metrics {
				m := &metrics[i]
				if _, err := stmt.ExecContext(ctx, m.EntityID, m.WindowDays, m.DistinctFavoriters,
					m.DistinctHighIntentUsers, m.DistinctQueryUsers, m.QueryCredit, m.ComputedAt.UTC()); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// DemandMetrics returns stored metrics for the entity set and window.
// Entities without a row are absent from the map.
func (db *DB) DemandMetrics(ctx context.Context, entityIDs []string, windowDays int) (map[string]models.DemandMetric, error) {
	out := make(map[string]models.DemandMetric, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}
	marks, args := inPlaceholders(entityIDs)
	args = append(args, windowDays)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT entity_id, window_days, distinct_favoriters,
			distinct_high_intent_users, distinct_query_users, query_credit, computed_at
		FROM demand_metrics WHERE entity_id IN (`+marks+`) AND window_days = ?`, args...)
	if err != nil {
		observeQuery("select", "demand_metrics", start, err)
		return nil, fmt.Errorf("query demand metrics: %w", err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		var m models.DemandMetric
		if err := rows.Scan(&m.EntityID, &m.WindowDays, &m.DistinctFavoriters, &m.DistinctHighIntentUsers,
			&m.DistinctQueryUsers, &m.QueryCredit, &m.ComputedAt); err != nil {
			return nil, fmt.Errorf("scan demand metric: %w", err)
		}
		m.ComputedAt = m.ComputedAt.UTC()
		out[m.EntityID] = m
	}
	err = rows.Err()
	observeQuery("select", "demand_metrics", start, err)
	return out, err
}
