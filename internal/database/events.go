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
	"github.com/tomtom215/keywordscout/internal/signals"
)

// EngagementEvents returns every event since the given time for the entity
// set in a single query.
func (db *DB) EngagementEvents(ctx context.Context, entityIDs []string, since time.Time) ([]signals.EngagementEvent, error) {
	if len(entityIDs) == 0 {
		return nil, nil
	}
	marks, args := inPlaceholders(entityIDs)
	args = append(args, since.UTC())

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT entity_id, category, kind, user_id, search_id,
			resolved_entity_count, occurred_at
		FROM engagement_events
		WHERE entity_id IN (`+marks+`) AND occurred_at >= ?`, args...)
	if err != nil {
		observeQuery("select", "engagement_events", start, err)
		return nil, fmt.Errorf("query engagement events: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []signals.EngagementEvent
	for rows.Next() {
		var (
			ev       signals.EngagementEvent
			category string
			kind     string
			userID   sql.NullString
			searchID sql.NullString
		)
		if err := rows.Scan(&ev.EntityID, &category, &kind, &userID, &searchID,
			&ev.ResolvedEntityCount, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan engagement event: %w", err)
		}
		ev.Category = models.Category(category)
		ev.Kind = signals.EventKind(kind)
		ev.UserID = stringPtr(userID)
		ev.SearchID = stringPtr(searchID)
		ev.OccurredAt = ev.OccurredAt.UTC()
		out = append(out, ev)
	}
	err = rows.Err()
	observeQuery("select", "engagement_events", start, err)
	return out, err
}

// InsertEngagementEvents appends events in one transaction. Event ingestion
// normally happens upstream; this exists for imports and tests.
func (db *DB) InsertEngagementEvents(ctx context.Context, events []signals.EngagementEvent) error {
	if len(events) == 0 {
		return nil
	}
	return db.withWriteRetry(ctx, "insert", "engagement_events", func(ctx context.Context) error {
		return db.withTx(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `INSERT INTO engagement_events
				(entity_id, category, kind, user_id, search_id, resolved_entity_count, occurred_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`)
			if err != nil {
				return err
			}
			defer closeWithLog(stmt, "statement")

			for i := range events {
				ev := &events[i]
				resolved := ev.ResolvedEntityCount
				if resolved < 1 {
					resolved = 1
				}
				if _, err := stmt.ExecContext(ctx, ev.EntityID, string(ev.Category), string(ev.Kind),
					nullString(ev.UserID), nullString(ev.SearchID), resolved, ev.OccurredAt.UTC()); err != nil {
					return err
				}
			}
			return nil
		})
	})
}
