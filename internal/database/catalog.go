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

	"github.com/tomtom215/keywordscout/internal/models"
)

// EntitiesByCategory returns entities of one category that apply to
// coverageKey, joined with their selection bookkeeping, ordered by id.
func (db *DB) EntitiesByCategory(ctx context.Context, category models.Category, coverageKey string) ([]models.Entity, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT e.entity_id, e.name, e.category, e.last_updated_at,
			e.quality_score, e.locality_key, s.last_selected_at
		FROM entities e
		LEFT JOIN entity_selections s ON s.entity_id = e.entity_id
		WHERE e.category = ? AND (e.locality_key IS NULL OR e.locality_key = ?)
		ORDER BY e.entity_id`, string(category), coverageKey)
	if err != nil {
		observeQuery("select", "entities", start, err)
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.Entity
	for rows.Next() {
		var (
			e            models.Entity
			cat          string
			locality     sql.NullString
			lastSelected sql.NullTime
		)
		if err := rows.Scan(&e.EntityID, &e.Name, &cat, &e.LastUpdatedAt, &e.QualityScore,
			&locality, &lastSelected); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e.Category = models.Category(cat)
		e.LastUpdatedAt = e.LastUpdatedAt.UTC()
		e.LocalityKey = stringPtr(locality)
		e.LastSelectedAt = timePtr(lastSelected)
		out = append(out, e)
	}
	err = rows.Err()
	observeQuery("select", "entities", start, err)
	return out, err
}

// UpsertEntities writes catalog rows. last_updated_at only moves forward and
// category is fixed at creation.
func (db *DB) UpsertEntities(ctx context.Context, entities []models.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	return db.withWriteRetry(ctx, "upsert", "entities", func(ctx context.Context) error {
		return db.withTx(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `INSERT INTO entities
				(entity_id, name, category, last_updated_at, quality_score, locality_key)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT (entity_id) DO UPDATE SET
					name = excluded.name,
					last_updated_at = greatest(entities.last_updated_at, excluded.last_updated_at),
					quality_score = excluded.quality_score,
					locality_key = excluded.locality_key`)
			if err != nil {
				return err
			}
			defer closeWithLog(stmt, "statement")

			for i := range entities {
				e := &entities[i]
				if _, err := stmt.ExecContext(ctx, e.EntityID, e.Name, string(e.Category),
					e.LastUpdatedAt.UTC(), e.QualityScore, nullString(e.LocalityKey)); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// MarkEntitiesSelected stamps last_selected_at and the cycle id on every
// entity chosen by a cycle. Re-running it for the same cycle is harmless.
func (db *DB) MarkEntitiesSelected(ctx context.Context, entityIDs []string, cycleID string, at time.Time) error {
	if len(entityIDs) == 0 {
		return nil
	}
	return db.withWriteRetry(ctx, "upsert", "entity_selections", func(ctx context.Context) error {
		return db.withTx(ctx, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, `INSERT INTO entity_selections (entity_id, last_selected_at, last_cycle_id)
				VALUES (?, ?, ?)
				ON CONFLICT (entity_id) DO UPDATE SET
					last_selected_at = excluded.last_selected_at,
					last_cycle_id = excluded.last_cycle_id`)
			if err != nil {
				return err
			}
			defer closeWithLog(stmt, "statement")

			for _, id := range entityIDs {
				if _, err := stmt.ExecContext(ctx, id, at.UTC(), cycleID); err != nil {
					return err
				}
			}
			return nil
		})
	})
}

// RecordEntityOutcome stores the latest search outcome for an entity.
func (db *DB) RecordEntityOutcome(ctx context.Context, entityID string, outcome models.Outcome, at time.Time) error {
	return db.withWriteRetry(ctx, "upsert", "entity_selections", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO entity_selections (entity_id, last_outcome, last_outcome_at)
			VALUES (?, ?, ?)
			ON CONFLICT (entity_id) DO UPDATE SET
				last_outcome = excluded.last_outcome,
				last_outcome_at = excluded.last_outcome_at`,
			entityID, string(outcome), at.UTC())
		return err
	})
}

// EntityOutcome returns the last recorded outcome for an entity, if any.
func (db *DB) EntityOutcome(ctx context.Context, entityID string) (*models.Outcome, *time.Time, error) {
	var (
		outcome sql.NullString
		at      sql.NullTime
	)
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, `SELECT last_outcome, last_outcome_at FROM entity_selections WHERE entity_id = ?`,
		entityID).Scan(&outcome, &at)
	if errors.Is(err, sql.ErrNoRows) {
		observeQuery("select", "entity_selections", start, nil)
		return nil, nil, nil
	}
	observeQuery("select", "entity_selections", start, err)
	if err != nil {
		return nil, nil, fmt.Errorf("get entity outcome: %w", err)
	}
	if !outcome.Valid {
		return nil, timePtr(at), nil
	}
	o := models.Outcome(outcome.String)
	return &o, timePtr(at), nil
}
