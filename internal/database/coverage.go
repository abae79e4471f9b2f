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

const coverageColumns = `coverage_key, display_name, source_type, execution_targets, safe_interval_days,
	center_lat, center_lon, radius_km, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoverageArea(row rowScanner) (*models.CoverageArea, error) {
	var (
		area    models.CoverageArea
		targets string
		lat     sql.NullFloat64
		lon     sql.NullFloat64
		radius  sql.NullFloat64
		source  string
	)
	if err := row.Scan(&area.CoverageKey, &area.DisplayName, &source, &targets, &area.SafeIntervalDays,
		&lat, &lon, &radius, &area.CreatedAt); err != nil {
		return nil, err
	}
	area.SourceType = models.SourceType(source)
	if err := json.Unmarshal([]byte(targets), &area.ExecutionTargets); err != nil {
		return nil, fmt.Errorf("decode execution targets for %s: %w", area.CoverageKey, err)
	}
	area.CenterLat = floatPtr(lat)
	area.CenterLon = floatPtr(lon)
	area.RadiusKm = floatPtr(radius)
	area.CreatedAt = area.CreatedAt.UTC()
	return &area, nil
}

// GetCoverageArea returns the area for key, or nil when none exists.
func (db *DB) GetCoverageArea(ctx context.Context, key string) (*models.CoverageArea, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `SELECT `+coverageColumns+` FROM coverage_areas WHERE coverage_key = ?`, key)
	area, err := scanCoverageArea(row)
	if errors.Is(err, sql.ErrNoRows) {
		observeQuery("select", "coverage_areas", start, nil)
		return nil, nil
	}
	observeQuery("select", "coverage_areas", start, err)
	if err != nil {
		return nil, fmt.Errorf("get coverage area %s: %w", key, err)
	}
	return area, nil
}

// AreasNear returns areas with geometry whose bounding box contains the
// point. Callers refine the result with an exact distance check.
func (db *DB) AreasNear(ctx context.Context, lat, lon float64) ([]models.CoverageArea, error) {
	start := time.Now()
	// One degree of latitude is ~111.32 km; longitude degrees shrink with
	// cos(lat), so the box is widened by the area's own latitude.
	rows, err := db.conn.QueryContext(ctx, `SELECT `+coverageColumns+` FROM coverage_areas
		WHERE center_lat IS NOT NULL AND center_lon IS NOT NULL AND radius_km IS NOT NULL
		  AND abs(center_lat - ?) <= radius_km / 111.32
		  AND abs(center_lon - ?) <= radius_km / (111.32 * greatest(cos(radians(center_lat)), 0.01))
		ORDER BY coverage_key`, lat, lon)
	if err != nil {
		observeQuery("select", "coverage_areas", start, err)
		return nil, fmt.Errorf("query areas near point: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.CoverageArea
	for rows.Next() {
		area, err := scanCoverageArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coverage area: %w", err)
		}
		out = append(out, *area)
	}
	err = rows.Err()
	observeQuery("select", "coverage_areas", start, err)
	return out, err
}

// InsertAreaIfAbsent inserts area unless its key already exists and returns
// the stored row either way. Concurrent callers for the same key all observe
// the same row.
func (db *DB) InsertAreaIfAbsent(ctx context.Context, area *models.CoverageArea) (*models.CoverageArea, error) {
	targets, err := encodeTargets(area.ExecutionTargets)
	if err != nil {
		return nil, err
	}
	createdAt := area.CreatedAt
	if createdAt.IsZero() {
		createdAt = db.now()
	}

	err = db.withWriteRetry(ctx, "insert", "coverage_areas", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO coverage_areas (`+coverageColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (coverage_key) DO NOTHING`,
			area.CoverageKey, area.DisplayName, string(area.SourceType), targets, area.SafeIntervalDays,
			nullFloat(area.CenterLat), nullFloat(area.CenterLon), nullFloat(area.RadiusKm), createdAt.UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	stored, err := db.GetCoverageArea(ctx, area.CoverageKey)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("coverage area %s missing after insert", area.CoverageKey)
	}
	return stored, nil
}

// UpsertCoverageArea creates or replaces an area. Used by seeding and by
// operators promoting an identity-only area to full.
func (db *DB) UpsertCoverageArea(ctx context.Context, area *models.CoverageArea) error {
	targets, err := encodeTargets(area.ExecutionTargets)
	if err != nil {
		return err
	}
	createdAt := area.CreatedAt
	if createdAt.IsZero() {
		createdAt = db.now()
	}

	return db.withWriteRetry(ctx, "upsert", "coverage_areas", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `INSERT INTO coverage_areas (`+coverageColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (coverage_key) DO UPDATE SET
				display_name = excluded.display_name,
				source_type = excluded.source_type,
				execution_targets = excluded.execution_targets,
				safe_interval_days = excluded.safe_interval_days,
				center_lat = excluded.center_lat,
				center_lon = excluded.center_lon,
				radius_km = excluded.radius_km`,
			area.CoverageKey, area.DisplayName, string(area.SourceType), targets, area.SafeIntervalDays,
			nullFloat(area.CenterLat), nullFloat(area.CenterLon), nullFloat(area.RadiusKm), createdAt.UTC())
		return err
	})
}

// DueCoverageAreas returns full areas whose last cycle finished at least
// safe_interval_days before now, plus full areas that never ran.
func (db *DB) DueCoverageAreas(ctx context.Context, now time.Time) ([]models.CoverageArea, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT a.coverage_key, a.display_name, a.source_type, a.execution_targets,
			a.safe_interval_days, a.center_lat, a.center_lon, a.radius_km, a.created_at
		FROM coverage_areas a
		LEFT JOIN (
			SELECT coverage_key, max(finished_at) AS last_finished
			FROM cycle_records GROUP BY coverage_key
		) c ON c.coverage_key = a.coverage_key
		WHERE a.source_type = ?
		  AND (c.last_finished IS NULL OR c.last_finished + to_days(a.safe_interval_days) <= ?)
		ORDER BY c.last_finished NULLS FIRST, a.coverage_key`,
		string(models.SourceTypeFull), now.UTC())
	if err != nil {
		observeQuery("select", "coverage_areas", start, err)
		return nil, fmt.Errorf("query due coverage areas: %w", err)
	}
	defer closeWithLog(rows, "rows")

	var out []models.CoverageArea
	for rows.Next() {
		area, err := scanCoverageArea(rows)
		if err != nil {
			return nil, fmt.Errorf("scan coverage area: %w", err)
		}
		out = append(out, *area)
	}
	err = rows.Err()
	observeQuery("select", "coverage_areas", start, err)
	return out, err
}

func encodeTargets(targets []string) (string, error) {
	if targets == nil {
		targets = []string{}
	}
	b, err := json.Marshal(targets)
	if err != nil {
		return "", fmt.Errorf("encode execution targets: %w", err)
	}
	return string(b), nil
}
