// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package coverage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/keywordscout/internal/models"
)

// ErrUnresolvableLocality is returned when no canonical key can be computed
// and no known area encloses the hint.
var ErrUnresolvableLocality = errors.New("unresolvable locality")

// Store is the persistence the resolver needs.
type Store interface {
	// GetCoverageArea returns nil, nil when the key is unknown.
	GetCoverageArea(ctx context.Context, key string) (*models.CoverageArea, error)
	// AreasNear returns areas with geometry whose radius may cover the point.
	// Callers must still check the exact distance.
	AreasNear(ctx context.Context, lat, lon float64) ([]models.CoverageArea, error)
	// InsertAreaIfAbsent writes area unless its key exists and returns the
	// stored row either way.
	InsertAreaIfAbsent(ctx context.Context, area *models.CoverageArea) (*models.CoverageArea, error)
}

// Config controls resolver behaviour.
type Config struct {
	// AllowSynthesize permits creating identity-only areas for unknown keys.
	AllowSynthesize bool `koanf:"allow_synthesize"`
	// LookupTimeout bounds each store read. A timed-out read counts as a miss.
	LookupTimeout time.Duration `koanf:"lookup_timeout"`
	// DefaultSafeIntervalDays is assigned to synthesized areas.
	DefaultSafeIntervalDays int `koanf:"default_safe_interval_days" validate:"min=0"`
}

// Resolver maps locality hints to coverage areas.
type Resolver struct {
	store  Store
	cfg    Config
	logger zerolog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewResolver creates a Resolver.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewResolver(store Store, cfg Config, logger zerolog.Logger) *Resolver {
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 5 * time.Second
	}
	if cfg.DefaultSafeIntervalDays <= 0 {
		cfg.DefaultSafeIntervalDays = 7
	}
	return &Resolver{
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "coverage_resolver").Logger(),
		now:    time.Now,
	}
}

// Resolve returns the canonical area for hint.
func (r *Resolver) Resolve(ctx context.Context, hint LocalityHint) (*models.CoverageArea, error) {
	explicit := CanonicalizeKey(hint.CoverageKey)
	computed, hasComputed := CanonicalKey(&hint)

	for _, key := range []string{explicit, computed} {
		if key == "" {
			continue
		}
		area, err := r.lookup(ctx, key)
		if err != nil {
			return nil, err
		}
		if area != nil {
			return area, nil
		}
	}

	if hint.HasPoint() {
		area, err := r.enclosing(ctx, *hint.Lat, *hint.Lon)
		if err != nil {
			return nil, err
		}
		if area != nil {
			return area, nil
		}
	}

	key := explicit
	if key == "" && hasComputed {
		key = computed
	}
	if key == "" || !r.cfg.AllowSynthesize {
		return nil, fmt.Errorf("%w: hint %+v", ErrUnresolvableLocality, hint)
	}
	return r.synthesize(ctx, key, &hint)
}

func (r *Resolver) lookup(ctx context.Context, key string) (*models.CoverageArea, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	area, err := r.store.GetCoverageArea(callCtx, key)
	if err != nil {
		if r.timedOut(ctx, err) {
			r.logger.Warn().Str("coverage_key", key).Msg("Coverage lookup timed out, treating as miss")
			return nil, nil
		}
		return nil, fmt.Errorf("lookup coverage area %s: %w", key, err)
	}
	return area, nil
}

// enclosing picks the smallest-radius area that contains the point.
func (r *Resolver) enclosing(ctx context.Context, lat, lon float64) (*models.CoverageArea, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.cfg.LookupTimeout)
	defer cancel()

	areas, err := r.store.AreasNear(callCtx, lat, lon)
	if err != nil {
		if r.timedOut(ctx, err) {
			r.logger.Warn().Float64("lat", lat).Float64("lon", lon).Msg("Enclosing-area lookup timed out, treating as miss")
			return nil, nil
		}
		return nil, fmt.Errorf("find enclosing areas: %w", err)
	}
	return SmallestEnclosing(areas, lat, lon), nil
}

// SmallestEnclosing returns the smallest area whose radius covers the point,
// breaking radius ties by coverage key. It returns nil when none does.
func SmallestEnclosing(areas []models.CoverageArea, lat, lon float64) *models.CoverageArea {
	var best *models.CoverageArea
	for i := range areas {
		a := &areas[i]
		if !a.HasGeometry() || HaversineKm(lat, lon, *a.CenterLat, *a.CenterLon) > *a.RadiusKm {
			continue
		}
		if best == nil || *a.RadiusKm < *best.RadiusKm ||
			(*a.RadiusKm == *best.RadiusKm && a.CoverageKey < best.CoverageKey) {
			best = a
		}
	}
	return best
}

func (r *Resolver) synthesize(ctx context.Context, key string, hint *LocalityHint) (*models.CoverageArea, error) {
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		area := &models.CoverageArea{
			CoverageKey:      key,
			DisplayName:      displayName(hint, key),
			SourceType:       models.SourceTypeIdentityOnly,
			ExecutionTargets: []string{},
			SafeIntervalDays: r.cfg.DefaultSafeIntervalDays,
			CenterLat:        hint.Lat,
			CenterLon:        hint.Lon,
			CreatedAt:        r.now().UTC(),
		}
		return r.store.InsertAreaIfAbsent(ctx, area)
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize coverage area %s: %w", key, err)
	}
	stored, _ := v.(*models.CoverageArea)
	if stored == nil {
		return nil, fmt.Errorf("synthesize coverage area %s: store returned no row", key)
	}
	r.logger.Info().Str("coverage_key", key).Str("source_type", string(stored.SourceType)).Msg("Resolved coverage by synthesis")
	return stored, nil
}

// timedOut distinguishes a per-call deadline from cancellation of the parent.
func (r *Resolver) timedOut(parent context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil
}
