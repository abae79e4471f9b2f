// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
orchestrator.go - Cycle Orchestration

The Orchestrator owns no mutable state between cycles. Everything a cycle
learns is either persisted through Store or discarded when RunCycle
returns, so two cycles for different coverage areas can run at once. Two
cycles for the same area are kept apart by the Leaser.

Collaborators:
  - CoverageResolver: locality hint to coverage area
  - Leaser: per-coverage-key mutual exclusion with expiry
  - Catalog: entities per category, filtered by locality
  - SignalRefresher: demand metrics with degrade-to-zero batches
  - UnmetTracker: unmet-demand ranking and outcome feedback
  - Dispatcher: final list to the execution layer
  - Store: entity selections, entity outcomes and cycle records
*/

//nolint:staticcheck // File documentation, not package doc
package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/keywordscout/internal/coverage"
	"github.com/tomtom215/keywordscout/internal/lease"
	"github.com/tomtom215/keywordscout/internal/logging"
	"github.com/tomtom215/keywordscout/internal/metrics"
	"github.com/tomtom215/keywordscout/internal/models"
	"github.com/tomtom215/keywordscout/internal/selection"
	"github.com/tomtom215/keywordscout/internal/signals"
)

// CoverageResolver resolves locality hints.
type CoverageResolver interface {
	Resolve(ctx context.Context, hint coverage.LocalityHint) (*models.CoverageArea, error)
}

// Catalog reads candidate entities.
type Catalog interface {
	EntitiesByCategory(ctx context.Context, category models.Category, coverageKey string) ([]models.Entity, error)
}

// SignalRefresher recomputes demand metrics.
type SignalRefresher interface {
	RefreshMetrics(ctx context.Context, entityIDs []string, windowDays int) (signals.Result, error)
}

// UnmetTracker ranks unmet terms and takes their outcomes.
type UnmetTracker interface {
	RankCandidates(ctx context.Context, coverageKey string, now time.Time) ([]models.KeywordCandidate, error)
	RecordOutcome(ctx context.Context, term, coverageKey string, outcome models.Outcome) error
}

// Dispatcher hands a final list to the execution layer.
type Dispatcher interface {
	Dispatch(ctx context.Context, rec *models.CycleRecord) error
}

// Store persists cycle bookkeeping.
type Store interface {
	MarkEntitiesSelected(ctx context.Context, entityIDs []string, cycleID string, at time.Time) error
	RecordEntityOutcome(ctx context.Context, entityID string, outcome models.Outcome, at time.Time) error
	InsertCycleRecord(ctx context.Context, rec *models.CycleRecord) error
	LatestCycleRecord(ctx context.Context, coverageKey string) (*models.CycleRecord, error)
}

// Deps groups the orchestrator's collaborators. All are required.
type Deps struct {
	Resolver   CoverageResolver
	Leaser     lease.Leaser
	Catalog    Catalog
	Signals    SignalRefresher
	Unmet      UnmetTracker
	Dispatcher Dispatcher
	Store      Store
}

func (d *Deps) validate() error {
	switch {
	case d.Resolver == nil:
		return errors.New("cycle: resolver is required")
	case d.Leaser == nil:
		return errors.New("cycle: leaser is required")
	case d.Catalog == nil:
		return errors.New("cycle: catalog is required")
	case d.Signals == nil:
		return errors.New("cycle: signal refresher is required")
	case d.Unmet == nil:
		return errors.New("cycle: unmet tracker is required")
	case d.Dispatcher == nil:
		return errors.New("cycle: dispatcher is required")
	case d.Store == nil:
		return errors.New("cycle: store is required")
	}
	return nil
}

// Config holds orchestration settings. Selection weights live in
// selection.Config.
type Config struct {
	// Categories scored into entity-backed slices, in merge order.
	Categories []models.Category `koanf:"categories" validate:"required,min=1,dive,oneof=place dish attribute"`

	// WindowDays is the demand metric window.
	WindowDays int `koanf:"window_days" validate:"min=1"`

	// LeaseTTL bounds how long a crashed worker can block an area.
	LeaseTTL time.Duration `koanf:"lease_ttl" validate:"min=1s"`

	// DispatchTimeout bounds the publish once a list is committed.
	DispatchTimeout time.Duration `koanf:"dispatch_timeout"`

	// Recording retry policy.
	RecordingMaxRetries      uint64        `koanf:"recording_max_retries"`
	RecordingInitialInterval time.Duration `koanf:"recording_initial_interval"`
	RecordingMaxInterval     time.Duration `koanf:"recording_max_interval"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Categories:               []models.Category{models.CategoryPlace, models.CategoryDish, models.CategoryAttribute},
		WindowDays:               30,
		LeaseTTL:                 10 * time.Minute,
		DispatchTimeout:          30 * time.Second,
		RecordingMaxRetries:      5,
		RecordingInitialInterval: 200 * time.Millisecond,
		RecordingMaxInterval:     10 * time.Second,
	}
}

// Target names the locality a cycle runs for.
type Target struct {
	Hint coverage.LocalityHint
}

// ForCoverageKey targets a known coverage key.
func ForCoverageKey(key string) Target {
	return Target{Hint: coverage.LocalityHint{CoverageKey: key}}
}

// Orchestrator runs cycles.
type Orchestrator struct {
	deps      Deps
	cfg       Config
	selection *selection.Config
	scorer    *selection.Scorer
	logger    zerolog.Logger
	observer  Observer
	now       func() time.Time
	newID     func() string
}

// NewOrchestrator validates sel and wires an orchestrator. sel is cloned so
// later changes by the caller do not leak into running cycles.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewOrchestrator(deps Deps, cfg Config, sel *selection.Config, logger zerolog.Logger) (*Orchestrator, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if sel == nil {
		sel = selection.DefaultConfig()
	}
	if err := sel.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selection config: %w", err)
	}
	sel = sel.Clone()

	normalizer, err := selection.NewNormalizer(sel.Normalization)
	if err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if len(cfg.Categories) == 0 {
		cfg.Categories = defaults.Categories
	}
	if cfg.WindowDays < 1 {
		cfg.WindowDays = defaults.WindowDays
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = defaults.LeaseTTL
	}

	return &Orchestrator{
		deps:      deps,
		cfg:       cfg,
		selection: sel,
		scorer:    selection.NewScorer(sel, normalizer),
		logger:    logger.With().Str("component", "cycle_orchestrator").Logger(),
		now:       time.Now,
		newID:     uuid.NewString,
	}, nil
}

// SetObserver registers a state change callback. Call before the first cycle.
func (o *Orchestrator) SetObserver(fn Observer) {
	o.observer = fn
}

// RunCycle runs one cycle for target. The returned record is non-nil once
// the final list has been dispatched, even when recording then fails.
func (o *Orchestrator) RunCycle(ctx context.Context, target Target, source models.CycleSource) (*models.CycleRecord, error) {
	if !source.Valid() {
		return nil, fmt.Errorf("cycle: unknown source %q", source)
	}

	started := o.now()
	cycleID := o.newID()
	logger := o.logger.With().Str("cycle_id", cycleID).Str("source", string(source)).Logger()
	st := newTracker(cycleID, o.observer, &logger)
	defer st.finish()

	result := "error"
	defer func() { metrics.RecordCycle(source, result, o.now().Sub(started)) }()

	// ResolvingCoverage
	st.enter(StateResolvingCoverage)
	area, err := o.deps.Resolver.Resolve(ctx, target.Hint)
	if err != nil {
		if errors.Is(err, coverage.ErrUnresolvableLocality) {
			result = "unresolvable"
			logger.Info().Err(err).Msg("Cycle skipped: locality unresolvable")
		}
		return nil, err
	}
	if !area.Executable() {
		result = "identity_only"
		logger.Info().Str("coverage_key", area.CoverageKey).Str("source_type", string(area.SourceType)).
			Msg("Cycle skipped: coverage area is not executable")
		return nil, fmt.Errorf("%w: %s", ErrIdentityOnlyCoverage, area.CoverageKey)
	}

	key := area.CoverageKey
	logger = logger.With().Str("coverage_key", key).Logger()
	if _, err := o.deps.Leaser.Acquire(ctx, key, cycleID, o.cfg.LeaseTTL); err != nil {
		if errors.Is(err, lease.ErrHeld) {
			result = "conflict"
			return nil, fmt.Errorf("%w: %s", ErrConcurrentCycleConflict, key)
		}
		return nil, fmt.Errorf("acquire lease for %s: %w", key, err)
	}
	defer o.release(key, cycleID, &logger)

	ctx = logging.ContextWithCycle(ctx, cycleID, key)
	ctx = logging.ContextWithLogger(ctx, o.logger.With().Str("source", string(source)).Logger())

	// Aggregating
	st.enter(StateAggregating)
	inputs, err := o.aggregate(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			result = "cancelled"
		}
		return nil, err
	}

	// Scoring
	st.enter(StateScoring)
	now := o.now()
	pools, degraded := o.score(ctx, key, inputs, now)
	inputs.degraded = append(inputs.degraded, degraded...)
	if err := ctx.Err(); err != nil {
		result = "cancelled"
		return nil, err
	}

	// Allocating
	st.enter(StateAllocating)
	sel := selection.Select(o.selection, pools)
	rec := o.buildRecord(cycleID, area, source, started, &sel, inputs.degraded)

	if err := ctx.Err(); err != nil {
		result = "cancelled"
		logger.Info().Msg("Cycle cancelled before dispatch")
		return nil, err
	}

	// Emitting: the dispatch is committed and ignores cancellation.
	st.enter(StateEmitting)
	if err := o.dispatch(ctx, rec); err != nil {
		result = "dispatch_failed"
		logger.Error().Err(err).Msg("Final list dispatch failed")
		return nil, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	metrics.ObserveCycleRecord(rec)

	// Recording
	st.enter(StateRecording)
	if err := ctx.Err(); err != nil {
		result = "recording_suppressed"
		logger.Warn().Msg("Cycle cancelled after dispatch, recording skipped")
		return rec, fmt.Errorf("%w: %w", ErrRecordingSuppressed, err)
	}
	if err := o.record(ctx, rec); err != nil {
		result = "recording_failed"
		logger.Error().Err(err).Msg("Cycle recording failed after dispatch")
		return rec, fmt.Errorf("%w: %w", ErrRecordingFailed, err)
	}

	result = "recorded"
	logger.Info().
		Int("selected", len(rec.SelectedKeywords)).
		Int("deduped_out", rec.DedupedOutCount).
		Str("status", string(rec.Status)).
		Dur("duration", rec.FinishedAt.Sub(rec.StartedAt)).
		Msg("Cycle completed")
	return rec, nil
}

func (o *Orchestrator) dispatch(ctx context.Context, rec *models.CycleRecord) error {
	dctx := context.WithoutCancel(ctx)
	if o.cfg.DispatchTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(dctx, o.cfg.DispatchTimeout)
		defer cancel()
	}
	return o.deps.Dispatcher.Dispatch(dctx, rec)
}

func (o *Orchestrator) buildRecord(cycleID string, area *models.CoverageArea, source models.CycleSource, started time.Time, sel *selection.Selection, degraded []string) *models.CycleRecord {
	selected := make([]models.SelectedKeyword, 0, len(sel.Final))
	for _, c := range sel.Final {
		selected = append(selected, models.SelectedKeyword{
			Term:            c.NormalizedTerm,
			DisplayTerm:     c.DisplayTerm,
			Slice:           c.Slice,
			SourceEntityID:  c.SourceEntityID,
			SourceRequestID: c.SourceRequestID,
			Score:           c.Score,
		})
	}

	status := models.StatusCompleted
	if len(degraded) > 0 {
		status = models.StatusDegraded
	}

	return &models.CycleRecord{
		CycleID:          cycleID,
		CoverageKey:      area.CoverageKey,
		StartedAt:        started.UTC(),
		FinishedAt:       o.now().UTC(),
		Source:           source,
		CycleBudget:      o.selection.CycleBudget,
		SelectedKeywords: selected,
		DedupedOutCount:  sel.DedupedOutCount(),
		BudgetBySlice:    sel.Filled,
		SubBudgets:       sel.SubBudgets,
		Underfill:        sel.Underfill,
		DedupedOut:       sel.DedupedOut,
		Degraded:         degraded,
		ExecutionTargets: append([]string(nil), area.ExecutionTargets...),
		Status:           status,
	}
}

func (o *Orchestrator) release(key, holder string, logger *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.deps.Leaser.Release(ctx, key, holder); err != nil && !errors.Is(err, lease.ErrNotHolder) {
		logger.Warn().Err(err).Msg("Failed to release coverage lease")
	}
}
