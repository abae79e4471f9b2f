// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

// Package unmet tracks explicit user demand the catalog could not satisfy.
//
// Each term is keyed by (normalized term, reason, coverage key). Its distinct
// user count grows only when a new per-user contribution row is inserted, so
// repeated occurrences from the same user are idempotent even under
// concurrent writers.
package unmet

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/keywordscout/internal/dispatch"
	"github.com/tomtom215/keywordscout/internal/metrics"
	"github.com/tomtom215/keywordscout/internal/models"
	"github.com/tomtom215/keywordscout/internal/selection"
)

// Occurrence validation errors wrap dispatch.ErrRejectedOccurrence so the
// consumer acknowledges them instead of retrying.
var (
	// ErrMissingUserIdentity is returned for occurrences without a user.
	// Anonymous demand is never bucketed into a synthetic user.
	ErrMissingUserIdentity = fmt.Errorf("unmet: occurrence has no user identity: %w", dispatch.ErrRejectedOccurrence)

	// ErrEmptyTerm is returned when a term normalizes to nothing.
	ErrEmptyTerm = fmt.Errorf("unmet: term is empty after normalization: %w", dispatch.ErrRejectedOccurrence)
)

// Occurrence is one user stating demand for a term.
type Occurrence struct {
	Term           string
	NormalizedTerm string
	CoverageKey    string
	Reason         models.UnmetReason
	UserID         string
	LinkedEntityID *string
	At             time.Time
}

// Store persists unmet-demand terms and their per-user contributions.
type Store interface {
	// UpsertOccurrence inserts the contribution row for (term, reason,
	// coverage, user) if absent and creates or touches the term row. The
	// distinct user count is incremented only when the contribution row was
	// newly inserted, which is reported by newUser.
	UpsertOccurrence(ctx context.Context, occ *Occurrence) (newUser bool, err error)

	// UnmetSnapshots returns every term for coverageKey with the number of
	// distinct contributors seen since recentSince.
	UnmetSnapshots(ctx context.Context, coverageKey string, recentSince time.Time) ([]selection.UnmetSnapshot, error)

	// ApplyOutcome updates lastAttemptAt and lastOutcome for every reason
	// of the term. A nil cooldownUntil leaves the stored cooldown as is.
	ApplyOutcome(ctx context.Context, normalizedTerm, coverageKey string, outcome models.Outcome, at time.Time, cooldownUntil *time.Time) (int64, error)

	// HotSpikeCoverageKeys lists coverage keys holding a term with at least
	// threshold distinct contributors since recentSince.
	HotSpikeCoverageKeys(ctx context.Context, recentSince time.Time, threshold int) ([]string, error)

	// PruneContributions deletes contribution rows last seen before
	// olderThan. Term counts are not decremented.
	PruneContributions(ctx context.Context, olderThan time.Time) (int64, error)
}

// AreaLookup returns a coverage area by key, or nil when it does not exist.
type AreaLookup interface {
	GetCoverageArea(ctx context.Context, key string) (*models.CoverageArea, error)
}

// Tracker records unmet demand, ranks it into candidates and applies
// search outcomes as cooldowns.
type Tracker struct {
	store      Store
	areas      AreaLookup
	cfg        *selection.Config
	normalizer selection.Normalizer
	logger     zerolog.Logger
	now        func() time.Time

	// defaultSafeIntervalDays is used when the coverage area is unknown.
	defaultSafeIntervalDays int
}

// NewTracker creates a Tracker. cfg must already be validated.
func NewTracker(store Store, areas AreaLookup, cfg *selection.Config, normalizer selection.Normalizer, defaultSafeIntervalDays int, logger zerolog.Logger) *Tracker {
	if normalizer == nil {
		normalizer = selection.BasicNormalizer{}
	}
	if defaultSafeIntervalDays < 1 {
		defaultSafeIntervalDays = 7
	}
	return &Tracker{
		store:                   store,
		areas:                   areas,
		cfg:                     cfg,
		normalizer:              normalizer,
		logger:                  logger.With().Str("component", "unmet_tracker").Logger(),
		now:                     time.Now,
		defaultSafeIntervalDays: defaultSafeIntervalDays,
	}
}

// RecordOccurrence records that userID asked for term in coverageKey.
// Recording the same user twice leaves the distinct user count unchanged.
// linkedEntityID is kept only for low_result terms.
func (t *Tracker) RecordOccurrence(ctx context.Context, term string, reason models.UnmetReason, coverageKey, userID string, linkedEntityID *string) error {
	if !reason.Valid() {
		return fmt.Errorf("unmet: invalid reason %q: %w", reason, dispatch.ErrRejectedOccurrence)
	}
	if userID == "" {
		return ErrMissingUserIdentity
	}
	if coverageKey == "" {
		return fmt.Errorf("unmet: coverage key is required: %w", dispatch.ErrRejectedOccurrence)
	}
	normalized := t.normalizer.Normalize(term)
	if normalized == "" {
		return ErrEmptyTerm
	}
	if reason != models.ReasonLowResult {
		linkedEntityID = nil
	}

	occ := &Occurrence{
		Term:           term,
		NormalizedTerm: normalized,
		CoverageKey:    coverageKey,
		Reason:         reason,
		UserID:         userID,
		LinkedEntityID: linkedEntityID,
		At:             t.now().UTC(),
	}
	newUser, err := t.store.UpsertOccurrence(ctx, occ)
	if err != nil {
		return fmt.Errorf("record occurrence: %w", err)
	}
	metrics.RecordUnmetOccurrence(reason, newUser)
	return nil
}

// RankCandidates returns eligible unmet terms for coverageKey as scored
// candidates in deterministic order.
func (t *Tracker) RankCandidates(ctx context.Context, coverageKey string, now time.Time) ([]models.KeywordCandidate, error) {
	snapshots, err := t.store.UnmetSnapshots(ctx, coverageKey, now.Add(-24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("load unmet terms: %w", err)
	}
	return selection.RankUnmet(snapshots, now, t.cfg), nil
}

// RecordOutcome applies a search outcome to every reason tracked for the
// term. no_results sets a long cooldown, success a short one, and error
// leaves the cooldown unchanged.
func (t *Tracker) RecordOutcome(ctx context.Context, term, coverageKey string, outcome models.Outcome) error {
	normalized := t.normalizer.Normalize(term)
	if normalized == "" {
		return ErrEmptyTerm
	}

	safeInterval, err := t.safeIntervalDays(ctx, coverageKey)
	if err != nil {
		return err
	}

	now := t.now().UTC()
	var cooldown *time.Time
	if until, ok := selection.CooldownAfter(outcome, safeInterval, now, t.cfg); ok {
		cooldown = &until
	}

	n, err := t.store.ApplyOutcome(ctx, normalized, coverageKey, outcome, now, cooldown)
	if err != nil {
		return fmt.Errorf("apply outcome: %w", err)
	}
	if n == 0 {
		t.logger.Debug().Str("term", normalized).Str("coverage_key", coverageKey).
			Msg("Outcome for untracked unmet term ignored")
	}
	return nil
}

// HotSpikes lists coverage keys with a term at or above the hot-spike
// threshold in the last 24 hours.
func (t *Tracker) HotSpikes(ctx context.Context, now time.Time) ([]string, error) {
	if t.cfg.Unmet.HotSpikeThreshold <= 0 {
		return nil, nil
	}
	keys, err := t.store.HotSpikeCoverageKeys(ctx, now.Add(-24*time.Hour), t.cfg.Unmet.HotSpikeThreshold)
	if err != nil {
		return nil, fmt.Errorf("find hot spikes: %w", err)
	}
	return keys, nil
}

// PruneContributions deletes per-user contribution rows idle for longer than
// retention.
func (t *Tracker) PruneContributions(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("unmet: retention must be positive, got %s", retention)
	}
	n, err := t.store.PruneContributions(ctx, t.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune contributions: %w", err)
	}
	if n > 0 {
		t.logger.Info().Int64("rows", n).Dur("retention", retention).Msg("Pruned unmet contributions")
	}
	return n, nil
}

func (t *Tracker) safeIntervalDays(ctx context.Context, coverageKey string) (int, error) {
	if t.areas == nil {
		return t.defaultSafeIntervalDays, nil
	}
	area, err := t.areas.GetCoverageArea(ctx, coverageKey)
	if err != nil {
		return 0, fmt.Errorf("load coverage area: %w", err)
	}
	if area == nil || area.SafeIntervalDays < 1 {
		return t.defaultSafeIntervalDays, nil
	}
	return area.SafeIntervalDays, nil
}
