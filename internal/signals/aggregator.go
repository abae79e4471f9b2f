// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package signals

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/keywordscout/internal/metrics"
	"github.com/tomtom215/keywordscout/internal/models"
)

// EventSource reads engagement events in bulk. Implementations must answer
// for the whole id set in one round trip.
type EventSource interface {
	EngagementEvents(ctx context.Context, entityIDs []string, since time.Time) ([]EngagementEvent, error)
}

// MetricStore persists demand metrics with full-replacement semantics.
type MetricStore interface {
	ReplaceDemandMetrics(ctx context.Context, metrics []models.DemandMetric) error
}

// Config controls batching and fault tolerance of the aggregator.
type Config struct {
	BatchSize            int           `koanf:"batch_size" validate:"min=1"`
	MaxConcurrentBatches int           `koanf:"max_concurrent_batches" validate:"min=1"`
	CallTimeout          time.Duration `koanf:"call_timeout" validate:"min=0"`
	Attribution          Attribution   `koanf:"attribution" validate:"omitempty,oneof=distinct_user split per_search"`

	// Circuit breaker over the event source.
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold" validate:"min=1"`
	BreakerTimeout          time.Duration `koanf:"breaker_timeout"`
	BreakerMaxRequests      uint32        `koanf:"breaker_max_requests"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:               500,
		MaxConcurrentBatches:    4,
		CallTimeout:             5 * time.Second,
		Attribution:             AttributionDistinctUser,
		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
		BreakerMaxRequests:      1,
	}
}

// DegradedBatch describes one batch whose metrics were replaced by zeros.
type DegradedBatch struct {
	EntityIDs []string
	Err       error
}

// Result is the outcome of RefreshMetrics.
type Result struct {
	// Metrics has one entry per distinct requested entity id.
	Metrics  map[string]models.DemandMetric
	Degraded []DegradedBatch
	// PersistErr is set when fresh metrics could not be stored. The
	// returned metrics are still usable for the current cycle.
	PersistErr error
}

// DegradedEntities returns how many entities fell back to zero metrics.
func (r *Result) DegradedEntities() int {
	n := 0
	for _, b := range r.Degraded {
		n += len(b.EntityIDs)
	}
	return n
}

// Aggregator computes DemandMetrics from an EventSource.
type Aggregator struct {
	source  EventSource
	store   MetricStore
	cfg     Config
	breaker *gobreaker.CircuitBreaker[[]EngagementEvent]
	logger  zerolog.Logger
	now     func() time.Time
}

// NewAggregator creates an aggregator. store may be nil when metrics should
// not be persisted.
func NewAggregator(source EventSource, store MetricStore, cfg Config, logger zerolog.Logger) *Aggregator {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.MaxConcurrentBatches < 1 {
		cfg.MaxConcurrentBatches = 1
	}
	if cfg.BreakerFailureThreshold < 1 {
		cfg.BreakerFailureThreshold = DefaultConfig().BreakerFailureThreshold
	}

	a := &Aggregator{
		source: source,
		store:  store,
		cfg:    cfg,
		logger: logger.With().Str("component", "signal_aggregator").Logger(),
		now:    time.Now,
	}

	threshold := cfg.BreakerFailureThreshold
	a.breaker = gobreaker.NewCircuitBreaker[[]EngagementEvent](gobreaker.Settings{
		Name:        "signals",
		MaxRequests: cfg.BreakerMaxRequests,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String(), metrics.BreakerStateValue(to))
			a.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Event source circuit breaker changed state")
		},
	})
	return a
}

// RefreshMetrics recomputes metrics for entityIDs over the trailing window.
// Batch failures never abort the call; only cancellation of ctx does.
func (a *Aggregator) RefreshMetrics(ctx context.Context, entityIDs []string, windowDays int) (Result, error) {
	if windowDays < 1 {
		return Result{}, fmt.Errorf("window must be at least one day, got %d", windowDays)
	}

	ids := uniqueSorted(entityIDs)
	now := a.now()
	result := Result{Metrics: make(map[string]models.DemandMetric, len(ids))}
	if len(ids) == 0 {
		return result, nil
	}

	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	batches := chunk(ids, a.cfg.BatchSize)

	var (
		mu    sync.Mutex
		fresh []models.DemandMetric
	)

	var g errgroup.Group
	g.SetLimit(a.cfg.MaxConcurrentBatches)
	for _, batch := range batches {
		g.Go(func() error {
			events, err := a.readBatch(ctx, batch, since)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Degraded = append(result.Degraded, DegradedBatch{EntityIDs: batch, Err: err})
				for _, id := range batch {
					result.Metrics[id] = models.ZeroMetric(id, windowDays, now)
				}
				return nil
			}
			for id, m := range Aggregate(events, batch, windowDays, a.cfg.Attribution, now) {
				result.Metrics[id] = m
				fresh = append(fresh, m)
			}
			return nil
		})
	}
	_ = g.Wait() // batch goroutines never return errors

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	sort.Slice(result.Degraded, func(i, j int) bool {
		return result.Degraded[i].EntityIDs[0] < result.Degraded[j].EntityIDs[0]
	})
	for _, b := range result.Degraded {
		metrics.RecordDegradedSignal("engagement_events")
		a.logger.Warn().Err(b.Err).Int("entities", len(b.EntityIDs)).
			Msg("Engagement batch failed, using zero demand metrics")
	}

	if a.store != nil && len(fresh) > 0 {
		sort.Slice(fresh, func(i, j int) bool { return fresh[i].EntityID < fresh[j].EntityID })
		if err := a.store.ReplaceDemandMetrics(ctx, fresh); err != nil {
			result.PersistErr = err
			metrics.RecordDegradedSignal("demand_metrics_store")
			a.logger.Warn().Err(err).Int("metrics", len(fresh)).Msg("Failed to persist demand metrics")
		}
	}

	return result, nil
}

func (a *Aggregator) readBatch(ctx context.Context, batch []string, since time.Time) ([]EngagementEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	callCtx := ctx
	if a.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.cfg.CallTimeout)
		defer cancel()
	}

	start := time.Now()
	events, err := a.breaker.Execute(func() ([]EngagementEvent, error) {
		return a.source.EngagementEvents(callCtx, batch, since)
	})
	metrics.RecordSignalBatch(time.Since(start), err)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("event source unavailable: %w", err)
		}
		return nil, fmt.Errorf("read engagement events: %w", err)
	}
	return events, nil
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func chunk(ids []string, size int) [][]string {
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
