// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package signals

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/keywordscout/internal/models"
)

// mockSource serves events from memory and can fail chosen batches.
type mockSource struct {
	mu     sync.Mutex
	events []EngagementEvent
	calls  atomic.Int32
	// failIDs fails any batch containing one of these ids.
	failIDs map[string]bool
	err     error
	block   bool
	batches [][]string
}

func (m *mockSource) EngagementEvents(ctx context.Context, ids []string, _ time.Time) ([]EngagementEvent, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.batches = append(m.batches, append([]string(nil), ids...))
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	for _, id := range ids {
		if m.failIDs[id] {
			return nil, errors.New("source unavailable")
		}
	}
	var out []EngagementEvent
	for _, ev := range m.events {
		for _, id := range ids {
			if ev.EntityID == id {
				out = append(out, ev)
			}
		}
	}
	return out, nil
}

type mockMetricStore struct {
	mu       sync.Mutex
	replaced []models.DemandMetric
	err      error
}

func (m *mockMetricStore) ReplaceDemandMetrics(_ context.Context, ms []models.DemandMetric) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaced = append(m.replaced, ms...)
	return nil
}

func newTestAggregator(src EventSource, store MetricStore, cfg Config) *Aggregator {
	a := NewAggregator(src, store, cfg, zerolog.New(io.Discard))
	a.now = func() time.Time { return testNow }
	return a
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = string(rune('a'+i/26)) + string(rune('a'+i%26))
	}
	return out
}

// --- Test: RefreshMetrics ---

func TestRefreshMetrics_Batched(t *testing.T) {
	t.Parallel()

	src := &mockSource{events: []EngagementEvent{
		event("aa", models.CategoryDish, KindFavorite, "u1"),
		event("az", models.CategoryDish, KindFavorite, "u2"),
	}}
	store := &mockMetricStore{}
	cfg := DefaultConfig()
	cfg.BatchSize = 10

	a := newTestAggregator(src, store, cfg)
	res, err := a.RefreshMetrics(context.Background(), ids(45), 30)
	if err != nil {
		t.Fatalf("RefreshMetrics: %v", err)
	}

	if got := src.calls.Load(); got != 5 {
		t.Errorf("source calls = %d, want 5 batches for 45 ids", got)
	}
	if len(res.Metrics) != 45 {
		t.Errorf("metrics = %d, want 45", len(res.Metrics))
	}
	if res.Metrics["aa"].DistinctFavoriters != 1 || res.Metrics["az"].DistinctFavoriters != 1 {
		t.Error("expected favoriters on aa and az")
	}
	if len(res.Degraded) != 0 {
		t.Errorf("unexpected degraded batches: %d", len(res.Degraded))
	}
	if len(store.replaced) != 45 {
		t.Errorf("persisted %d metrics, want 45", len(store.replaced))
	}
}

func TestRefreshMetrics_DuplicateIDsCollapsed(t *testing.T) {
	t.Parallel()

	src := &mockSource{}
	a := newTestAggregator(src, nil, DefaultConfig())

	res, err := a.RefreshMetrics(context.Background(), []string{"b", "a", "b", "", "a"}, 30)
	if err != nil {
		t.Fatalf("RefreshMetrics: %v", err)
	}
	if len(res.Metrics) != 2 {
		t.Errorf("metrics = %d, want 2", len(res.Metrics))
	}
	if len(src.batches) != 1 || len(src.batches[0]) != 2 {
		t.Errorf("batches = %v, want a single batch of 2", src.batches)
	}
}

func TestRefreshMetrics_FailedBatchDegradesToZero(t *testing.T) {
	t.Parallel()

	all := ids(30)
	src := &mockSource{
		events: []EngagementEvent{
			event(all[0], models.CategoryDish, KindFavorite, "u1"),
			event(all[15], models.CategoryDish, KindFavorite, "u1"),
		},
		failIDs: map[string]bool{all[15]: true},
	}
	store := &mockMetricStore{}
	cfg := DefaultConfig()
	cfg.BatchSize = 10

	a := newTestAggregator(src, store, cfg)
	res, err := a.RefreshMetrics(context.Background(), all, 30)
	if err != nil {
		t.Fatalf("a failed batch must not abort: %v", err)
	}

	if len(res.Degraded) != 1 || res.DegradedEntities() != 10 {
		t.Fatalf("degraded = %+v, want one batch of 10", res.Degraded)
	}
	if res.Metrics[all[15]].DistinctFavoriters != 0 {
		t.Error("entity in failed batch should have zero metrics")
	}
	if res.Metrics[all[0]].DistinctFavoriters != 1 {
		t.Error("entity in healthy batch lost its metric")
	}

	persisted := make([]string, 0, len(store.replaced))
	for _, m := range store.replaced {
		persisted = append(persisted, m.EntityID)
	}
	sort.Strings(persisted)
	if len(persisted) != 20 {
		t.Errorf("persisted %d metrics, want 20 (zeros are not stored)", len(persisted))
	}
	for _, id := range persisted {
		if id == all[15] {
			t.Error("zeroed metric was persisted")
		}
	}
}

func TestRefreshMetrics_TimeoutDegrades(t *testing.T) {
	t.Parallel()

	src := &mockSource{block: true}
	cfg := DefaultConfig()
	cfg.CallTimeout = 20 * time.Millisecond

	a := newTestAggregator(src, nil, cfg)
	res, err := a.RefreshMetrics(context.Background(), []string{"x", "y"}, 30)
	if err != nil {
		t.Fatalf("timeout should degrade, not fail: %v", err)
	}
	if res.DegradedEntities() != 2 {
		t.Errorf("degraded entities = %d, want 2", res.DegradedEntities())
	}
	if !errors.Is(res.Degraded[0].Err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", res.Degraded[0].Err)
	}
}

func TestRefreshMetrics_CircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	src := &mockSource{err: errors.New("db down")}
	cfg := DefaultConfig()
	cfg.BatchSize = 1
	cfg.MaxConcurrentBatches = 1
	cfg.BreakerFailureThreshold = 2
	cfg.BreakerTimeout = time.Hour

	a := newTestAggregator(src, nil, cfg)
	res, err := a.RefreshMetrics(context.Background(), []string{"a", "b", "c", "d"}, 30)
	if err != nil {
		t.Fatalf("RefreshMetrics: %v", err)
	}
	if res.DegradedEntities() != 4 {
		t.Errorf("degraded entities = %d, want 4", res.DegradedEntities())
	}
	if got := src.calls.Load(); got != 2 {
		t.Errorf("source calls = %d, want 2 before the breaker opened", got)
	}
}

func TestRefreshMetrics_PersistFailureKeepsMetrics(t *testing.T) {
	t.Parallel()

	src := &mockSource{events: []EngagementEvent{event("a", models.CategoryDish, KindFavorite, "u1")}}
	store := &mockMetricStore{err: errors.New("write conflict")}

	a := newTestAggregator(src, store, DefaultConfig())
	res, err := a.RefreshMetrics(context.Background(), []string{"a"}, 30)
	if err != nil {
		t.Fatalf("RefreshMetrics: %v", err)
	}
	if res.PersistErr == nil {
		t.Error("expected PersistErr")
	}
	if res.Metrics["a"].DistinctFavoriters != 1 {
		t.Error("metrics should still be returned")
	}
}

func TestRefreshMetrics_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := newTestAggregator(&mockSource{}, nil, DefaultConfig())
	if _, err := a.RefreshMetrics(ctx, []string{"a"}, 30); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRefreshMetrics_Validation(t *testing.T) {
	t.Parallel()

	a := newTestAggregator(&mockSource{}, nil, DefaultConfig())
	if _, err := a.RefreshMetrics(context.Background(), []string{"a"}, 0); err == nil {
		t.Error("expected error for zero window")
	}

	res, err := a.RefreshMetrics(context.Background(), nil, 30)
	if err != nil || len(res.Metrics) != 0 {
		t.Errorf("empty id set: got %v, %v", res.Metrics, err)
	}
}
