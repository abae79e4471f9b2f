// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package cycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/keywordscout/internal/models"
	"github.com/tomtom215/keywordscout/internal/signals"
)

var testNow = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// areaStore is an in-memory coverage.Store.
type areaStore struct {
	mu    sync.Mutex
	areas map[string]models.CoverageArea
}

func newAreaStore(areas ...models.CoverageArea) *areaStore {
	s := &areaStore{areas: map[string]models.CoverageArea{}}
	for _, a := range areas {
		s.areas[a.CoverageKey] = a
	}
	return s
}

func (s *areaStore) GetCoverageArea(_ context.Context, key string) (*models.CoverageArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.areas[key]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *areaStore) AreasNear(context.Context, float64, float64) ([]models.CoverageArea, error) {
	return nil, nil
}

func (s *areaStore) InsertAreaIfAbsent(_ context.Context, area *models.CoverageArea) (*models.CoverageArea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.areas[area.CoverageKey]; ok {
		return &a, nil
	}
	s.areas[area.CoverageKey] = *area
	return area, nil
}

// fakeCatalog serves entities per category; errs fails chosen categories.
type fakeCatalog struct {
	entities map[models.Category][]models.Entity
	errs     map[models.Category]error
	onRead   func()
}

func (c *fakeCatalog) EntitiesByCategory(_ context.Context, category models.Category, coverageKey string) ([]models.Entity, error) {
	if c.onRead != nil {
		c.onRead()
	}
	if err := c.errs[category]; err != nil {
		return nil, err
	}
	var out []models.Entity
	for _, e := range c.entities[category] {
		if e.AppliesTo(coverageKey) {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeSignals returns preset metrics and zero for everything else.
type fakeSignals struct {
	metrics  map[string]models.DemandMetric
	degraded []string
}

func (s *fakeSignals) RefreshMetrics(ctx context.Context, ids []string, windowDays int) (signals.Result, error) {
	if err := ctx.Err(); err != nil {
		return signals.Result{}, err
	}
	res := signals.Result{Metrics: map[string]models.DemandMetric{}}
	for _, id := range ids {
		if m, ok := s.metrics[id]; ok {
			res.Metrics[id] = m
			continue
		}
		res.Metrics[id] = models.ZeroMetric(id, windowDays, testNow)
	}
	if len(s.degraded) > 0 {
		res.Degraded = append(res.Degraded, signals.DegradedBatch{EntityIDs: s.degraded, Err: errors.New("source timeout")})
	}
	return res, nil
}

type outcomeCall struct {
	term    string
	key     string
	outcome models.Outcome
}

// fakeUnmet ranks preset candidates and records outcomes.
type fakeUnmet struct {
	mu         sync.Mutex
	candidates []models.KeywordCandidate
	rankErr    error
	rankPanic  any
	outcomeErr error
	outcomes   []outcomeCall
}

func (u *fakeUnmet) RankCandidates(context.Context, string, time.Time) ([]models.KeywordCandidate, error) {
	if u.rankPanic != nil {
		panic(u.rankPanic)
	}
	if u.rankErr != nil {
		return nil, u.rankErr
	}
	return append([]models.KeywordCandidate(nil), u.candidates...), nil
}

func (u *fakeUnmet) RecordOutcome(_ context.Context, term, key string, outcome models.Outcome) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.outcomeErr != nil {
		return u.outcomeErr
	}
	u.outcomes = append(u.outcomes, outcomeCall{term, key, outcome})
	return nil
}

// fakeDispatcher records dispatched lists.
type fakeDispatcher struct {
	mu         sync.Mutex
	err        error
	dispatched []*models.CycleRecord
	onDispatch func(ctx context.Context)
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, rec *models.CycleRecord) error {
	if d.onDispatch != nil {
		d.onDispatch(ctx)
	}
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dispatched = append(d.dispatched, rec)
	return nil
}

func (d *fakeDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dispatched)
}

// fakeStore keeps bookkeeping in memory. insertFailures fails that many
// InsertCycleRecord calls before succeeding; insertErr fails all of them.
type fakeStore struct {
	mu             sync.Mutex
	records        map[string]models.CycleRecord
	latest         map[string]string
	selected       map[string]string
	entityOutcomes map[string]models.Outcome
	insertFailures int
	insertErr      error
	latestErr      error
	insertCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:        map[string]models.CycleRecord{},
		latest:         map[string]string{},
		selected:       map[string]string{},
		entityOutcomes: map[string]models.Outcome{},
	}
}

func (s *fakeStore) MarkEntitiesSelected(_ context.Context, ids []string, cycleID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.selected[id] = cycleID
	}
	return nil
}

func (s *fakeStore) RecordEntityOutcome(_ context.Context, entityID string, outcome models.Outcome, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entityOutcomes[entityID] = outcome
	return nil
}

func (s *fakeStore) InsertCycleRecord(_ context.Context, rec *models.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	if s.insertFailures > 0 {
		s.insertFailures--
		return errors.New("transaction conflict")
	}
	if _, ok := s.records[rec.CycleID]; ok {
		return nil
	}
	s.records[rec.CycleID] = *rec
	s.latest[rec.CoverageKey] = rec.CycleID
	return nil
}

func (s *fakeStore) LatestCycleRecord(_ context.Context, key string) (*models.CycleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latestErr != nil {
		return nil, s.latestErr
	}
	id, ok := s.latest[key]
	if !ok {
		return nil, nil
	}
	rec := s.records[id]
	return &rec, nil
}

func (s *fakeStore) recordCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
