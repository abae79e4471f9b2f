// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package coverage

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/keywordscout/internal/models"
)

// mockStore is an in-memory Store with injectable failures.
type mockStore struct {
	mu      sync.Mutex
	areas   map[string]models.CoverageArea
	inserts int

	getErr    error
	nearErr   error
	insertErr error
	block     bool
}

func newMockStore(areas ...models.CoverageArea) *mockStore {
	m := &mockStore{areas: make(map[string]models.CoverageArea)}
	for _, a := range areas {
		m.areas[a.CoverageKey] = a
	}
	return m
}

func (m *mockStore) GetCoverageArea(ctx context.Context, key string) (*models.CoverageArea, error) {
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.areas[key]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *mockStore) AreasNear(_ context.Context, _, _ float64) ([]models.CoverageArea, error) {
	if m.nearErr != nil {
		return nil, m.nearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CoverageArea
	for _, a := range m.areas {
		if a.HasGeometry() {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) InsertAreaIfAbsent(_ context.Context, area *models.CoverageArea) (*models.CoverageArea, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.areas[area.CoverageKey]; ok {
		return &existing, nil
	}
	m.inserts++
	m.areas[area.CoverageKey] = *area
	stored := *area
	return &stored, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func ptr(f float64) *float64 { return &f }

func fullArea(key string, lat, lon, radius float64) models.CoverageArea {
	return models.CoverageArea{
		CoverageKey:      key,
		DisplayName:      key,
		SourceType:       models.SourceTypeFull,
		ExecutionTargets: []string{"forum:" + key},
		SafeIntervalDays: 7,
		CenterLat:        ptr(lat),
		CenterLon:        ptr(lon),
		RadiusKm:         ptr(radius),
	}
}

// --- Test: Resolve exact matches ---

func TestResolve_ExplicitKey(t *testing.T) {
	t.Parallel()

	store := newMockStore(fullArea("us/ca/oakland", 37.80, -122.27, 15))
	r := NewResolver(store, Config{}, testLogger())

	area, err := r.Resolve(context.Background(), LocalityHint{CoverageKey: " US/CA/Oakland "})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if area.CoverageKey != "us/ca/oakland" {
		t.Errorf("CoverageKey = %q, want us/ca/oakland", area.CoverageKey)
	}
}

func TestResolve_ComputedKey(t *testing.T) {
	t.Parallel()

	store := newMockStore(fullArea("br/sp/sao-paulo", -23.55, -46.63, 40))
	r := NewResolver(store, Config{}, testLogger())

	area, err := r.Resolve(context.Background(), LocalityHint{Country: "BR", Region: "SP", City: "São Paulo"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if area.CoverageKey != "br/sp/sao-paulo" {
		t.Errorf("CoverageKey = %q, want br/sp/sao-paulo", area.CoverageKey)
	}
}

// --- Test: Resolve enclosing areas ---

func TestResolve_SmallestEnclosingArea(t *testing.T) {
	t.Parallel()

	store := newMockStore(
		fullArea("us/ca/bay-area", 37.77, -122.42, 80),
		fullArea("us/ca/san-francisco", 37.77, -122.42, 12),
		fullArea("us/ca/los-angeles", 34.05, -118.24, 60),
	)
	r := NewResolver(store, Config{}, testLogger())

	area, err := r.Resolve(context.Background(), LocalityHint{Lat: ptr(37.78), Lon: ptr(-122.41)})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if area.CoverageKey != "us/ca/san-francisco" {
		t.Errorf("CoverageKey = %q, want smallest enclosing us/ca/san-francisco", area.CoverageKey)
	}
}

func TestSmallestEnclosing_NoneContains(t *testing.T) {
	t.Parallel()

	areas := []models.CoverageArea{fullArea("a", 0, 0, 1)}
	if got := SmallestEnclosing(areas, 10, 10); got != nil {
		t.Errorf("SmallestEnclosing() = %v, want nil", got.CoverageKey)
	}
}

// --- Test: Resolve synthesis ---

func TestResolve_SynthesizesIdentityOnly(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	r := NewResolver(store, Config{AllowSynthesize: true, DefaultSafeIntervalDays: 10}, testLogger())

	hint := LocalityHint{Country: "FR", City: "Lyon"}
	area, err := r.Resolve(context.Background(), hint)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if area.CoverageKey != "fr/lyon" || area.SourceType != models.SourceTypeIdentityOnly {
		t.Errorf("area = %+v, want identity-only fr/lyon", area)
	}
	if area.Executable() || len(area.ExecutionTargets) != 0 {
		t.Error("synthesized area must not be executable")
	}
	if area.DisplayName != "Lyon, FR" || area.SafeIntervalDays != 10 {
		t.Errorf("DisplayName/SafeInterval = %q/%d", area.DisplayName, area.SafeIntervalDays)
	}

	if _, err := r.Resolve(context.Background(), hint); err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if store.inserts != 1 {
		t.Errorf("inserts = %d, want 1", store.inserts)
	}
}

func TestResolve_ConcurrentSynthesisIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	r := NewResolver(store, Config{AllowSynthesize: true}, testLogger())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(context.Background(), LocalityHint{Country: "jp", City: "Osaka"}); err != nil {
				t.Errorf("Resolve() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if len(store.areas) != 1 || store.inserts != 1 {
		t.Errorf("areas = %d, inserts = %d, want 1 and 1", len(store.areas), store.inserts)
	}
}

// --- Test: Resolve failures ---

func TestResolve_Unresolvable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  Config
		hint LocalityHint
	}{
		{"empty hint", Config{AllowSynthesize: true}, LocalityHint{}},
		{"missing city", Config{AllowSynthesize: true}, LocalityHint{Country: "us", Region: "ca"}},
		{"point with no enclosing area", Config{AllowSynthesize: true}, LocalityHint{Lat: ptr(1), Lon: ptr(1)}},
		{"synthesis disabled", Config{}, LocalityHint{Country: "us", City: "Reno"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(newMockStore(fullArea("far/away", 50, 50, 5)), tt.cfg, testLogger())
			_, err := r.Resolve(context.Background(), tt.hint)
			if !errors.Is(err, ErrUnresolvableLocality) {
				t.Errorf("Resolve() error = %v, want ErrUnresolvableLocality", err)
			}
		})
	}
}

func TestResolve_StoreErrorAborts(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.getErr = errors.New("connection reset")
	r := NewResolver(store, Config{AllowSynthesize: true}, testLogger())

	_, err := r.Resolve(context.Background(), LocalityHint{CoverageKey: "us/ca/oakland"})
	if err == nil || errors.Is(err, ErrUnresolvableLocality) {
		t.Errorf("Resolve() error = %v, want wrapped store error", err)
	}
}

func TestResolve_LookupTimeoutIsMiss(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	store.block = true
	r := NewResolver(store, Config{LookupTimeout: 20 * time.Millisecond}, testLogger())

	start := time.Now()
	_, err := r.Resolve(context.Background(), LocalityHint{CoverageKey: "us/ca/oakland"})
	if !errors.Is(err, ErrUnresolvableLocality) {
		t.Errorf("Resolve() error = %v, want ErrUnresolvableLocality after timed-out lookup", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("lookup timeout not enforced")
	}
}
