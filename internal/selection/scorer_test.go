// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import (
	"math"
	"testing"
	"time"

	"github.com/tomtom215/keywordscout/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) time.Time {
	return testNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
}

func testEntity(id, name string, updatedDaysAgo, quality float64) models.Entity {
	return models.Entity{
		EntityID:      id,
		Name:          name,
		Category:      models.CategoryDish,
		LastUpdatedAt: daysAgo(updatedDaysAgo),
		QualityScore:  quality,
	}
}

func TestStaleness_Monotonic(t *testing.T) {
	t.Parallel()

	const horizon = 120.0
	prev := Staleness(0, horizon)
	for d := 0.5; d <= 400; d += 0.5 {
		cur := Staleness(d, horizon)
		if cur <= prev {
			t.Fatalf("Staleness(%v) = %v, not greater than Staleness(%v) = %v", d, cur, d-0.5, prev)
		}
		if cur < 0 || cur >= 1 {
			t.Fatalf("Staleness(%v) = %v, want in [0, 1)", d, cur)
		}
		prev = cur
	}
}

func TestStaleness_StrictlyIncreasingForVeryOldEntities(t *testing.T) {
	t.Parallel()

	const horizon = 120.0
	pairs := [][2]float64{{1470, 1471}, {1500, 2000}, {3000, 6000}, {36500, 36501}}
	for _, p := range pairs {
		older, newer := Staleness(p[1], horizon), Staleness(p[0], horizon)
		if older <= newer {
			t.Errorf("Staleness(%v) = %v, not greater than Staleness(%v) = %v", p[1], older, p[0], newer)
		}
		if older >= 1 {
			t.Errorf("Staleness(%v) = %v, want below 1", p[1], older)
		}
	}

	prev := Staleness(400, horizon)
	for d := 401.0; d <= 20000; d++ {
		cur := Staleness(d, horizon)
		if cur <= prev {
			t.Fatalf("Staleness(%v) = %v, not greater than Staleness(%v) = %v", d, cur, d-1, prev)
		}
		prev = cur
	}
}

func TestStaleness_FlattensPastHorizon(t *testing.T) {
	t.Parallel()

	a, b := Staleness(120, 120), Staleness(240, 120)
	if b-a > 0.05 {
		t.Errorf("Staleness(240)-Staleness(120) = %v, want < 0.05", b-a)
	}
	if Staleness(-5, 120) != 0 {
		t.Error("negative days should score 0")
	}
}

func TestScorer_Demand(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultConfig(), nil)

	tests := []struct {
		name   string
		metric *models.DemandMetric
		want   float64
	}{
		{"nil metric", nil, 0},
		{"zero metric", &models.DemandMetric{}, 0},
		{"saturated", &models.DemandMetric{DistinctFavoriters: 100, DistinctHighIntentUsers: 100, QueryCredit: 100}, 1},
		{"favorites only at cap", &models.DemandMetric{DistinctFavoriters: 25}, 0.4},
		{"half high intent", &models.DemandMetric{DistinctHighIntentUsers: 25}, 0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Demand(tt.metric); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Demand() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorer_ScoreForRefresh_RecencyRegression(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultConfig(), nil)
	x := testEntity("x", "Fresh Place", 2, 0.9)
	y := testEntity("y", "Stale Place", 200, 0.9)

	if _, ok := s.ScoreForRefresh(&x, nil, testNow); ok {
		t.Error("entity updated 2 days ago should be excluded by the hard gate")
	}
	c, ok := s.ScoreForRefresh(&y, nil, testNow)
	if !ok {
		t.Fatal("entity updated 200 days ago should be included")
	}
	if st := Staleness(200, 120); st < 0.99 {
		t.Errorf("staleness at 200 days = %v, want near ceiling", st)
	}
	if math.Abs(c.Score-0.6*Staleness(200, 120)) > 1e-9 {
		t.Errorf("Score = %v, want staleness*0.6 with zero demand", c.Score)
	}
	if c.Slice != models.SliceRefresh || *c.SourceEntityID != "y" || c.NormalizedTerm != "stale place" {
		t.Errorf("unexpected candidate %+v", c)
	}
}

func TestScorer_ScoreForRefresh_OlderNeverScoresLower(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultConfig(), nil)
	metric := &models.DemandMetric{DistinctFavoriters: 3}
	var prev float64
	for d := 14.0; d <= 365; d++ {
		e := testEntity("e", "thing", d, 0.8)
		c, ok := s.ScoreForRefresh(&e, metric, testNow)
		if !ok {
			t.Fatalf("day %v excluded unexpectedly", d)
		}
		if c.Score < prev {
			t.Fatalf("day %v scored %v below day %v (%v)", d, c.Score, d-1, prev)
		}
		prev = c.Score
	}
}

func TestScorer_QualityPolicy(t *testing.T) {
	t.Parallel()

	e := testEntity("q", "low quality", 200, 0.1)

	dampen := NewScorer(DefaultConfig(), nil)
	c, ok := dampen.ScoreForRefresh(&e, nil, testNow)
	if !ok {
		t.Fatal("dampen policy should keep the candidate")
	}
	want := Staleness(200, 120) * 0.6 * (0.5 + 0.5*0.1)
	if math.Abs(c.Score-want) > 1e-9 {
		t.Errorf("dampened Score = %v, want %v", c.Score, want)
	}

	cfg := DefaultConfig()
	cfg.Quality.Policy = QualityExclude
	if _, ok := NewScorer(cfg, nil).ScoreForRefresh(&e, nil, testNow); ok {
		t.Error("exclude policy should drop low-quality entity")
	}
}

func TestScorer_EntityCooldown(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultConfig(), nil)
	e := testEntity("c", "recently picked", 200, 0.9)
	picked := daysAgo(1)
	e.LastSelectedAt = &picked

	hot := &models.DemandMetric{DistinctFavoriters: 25, DistinctHighIntentUsers: 50}
	if _, ok := s.ScoreForRefresh(&e, hot, testNow); ok {
		t.Error("refresh should skip entity in cooldown")
	}
	if _, ok := s.ScoreForDemand(&e, hot, testNow); ok {
		t.Error("demand should skip entity in cooldown")
	}
}

func TestScorer_ScoreForDemand(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultConfig(), nil)
	e := testEntity("d", "Popular Dish", 1, 0.9)

	if _, ok := s.ScoreForDemand(&e, nil, testNow); ok {
		t.Error("zero demand should not qualify")
	}
	c, ok := s.ScoreForDemand(&e, &models.DemandMetric{DistinctFavoriters: 25}, testNow)
	if !ok {
		t.Fatal("demand above minimum should qualify regardless of freshness")
	}
	if math.Abs(c.Score-0.4) > 1e-9 {
		t.Errorf("Score = %v, want 0.4", c.Score)
	}
}

func TestScorer_ScoreForExplore(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultConfig(), nil)
	e := testEntity("x1", "Hidden Gem", 30, 0.9)

	c1, ok := s.ScoreForExplore(&e, nil, "us/ca/oakland", testNow)
	if !ok {
		t.Fatal("never-selected low-demand entity should be explorable")
	}
	if c1.Score < 0.5 || c1.Score >= 1 {
		t.Errorf("Score = %v, want in [0.5, 1)", c1.Score)
	}
	c2, _ := s.ScoreForExplore(&e, nil, "us/ca/oakland", testNow)
	if c1.Score != c2.Score {
		t.Error("explore score must be deterministic")
	}

	busy := &models.DemandMetric{DistinctFavoriters: 25, DistinctHighIntentUsers: 50}
	if _, ok := s.ScoreForExplore(&e, busy, "us/ca/oakland", testNow); ok {
		t.Error("high-demand entity should not be explored")
	}
}

func TestScorer_ScoreEntities_LocalityFilter(t *testing.T) {
	t.Parallel()

	s := NewScorer(DefaultConfig(), nil)
	here, there := "us/ca/oakland", "fr/paris"

	global := testEntity("g", "global", 100, 0.9)
	local := testEntity("l", "local", 100, 0.9)
	local.LocalityKey = &here
	foreign := testEntity("f", "foreign", 100, 0.9)
	foreign.LocalityKey = &there

	pools := s.ScoreEntities([]models.Entity{global, local, foreign}, nil, here, testNow)
	if len(pools.Refresh) != 2 {
		t.Fatalf("len(Refresh) = %d, want 2", len(pools.Refresh))
	}
	for _, c := range pools.Refresh {
		if *c.SourceEntityID == "f" {
			t.Error("entity from another coverage area was scored")
		}
	}
}
