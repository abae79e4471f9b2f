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

func unmetTerm(term string, reason models.UnmetReason, users int, lastSeenDaysAgo float64) models.UnmetDemandTerm {
	return models.UnmetDemandTerm{
		Term:              term,
		NormalizedTerm:    term,
		CoverageKey:       "us/ca/oakland",
		Reason:            reason,
		DistinctUserCount: users,
		LastSeenAt:        daysAgo(lastSeenDaysAgo),
	}
}

func TestUnmetScore(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	noResults := models.OutcomeNoResults
	attempted := daysAgo(5)

	tests := []struct {
		name string
		term func() models.UnmetDemandTerm
		want float64
	}{
		{
			name: "unresolved fresh",
			term: func() models.UnmetDemandTerm { return unmetTerm("a", models.ReasonUnresolved, 5, 0) },
			want: 1.0 * 0.25 * 1.0,
		},
		{
			name: "low result severity",
			term: func() models.UnmetDemandTerm { return unmetTerm("a", models.ReasonLowResult, 5, 0) },
			want: 0.8 * 0.25,
		},
		{
			name: "one half-life old",
			term: func() models.UnmetDemandTerm { return unmetTerm("a", models.ReasonUnresolved, 20, 7) },
			want: 0.7 + 0.3*math.Exp(-1),
		},
		{
			name: "recent no results penalty",
			term: func() models.UnmetDemandTerm {
				u := unmetTerm("a", models.ReasonUnresolved, 20, 0)
				u.LastOutcome = &noResults
				u.LastAttemptAt = &attempted
				return u
			},
			want: 0.3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term := tt.term()
			if got := UnmetScore(&term, testNow, cfg); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("UnmetScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRankUnmet_MinUsers(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	snaps := []UnmetSnapshot{
		{Term: unmetTerm("lonely", models.ReasonUnresolved, 1, 0)},
		{Term: unmetTerm("wanted", models.ReasonUnresolved, 3, 0)},
	}
	got := RankUnmet(snaps, testNow, cfg)
	if len(got) != 1 || got[0].NormalizedTerm != "wanted" {
		t.Fatalf("RankUnmet() = %v, want [wanted]", terms(got))
	}
	if got[0].SourceRequestID == nil || *got[0].SourceRequestID != "unresolved:wanted" {
		t.Errorf("SourceRequestID = %v, want unresolved:wanted", got[0].SourceRequestID)
	}
	if got[0].SourceEntityID != nil {
		t.Error("unmet candidates must not carry an entity id")
	}
}

func TestRankUnmet_NoResultsCooldownScenario(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	term := unmetTerm("birria tacos", models.ReasonUnresolved, 5, 0)

	until, ok := CooldownAfter(models.OutcomeNoResults, 7, testNow, cfg)
	if !ok {
		t.Fatal("no_results must set a cooldown")
	}
	if want := testNow.Add(21 * 24 * time.Hour); !until.Equal(want) {
		t.Errorf("cooldown until %v, want %v", until, want)
	}
	outcome := models.OutcomeNoResults
	attempted := testNow
	term.CooldownUntil = &until
	term.LastOutcome = &outcome
	term.LastAttemptAt = &attempted

	later := testNow.Add(24 * time.Hour)

	if got := RankUnmet([]UnmetSnapshot{{Term: term, RecentUsers: 0}}, later, cfg); len(got) != 0 {
		t.Errorf("term in cooldown was ranked: %v", terms(got))
	}

	spiking := RankUnmet([]UnmetSnapshot{{Term: term, RecentUsers: cfg.Unmet.HotSpikeThreshold}}, later, cfg)
	if len(spiking) != 1 {
		t.Fatalf("hot spike should bypass cooldown, got %v", terms(spiking))
	}

	afterCooldown := until.Add(time.Hour)
	if got := RankUnmet([]UnmetSnapshot{{Term: term}}, afterCooldown, cfg); len(got) != 1 {
		t.Errorf("term should be eligible after cooldown, got %v", terms(got))
	}
}

func TestCooldownAfter(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	tests := []struct {
		name     string
		outcome  models.Outcome
		safe     int
		wantDays float64
		wantSet  bool
	}{
		{"no results floor", models.OutcomeNoResults, 3, 21, true},
		{"no results multiplied", models.OutcomeNoResults, 14, 42, true},
		{"success uses safe interval", models.OutcomeSuccess, 7, 7, true},
		{"error leaves cooldown", models.OutcomeError, 7, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			until, set := CooldownAfter(tt.outcome, tt.safe, testNow, cfg)
			if set != tt.wantSet {
				t.Fatalf("set = %v, want %v", set, tt.wantSet)
			}
			if !set {
				return
			}
			if got := until.Sub(testNow).Hours() / 24; math.Abs(got-tt.wantDays) > 1e-9 {
				t.Errorf("cooldown = %v days, want %v", got, tt.wantDays)
			}
		})
	}
}
