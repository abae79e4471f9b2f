// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import (
	"math"
	"time"

	"github.com/tomtom215/keywordscout/internal/models"
)

// UnmetSnapshot is an unmet-demand term together with the number of distinct
// users who contributed to it in the last 24 hours.
type UnmetSnapshot struct {
	Term        models.UnmetDemandTerm
	RecentUsers int
}

// HotSpike reports whether the snapshot crosses the hot-spike threshold.
func HotSpike(s *UnmetSnapshot, cfg *Config) bool {
	return cfg.Unmet.HotSpikeThreshold > 0 && s.RecentUsers >= cfg.Unmet.HotSpikeThreshold
}

// UnmetEligible reports whether a term may be proposed at now. A hot spike
// bypasses an active cooldown but not the minimum user threshold.
func UnmetEligible(s *UnmetSnapshot, now time.Time, cfg *Config) bool {
	if s.Term.DistinctUserCount < cfg.Unmet.MinUsersThreshold {
		return false
	}
	if s.Term.CooldownUntil == nil || !now.Before(*s.Term.CooldownUntil) {
		return true
	}
	return HotSpike(s, cfg)
}

// UnmetScore computes severity * saturation * recency * penalty.
func UnmetScore(t *models.UnmetDemandTerm, now time.Time, cfg *Config) float64 {
	u := cfg.Unmet

	severity := u.LowResultSeverity
	if t.Reason == models.ReasonUnresolved {
		severity = u.UnresolvedSeverity
	}

	recency := 0.7 + 0.3*math.Exp(-DaysSince(t.LastSeenAt, now)/u.HalfLifeDays)

	penalty := 1.0
	if t.LastOutcome != nil && *t.LastOutcome == models.OutcomeNoResults &&
		t.LastAttemptAt != nil && DaysSince(*t.LastAttemptAt, now) <= u.PenaltyWindowDays {
		penalty = u.NoResultsPenalty
	}

	return clamp01(severity * saturate(float64(t.DistinctUserCount), u.UserCap) * recency * penalty)
}

// RankUnmet returns eligible unmet terms as candidates in deterministic
// score order.
func RankUnmet(snapshots []UnmetSnapshot, now time.Time, cfg *Config) []models.KeywordCandidate {
	cands := make([]models.KeywordCandidate, 0, len(snapshots))
	for i := range snapshots {
		s := &snapshots[i]
		if !UnmetEligible(s, now, cfg) {
			continue
		}
		reqID := s.Term.RequestID()
		cands = append(cands, models.KeywordCandidate{
			NormalizedTerm:  s.Term.NormalizedTerm,
			DisplayTerm:     s.Term.Term,
			Slice:           models.SliceUnmet,
			Score:           UnmetScore(&s.Term, now, cfg),
			SourceRequestID: &reqID,
		})
	}
	return SortCandidates(cands)
}

// CooldownAfter returns the cooldown end for an outcome. The boolean is false
// when the outcome leaves the existing cooldown untouched.
func CooldownAfter(outcome models.Outcome, safeIntervalDays int, now time.Time, cfg *Config) (time.Time, bool) {
	switch outcome {
	case models.OutcomeNoResults:
		days := math.Max(cfg.Unmet.CooldownFloorDays, float64(safeIntervalDays)*cfg.Unmet.NoResultsMultiplier)
		return now.Add(daysToDuration(days)), true
	case models.OutcomeSuccess:
		return now.Add(daysToDuration(float64(safeIntervalDays))), true
	default:
		return time.Time{}, false
	}
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * hoursPerDay * float64(time.Hour))
}
