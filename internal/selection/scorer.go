// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import (
	"hash/fnv"
	"math"
	"strconv"
	"time"

	"github.com/tomtom215/keywordscout/internal/models"
)

const hoursPerDay = 24.0

// DaysSince returns the fractional days from t to now, never negative.
func DaysSince(t, now time.Time) float64 {
	d := now.Sub(t).Hours() / hoursPerDay
	if d < 0 {
		return 0
	}
	return d
}

// stalenessTailWeight keeps a hyperbolic tail in the staleness curve. The
// exponential term alone rounds to exactly 1 after a few thousand days.
const stalenessTailWeight = 1e-3

// Staleness maps days since the last update onto [0, 1). The curve is
// strictly increasing in float64 for any realistic age and flattens past
// horizonDays (~0.95 at the horizon).
func Staleness(days, horizonDays float64) float64 {
	if days <= 0 || horizonDays <= 0 {
		return 0
	}
	head := -math.Expm1(-3 * days / horizonDays)
	tail := days / (days + horizonDays)
	return (1-stalenessTailWeight)*head + stalenessTailWeight*tail
}

// saturate maps a count onto [0, 1], reaching 1 at limit.
func saturate(count float64, limit int) float64 {
	if count <= 0 || limit <= 0 {
		return 0
	}
	return math.Min(count, float64(limit)) / float64(limit)
}

// Scorer computes per-entity candidate scores for the entity-backed slices.
type Scorer struct {
	cfg        *Config
	normalizer Normalizer
}

// NewScorer creates a Scorer. A nil normalizer selects the one named by cfg.
func NewScorer(cfg *Config, normalizer Normalizer) *Scorer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if normalizer == nil {
		normalizer, _ = NewNormalizer(cfg.Normalization)
		if normalizer == nil {
			normalizer = BasicNormalizer{}
		}
	}
	return &Scorer{cfg: cfg, normalizer: normalizer}
}

// Demand combines the distinct-user signals into [0, 1].
func (s *Scorer) Demand(m *models.DemandMetric) float64 {
	d := s.cfg.Demand
	sum := d.FavoritersWeight + d.HighIntentWeight + d.QueryWeight
	if sum <= 0 || m == nil {
		return 0
	}
	v := d.FavoritersWeight*saturate(float64(m.DistinctFavoriters), d.FavoritersCap) +
		d.HighIntentWeight*saturate(float64(m.DistinctHighIntentUsers), d.HighIntentCap) +
		d.QueryWeight*saturate(m.QueryCredit, d.QueryCap)
	return v / sum
}

// inCooldown reports whether an entity was selected too recently to be
// proposed again.
func (s *Scorer) inCooldown(e *models.Entity, now time.Time) bool {
	if e.LastSelectedAt == nil || s.cfg.EntityCooldownDays <= 0 {
		return false
	}
	return DaysSince(*e.LastSelectedAt, now) < s.cfg.EntityCooldownDays
}

func (s *Scorer) candidate(e *models.Entity, slice models.Slice, score float64) (models.KeywordCandidate, bool) {
	term := s.normalizer.Normalize(e.Name)
	if term == "" {
		return models.KeywordCandidate{}, false
	}
	id := e.EntityID
	return models.KeywordCandidate{
		NormalizedTerm: term,
		DisplayTerm:    e.Name,
		Slice:          slice,
		Score:          clamp01(score),
		SourceEntityID: &id,
	}, true
}

// ScoreForRefresh scores an entity for the refresh slice. It returns false
// when the entity was updated within MinStalenessDays, is cooling down, or
// falls under the quality floor with the exclude policy.
func (s *Scorer) ScoreForRefresh(e *models.Entity, m *models.DemandMetric, now time.Time) (models.KeywordCandidate, bool) {
	days := DaysSince(e.LastUpdatedAt, now)
	if days < s.cfg.Staleness.MinStalenessDays || s.inCooldown(e, now) {
		return models.KeywordCandidate{}, false
	}

	score := Staleness(days, s.cfg.Staleness.HorizonDays) * (0.6 + 0.4*s.Demand(m))

	q := clamp01(e.QualityScore)
	if q < s.cfg.Quality.Floor {
		if s.cfg.Quality.Policy == QualityExclude {
			return models.KeywordCandidate{}, false
		}
		score *= 0.5 + 0.5*q
	}
	return s.candidate(e, models.SliceRefresh, score)
}

// ScoreForDemand scores an entity for the demand slice by demand alone.
func (s *Scorer) ScoreForDemand(e *models.Entity, m *models.DemandMetric, now time.Time) (models.KeywordCandidate, bool) {
	if s.inCooldown(e, now) {
		return models.KeywordCandidate{}, false
	}
	d := s.Demand(m)
	if d <= 0 || d < s.cfg.Demand.MinScore {
		return models.KeywordCandidate{}, false
	}
	return s.candidate(e, models.SliceDemand, d)
}

// ScoreForExplore scores low-signal entities for the explore slice. Novelty
// favours entities that were never or long ago selected; a weekly rotation
// term spreads exploration across the catalog without randomness.
func (s *Scorer) ScoreForExplore(e *models.Entity, m *models.DemandMetric, coverageKey string, now time.Time) (models.KeywordCandidate, bool) {
	if s.inCooldown(e, now) || s.Demand(m) >= s.cfg.Explore.MaxDemand {
		return models.KeywordCandidate{}, false
	}
	novelty := 1.0
	if e.LastSelectedAt != nil {
		novelty = Staleness(DaysSince(*e.LastSelectedAt, now), s.cfg.Staleness.HorizonDays)
	}
	if novelty <= 0 {
		return models.KeywordCandidate{}, false
	}
	return s.candidate(e, models.SliceExplore, novelty*(0.5+0.5*rotation(e.EntityID, coverageKey, now)))
}

// EntityPools holds the entity-backed slice candidates, unsorted.
type EntityPools struct {
	Refresh []models.KeywordCandidate
	Demand  []models.KeywordCandidate
	Explore []models.KeywordCandidate
}

// ScoreEntities scores every entity applicable to coverageKey into the three
// entity-backed slices. Entities without a metric are scored with zero demand.
//
// Each entity competes in at most one slice, the first it qualifies for in
// merge order (refresh, demand, explore), so an entity is never reported as
// a duplicate of itself.
func (s *Scorer) ScoreEntities(entities []models.Entity, metrics map[string]models.DemandMetric, coverageKey string, now time.Time) EntityPools {
	var pools EntityPools
	for i := range entities {
		e := &entities[i]
		if !e.AppliesTo(coverageKey) {
			continue
		}
		var m *models.DemandMetric
		if metric, ok := metrics[e.EntityID]; ok {
			m = &metric
		}
		if c, ok := s.ScoreForRefresh(e, m, now); ok {
			pools.Refresh = append(pools.Refresh, c)
			continue
		}
		if c, ok := s.ScoreForDemand(e, m, now); ok {
			pools.Demand = append(pools.Demand, c)
			continue
		}
		if c, ok := s.ScoreForExplore(e, m, coverageKey, now); ok {
			pools.Explore = append(pools.Explore, c)
		}
	}
	return pools
}

// rotation hashes (entity, coverage, ISO week) onto [0, 1).
func rotation(entityID, coverageKey string, now time.Time) float64 {
	year, week := now.UTC().ISOWeek()
	h := fnv.New32a()
	_, _ = h.Write([]byte(entityID))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(coverageKey))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(strconv.Itoa(year*100 + week)))
	return float64(h.Sum32()) / float64(math.MaxUint32+1)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
