// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import (
	"fmt"
	"math"
)

// QualityPolicy decides what happens to refresh candidates below the quality floor.
type QualityPolicy string

const (
	// QualityDampen multiplies the score by (0.5 + 0.5*quality).
	QualityDampen QualityPolicy = "dampen"
	// QualityExclude drops the candidate from the refresh slice.
	QualityExclude QualityPolicy = "exclude"
)

// Config holds every tunable of the selection pipeline. Treat a validated
// Config as immutable; use Clone before modifying a shared instance.
type Config struct {
	// CycleBudget is the maximum number of keywords selected per cycle.
	CycleBudget int `json:"cycle_budget" koanf:"cycle_budget"`

	// Shares splits CycleBudget across slices.
	Shares SliceShares `json:"shares" koanf:"shares"`

	// CandidatePoolSize bounds each slice's deduplicated pool before
	// allocation. It should comfortably exceed any sub-budget so the
	// allocator can backfill after cross-slice collisions.
	CandidatePoolSize int `json:"candidate_pool_size" koanf:"candidate_pool_size"`

	// Normalization selects the keyword normalizer: "basic" or "folding".
	Normalization string `json:"normalization" koanf:"normalization"`

	// EntityCooldownDays skips entity-backed candidates selected more
	// recently than this.
	EntityCooldownDays float64 `json:"entity_cooldown_days" koanf:"entity_cooldown_days"`

	Staleness StalenessConfig `json:"staleness" koanf:"staleness"`
	Demand    DemandConfig    `json:"demand" koanf:"demand"`
	Quality   QualityConfig   `json:"quality" koanf:"quality"`
	Explore   ExploreConfig   `json:"explore" koanf:"explore"`
	Unmet     UnmetConfig     `json:"unmet" koanf:"unmet"`
}

// SliceShares are the fractions of the cycle budget given to each slice.
// They must sum to 1.
type SliceShares struct {
	Refresh float64 `json:"refresh" koanf:"refresh"`
	Demand  float64 `json:"demand" koanf:"demand"`
	Unmet   float64 `json:"unmet" koanf:"unmet"`
	Explore float64 `json:"explore" koanf:"explore"`
}

// Sum returns the total of all shares.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (s SliceShares) Sum() float64 {
	return s.Refresh + s.Demand + s.Unmet + s.Explore
}

// StalenessConfig shapes the staleness curve.
type StalenessConfig struct {
	// HorizonDays is where the curve reaches ~95% of its ceiling.
	// Default: 120.
	HorizonDays float64 `json:"horizon_days" koanf:"horizon_days"`

	// MinStalenessDays excludes entities updated more recently than this
	// from the refresh slice entirely.
	// Default: 14.
	MinStalenessDays float64 `json:"min_staleness_days" koanf:"min_staleness_days"`
}

// DemandConfig weights the distinct-user signals. Weights are normalized at
// runtime so they need not sum to 1.
type DemandConfig struct {
	FavoritersWeight float64 `json:"favoriters_weight" koanf:"favoriters_weight"`
	HighIntentWeight float64 `json:"high_intent_weight" koanf:"high_intent_weight"`
	QueryWeight      float64 `json:"query_weight" koanf:"query_weight"`

	// Caps are the counts at which each signal saturates to 1.
	FavoritersCap int `json:"favoriters_cap" koanf:"favoriters_cap"`
	HighIntentCap int `json:"high_intent_cap" koanf:"high_intent_cap"`
	QueryCap      int `json:"query_cap" koanf:"query_cap"`

	// MinScore is the lowest demand that qualifies for the demand slice.
	MinScore float64 `json:"min_score" koanf:"min_score"`
}

// QualityConfig gates low-quality entities in the refresh slice.
type QualityConfig struct {
	Floor  float64       `json:"floor" koanf:"floor"`
	Policy QualityPolicy `json:"policy" koanf:"policy"`
}

// ExploreConfig bounds the explore slice to entities with little signal.
type ExploreConfig struct {
	MaxDemand float64 `json:"max_demand" koanf:"max_demand"`
}

// UnmetConfig controls unmet-demand eligibility, scoring and cooldowns.
type UnmetConfig struct {
	MinUsersThreshold   int     `json:"min_users_threshold" koanf:"min_users_threshold"`
	UserCap             int     `json:"user_cap" koanf:"user_cap"`
	HalfLifeDays        float64 `json:"half_life_days" koanf:"half_life_days"`
	PenaltyWindowDays   float64 `json:"penalty_window_days" koanf:"penalty_window_days"`
	NoResultsPenalty    float64 `json:"no_results_penalty" koanf:"no_results_penalty"`
	HotSpikeThreshold   int     `json:"hot_spike_threshold" koanf:"hot_spike_threshold"`
	UnresolvedSeverity  float64 `json:"unresolved_severity" koanf:"unresolved_severity"`
	LowResultSeverity   float64 `json:"low_result_severity" koanf:"low_result_severity"`
	CooldownFloorDays   float64 `json:"cooldown_floor_days" koanf:"cooldown_floor_days"`
	NoResultsMultiplier float64 `json:"no_results_multiplier" koanf:"no_results_multiplier"`
}

// DefaultConfig returns the production starting point.
func DefaultConfig() *Config {
	return &Config{
		CycleBudget: 25,
		Shares: SliceShares{
			Refresh: 0.40,
			Demand:  0.32,
			Unmet:   0.20,
			Explore: 0.08,
		},
		CandidatePoolSize:  200,
		Normalization:      NormalizationBasic,
		EntityCooldownDays: 3,
		Staleness: StalenessConfig{
			HorizonDays:      120,
			MinStalenessDays: 14,
		},
		Demand: DemandConfig{
			FavoritersWeight: 0.4,
			HighIntentWeight: 0.4,
			QueryWeight:      0.2,
			FavoritersCap:    25,
			HighIntentCap:    50,
			QueryCap:         50,
			MinScore:         0.05,
		},
		Quality: QualityConfig{
			Floor:  0.3,
			Policy: QualityDampen,
		},
		Explore: ExploreConfig{
			MaxDemand: 0.2,
		},
		Unmet: UnmetConfig{
			MinUsersThreshold:   2,
			UserCap:             20,
			HalfLifeDays:        7,
			PenaltyWindowDays:   30,
			NoResultsPenalty:    0.3,
			HotSpikeThreshold:   5,
			UnresolvedSeverity:  1.0,
			LowResultSeverity:   0.8,
			CooldownFloorDays:   21,
			NoResultsMultiplier: 3,
		},
	}
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	if c.CycleBudget < 0 {
		return fmt.Errorf("cycle_budget must be non-negative, got %d", c.CycleBudget)
	}
	if c.CandidatePoolSize < 1 {
		return fmt.Errorf("candidate_pool_size must be positive, got %d", c.CandidatePoolSize)
	}

	for name, v := range map[string]float64{
		"shares.refresh": c.Shares.Refresh,
		"shares.demand":  c.Shares.Demand,
		"shares.unmet":   c.Shares.Unmet,
		"shares.explore": c.Shares.Explore,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %f", name, v)
		}
	}
	if math.Abs(c.Shares.Sum()-1) > 1e-6 {
		return fmt.Errorf("shares must sum to 1, got %f", c.Shares.Sum())
	}

	if _, err := NewNormalizer(c.Normalization); err != nil {
		return err
	}
	if c.EntityCooldownDays < 0 {
		return fmt.Errorf("entity_cooldown_days must be non-negative, got %f", c.EntityCooldownDays)
	}

	if c.Staleness.HorizonDays <= 0 {
		return fmt.Errorf("staleness.horizon_days must be positive, got %f", c.Staleness.HorizonDays)
	}
	if c.Staleness.MinStalenessDays < 0 {
		return fmt.Errorf("staleness.min_staleness_days must be non-negative, got %f", c.Staleness.MinStalenessDays)
	}

	d := c.Demand
	if d.FavoritersWeight < 0 || d.HighIntentWeight < 0 || d.QueryWeight < 0 {
		return fmt.Errorf("demand weights must be non-negative")
	}
	if d.FavoritersCap < 1 || d.HighIntentCap < 1 || d.QueryCap < 1 {
		return fmt.Errorf("demand caps must be positive")
	}
	if d.MinScore < 0 || d.MinScore > 1 {
		return fmt.Errorf("demand.min_score must be in [0, 1], got %f", d.MinScore)
	}

	if c.Quality.Floor < 0 || c.Quality.Floor > 1 {
		return fmt.Errorf("quality.floor must be in [0, 1], got %f", c.Quality.Floor)
	}
	if c.Quality.Policy != QualityDampen && c.Quality.Policy != QualityExclude {
		return fmt.Errorf("quality.policy must be %q or %q, got %q", QualityDampen, QualityExclude, c.Quality.Policy)
	}

	if c.Explore.MaxDemand < 0 || c.Explore.MaxDemand > 1 {
		return fmt.Errorf("explore.max_demand must be in [0, 1], got %f", c.Explore.MaxDemand)
	}

	u := c.Unmet
	if u.MinUsersThreshold < 1 {
		return fmt.Errorf("unmet.min_users_threshold must be positive, got %d", u.MinUsersThreshold)
	}
	if u.UserCap < 1 {
		return fmt.Errorf("unmet.user_cap must be positive, got %d", u.UserCap)
	}
	if u.HalfLifeDays <= 0 {
		return fmt.Errorf("unmet.half_life_days must be positive, got %f", u.HalfLifeDays)
	}
	if u.PenaltyWindowDays < 0 {
		return fmt.Errorf("unmet.penalty_window_days must be non-negative, got %f", u.PenaltyWindowDays)
	}
	if u.NoResultsPenalty < 0 || u.NoResultsPenalty > 1 {
		return fmt.Errorf("unmet.no_results_penalty must be in [0, 1], got %f", u.NoResultsPenalty)
	}
	if u.HotSpikeThreshold < 1 {
		return fmt.Errorf("unmet.hot_spike_threshold must be positive, got %d", u.HotSpikeThreshold)
	}
	if u.UnresolvedSeverity < 0 || u.UnresolvedSeverity > 1 || u.LowResultSeverity < 0 || u.LowResultSeverity > 1 {
		return fmt.Errorf("unmet severities must be in [0, 1]")
	}
	if u.CooldownFloorDays < 0 || u.NoResultsMultiplier < 0 {
		return fmt.Errorf("unmet cooldown settings must be non-negative")
	}

	return nil
}

// Clone returns a copy of the configuration. All nested fields are values.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
