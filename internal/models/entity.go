// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package models

import "time"

// Category is the entity type used to group catalog reads and high-intent signals.
type Category string

const (
	CategoryPlace     Category = "place"
	CategoryDish      Category = "dish"
	CategoryAttribute Category = "attribute"
)

// Entity is a named thing eligible for refresh. It is owned by the enrichment
// pipeline; this module only writes LastSelectedAt.
type Entity struct {
	EntityID       string     `json:"entity_id"`
	Name           string     `json:"name"`
	Category       Category   `json:"category"`
	LastUpdatedAt  time.Time  `json:"last_updated_at"`
	QualityScore   float64    `json:"quality_score"` // 0..1, precomputed externally
	LocalityKey    *string    `json:"locality_key,omitempty"`
	LastSelectedAt *time.Time `json:"last_selected_at,omitempty"`
}

// AppliesTo reports whether the entity belongs to coverageKey. Entities
// without a locality are global and apply everywhere.
func (e *Entity) AppliesTo(coverageKey string) bool {
	return e.LocalityKey == nil || *e.LocalityKey == coverageKey
}

// DemandMetric is a windowed distinct-user aggregate for one entity. It is
// always replaced wholesale on recomputation.
type DemandMetric struct {
	EntityID                string    `json:"entity_id"`
	WindowDays              int       `json:"window_days"`
	DistinctFavoriters      int       `json:"distinct_favoriters"`
	DistinctHighIntentUsers int       `json:"distinct_high_intent_users"`
	DistinctQueryUsers      int       `json:"distinct_query_users"`
	QueryCredit             float64   `json:"query_credit"` // attributed query demand, strategy dependent
	ComputedAt              time.Time `json:"computed_at"`
}

// ZeroMetric returns an empty metric for an entity whose signals are unavailable.
func ZeroMetric(entityID string, windowDays int, at time.Time) DemandMetric {
	return DemandMetric{EntityID: entityID, WindowDays: windowDays, ComputedAt: at}
}
