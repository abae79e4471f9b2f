// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package models

import "time"

// SourceType distinguishes coverage areas that can be searched from those
// used only for demand bookkeeping.
type SourceType string

const (
	SourceTypeFull         SourceType = "full"
	SourceTypeIdentityOnly SourceType = "identity-only"
)

// CoverageArea is the canonical identity of a locality. ExecutionTargets are
// the external channels that serve it; an area is never keyed by a target.
type CoverageArea struct {
	CoverageKey      string     `json:"coverage_key"`
	DisplayName      string     `json:"display_name"`
	SourceType       SourceType `json:"source_type"`
	ExecutionTargets []string   `json:"execution_targets"`
	SafeIntervalDays int        `json:"safe_interval_days"`

	// Optional geometry used for enclosing-area resolution.
	CenterLat *float64 `json:"center_lat,omitempty"`
	CenterLon *float64 `json:"center_lon,omitempty"`
	RadiusKm  *float64 `json:"radius_km,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// Executable reports whether cycles may dispatch searches for this area.
func (a *CoverageArea) Executable() bool {
	return a.SourceType == SourceTypeFull && len(a.ExecutionTargets) > 0
}

// HasGeometry reports whether the area carries a centroid and radius.
func (a *CoverageArea) HasGeometry() bool {
	return a.CenterLat != nil && a.CenterLon != nil && a.RadiusKm != nil && *a.RadiusKm > 0
}
