// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package models

// Slice is one of the four candidate pools competing for a cycle budget.
type Slice string

const (
	SliceRefresh Slice = "refresh"
	SliceDemand  Slice = "demand"
	SliceUnmet   Slice = "unmet"
	SliceExplore Slice = "explore"
)

// AllSlices lists every slice in declaration order.
var AllSlices = []Slice{SliceRefresh, SliceDemand, SliceUnmet, SliceExplore}

// KeywordCandidate is one scored term proposed by a slice for the current cycle.
type KeywordCandidate struct {
	NormalizedTerm  string  `json:"normalized_term"`
	DisplayTerm     string  `json:"display_term"`
	Slice           Slice   `json:"slice"`
	Score           float64 `json:"score"` // 0..1, comparable only within a slice
	SourceEntityID  *string `json:"source_entity_id,omitempty"`
	SourceRequestID *string `json:"source_request_id,omitempty"`
}

// TieBreakKey orders candidates with equal scores. Entity-backed candidates
// sort by entity id, unmet candidates by request id.
func (c *KeywordCandidate) TieBreakKey() string {
	switch {
	case c.SourceEntityID != nil:
		return *c.SourceEntityID
	case c.SourceRequestID != nil:
		return *c.SourceRequestID
	default:
		return c.NormalizedTerm
	}
}

// EntityBacked reports whether the candidate came from an entity.
func (c *KeywordCandidate) EntityBacked() bool {
	return c.SourceEntityID != nil
}
