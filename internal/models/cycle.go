// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package models

import "time"

// CycleSource records what triggered a cycle.
type CycleSource string

const (
	SourceScheduled CycleSource = "scheduled"
	SourceHotSpike  CycleSource = "hot_spike"
	SourceManual    CycleSource = "manual"
)

// Valid reports whether s is a known cycle source.
func (s CycleSource) Valid() bool {
	return s == SourceScheduled || s == SourceHotSpike || s == SourceManual
}

// SelectedKeyword is one entry of the final ordered list.
type SelectedKeyword struct {
	Term            string  `json:"term"` // normalized
	DisplayTerm     string  `json:"display_term"`
	Slice           Slice   `json:"slice"`
	SourceEntityID  *string `json:"source_entity_id,omitempty"`
	SourceRequestID *string `json:"source_request_id,omitempty"`
	Score           float64 `json:"score"`
}

// DedupeReason explains why a candidate was dropped.
type DedupeReason string

const (
	// DedupeWithinSlice marks a term repeated inside one slice's pool.
	DedupeWithinSlice DedupeReason = "duplicate_in_slice"
	// DedupeCrossSlice marks a term already taken by a higher-priority slice.
	DedupeCrossSlice DedupeReason = "selected_by_higher_priority_slice"
)

// DedupedTerm records a candidate dropped as a duplicate.
type DedupedTerm struct {
	Term            string       `json:"term"`
	Slice           Slice        `json:"slice"`
	SourceEntityID  *string      `json:"source_entity_id,omitempty"`
	SourceRequestID *string      `json:"source_request_id,omitempty"`
	Score           float64      `json:"score"`
	DedupeReason    DedupeReason `json:"dedupe_reason"`
	KeptBy          Slice        `json:"kept_by,omitempty"` // slice that holds the surviving copy
}

// CycleStatus summarizes how a recorded cycle went.
type CycleStatus string

const (
	// StatusCompleted means every input was read successfully.
	StatusCompleted CycleStatus = "completed"
	// StatusDegraded means at least one input fell back to its default.
	StatusDegraded CycleStatus = "degraded"
)

// CycleRecord is the immutable summary of one scheduling run.
type CycleRecord struct {
	CycleID          string            `json:"cycle_id"`
	CoverageKey      string            `json:"coverage_key"`
	StartedAt        time.Time         `json:"started_at"`
	FinishedAt       time.Time         `json:"finished_at"`
	Source           CycleSource       `json:"source"`
	CycleBudget      int               `json:"cycle_budget"`
	SelectedKeywords []SelectedKeyword `json:"selected_keywords"`
	DedupedOutCount  int               `json:"deduped_out_count"`
	BudgetBySlice    map[Slice]int     `json:"budget_by_slice"` // filled counts
	SubBudgets       map[Slice]int     `json:"sub_budgets"`
	Underfill        map[Slice]int     `json:"underfill,omitempty"`
	DedupedOut       []DedupedTerm     `json:"deduped_out,omitempty"`
	Degraded         []string          `json:"degraded,omitempty"`
	ExecutionTargets []string          `json:"execution_targets"`
	Status           CycleStatus       `json:"status"`
}

// FindSelected returns the selected keyword with the given normalized term.
func (r *CycleRecord) FindSelected(term string) (SelectedKeyword, bool) {
	for _, kw := range r.SelectedKeywords {
		if kw.Term == term {
			return kw, true
		}
	}
	return SelectedKeyword{}, false
}
