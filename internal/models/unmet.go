// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package models

import (
	"fmt"
	"time"
)

// UnmetReason explains why a user-stated term is tracked as unmet demand.
type UnmetReason string

const (
	ReasonUnresolved UnmetReason = "unresolved"
	ReasonLowResult  UnmetReason = "low_result"
)

// Valid reports whether r is a known reason.
func (r UnmetReason) Valid() bool {
	return r == ReasonUnresolved || r == ReasonLowResult
}

// Outcome is the result the search-execution layer reports per term.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeNoResults Outcome = "no_results"
	OutcomeError     Outcome = "error"
)

// ParseOutcome validates an outcome string.
func ParseOutcome(s string) (Outcome, error) {
	switch o := Outcome(s); o {
	case OutcomeSuccess, OutcomeNoResults, OutcomeError:
		return o, nil
	default:
		return "", fmt.Errorf("unknown outcome %q", s)
	}
}

// UnmetDemandTerm aggregates explicit user demand that the catalog could not
// satisfy. Identity is (NormalizedTerm, Reason, CoverageKey).
type UnmetDemandTerm struct {
	Term              string      `json:"term"`
	NormalizedTerm    string      `json:"normalized_term"`
	CoverageKey       string      `json:"coverage_key"`
	Reason            UnmetReason `json:"reason"`
	DistinctUserCount int         `json:"distinct_user_count"`
	LastSeenAt        time.Time   `json:"last_seen_at"`
	LastAttemptAt     *time.Time  `json:"last_attempt_at,omitempty"`
	LastOutcome       *Outcome    `json:"last_outcome,omitempty"`
	CooldownUntil     *time.Time  `json:"cooldown_until,omitempty"`
	LinkedEntityID    *string     `json:"linked_entity_id,omitempty"` // low_result only
}

// RequestID is the stable identifier carried by unmet candidates as their
// source request id.
func (u *UnmetDemandTerm) RequestID() string {
	return string(u.Reason) + ":" + u.NormalizedTerm
}
