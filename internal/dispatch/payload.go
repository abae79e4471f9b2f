// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/keywordscout/internal/models"
)

// ErrMalformedReport is returned for inbound payloads that cannot be applied.
var ErrMalformedReport = errors.New("dispatch: malformed report")

// FinalList is the message handed to the search-execution layer.
type FinalList struct {
	CycleID          string                   `json:"cycle_id"`
	CoverageKey      string                   `json:"coverage_key"`
	Source           models.CycleSource       `json:"source"`
	ExecutionTargets []string                 `json:"execution_targets"`
	Keywords         []models.SelectedKeyword `json:"keywords"`
	IssuedAt         time.Time                `json:"issued_at"`
}

// NewFinalList builds the outbound list from a cycle record.
func NewFinalList(rec *models.CycleRecord, issuedAt time.Time) FinalList {
	keywords := rec.SelectedKeywords
	if keywords == nil {
		keywords = []models.SelectedKeyword{}
	}
	return FinalList{
		CycleID:          rec.CycleID,
		CoverageKey:      rec.CoverageKey,
		Source:           rec.Source,
		ExecutionTargets: rec.ExecutionTargets,
		Keywords:         keywords,
		IssuedAt:         issuedAt.UTC(),
	}
}

// OutcomeReport is one per-term result sent back by the execution layer.
type OutcomeReport struct {
	CycleID        string         `json:"cycle_id,omitempty"`
	NormalizedTerm string         `json:"normalized_term"`
	CoverageKey    string         `json:"coverage_key"`
	Outcome        models.Outcome `json:"outcome"`
}

// DecodeOutcomeReport parses and validates an outcome payload.
func DecodeOutcomeReport(data []byte) (OutcomeReport, error) {
	var r OutcomeReport
	if err := json.Unmarshal(data, &r); err != nil {
		return OutcomeReport{}, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	if strings.TrimSpace(r.NormalizedTerm) == "" || strings.TrimSpace(r.CoverageKey) == "" {
		return OutcomeReport{}, fmt.Errorf("%w: term and coverage_key are required", ErrMalformedReport)
	}
	if _, err := models.ParseOutcome(string(r.Outcome)); err != nil {
		return OutcomeReport{}, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	return r, nil
}

// OccurrenceReport is one unmet search reported by the search layer: a term
// that resolved to no entity, or to one whose results were poor.
type OccurrenceReport struct {
	Term           string             `json:"term"`
	Reason         models.UnmetReason `json:"reason"`
	CoverageKey    string             `json:"coverage_key"`
	UserID         string             `json:"user_id"`
	LinkedEntityID *string            `json:"linked_entity_id,omitempty"`
}

// DecodeOccurrenceReport parses and validates an occurrence payload.
func DecodeOccurrenceReport(data []byte) (OccurrenceReport, error) {
	var r OccurrenceReport
	if err := json.Unmarshal(data, &r); err != nil {
		return OccurrenceReport{}, fmt.Errorf("%w: %v", ErrMalformedReport, err)
	}
	switch {
	case strings.TrimSpace(r.Term) == "" || strings.TrimSpace(r.CoverageKey) == "":
		return OccurrenceReport{}, fmt.Errorf("%w: term and coverage_key are required", ErrMalformedReport)
	case r.UserID == "":
		return OccurrenceReport{}, fmt.Errorf("%w: user_id is required", ErrMalformedReport)
	case !r.Reason.Valid():
		return OccurrenceReport{}, fmt.Errorf("%w: unknown reason %q", ErrMalformedReport, r.Reason)
	}
	return r, nil
}
