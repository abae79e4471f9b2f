// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package api

// HistoryRequest is the validated form of a cycle history query.
type HistoryRequest struct {
	CoverageKey string `json:"coverage_key" validate:"required,max=200"`
	Limit       int    `json:"limit" validate:"min=1,max=100"`
}
