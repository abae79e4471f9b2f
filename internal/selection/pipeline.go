// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import "github.com/tomtom215/keywordscout/internal/models"

// Selection is the outcome of running dedupe and allocation over raw pools.
type Selection struct {
	Allocation
	// DedupedOut lists every duplicate dropped within or across slices.
	DedupedOut []models.DedupedTerm
}

// DedupedOutCount is the number of candidates dropped as duplicates.
func (s *Selection) DedupedOutCount() int {
	return len(s.DedupedOut)
}

// Select dedupes each raw pool down to CandidatePoolSize and allocates the
// cycle budget across the cleaned pools.
func Select(cfg *Config, raw Pools) Selection {
	cleaned := make(Pools, len(MergeOrder))
	var dropped []models.DedupedTerm
	for _, slice := range MergeOrder {
		res := Dedupe(raw[slice], cfg.CandidatePoolSize)
		cleaned[slice] = res.Kept
		dropped = append(dropped, res.Dropped...)
	}

	alloc := Allocate(cfg.CycleBudget, cfg.Shares, cleaned)
	return Selection{
		Allocation: alloc,
		DedupedOut: append(dropped, alloc.Dropped...),
	}
}
