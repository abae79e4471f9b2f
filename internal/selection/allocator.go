// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import (
	"math"

	"github.com/tomtom215/keywordscout/internal/models"
)

// MergeOrder is the fixed priority in which slices contribute to the final
// list. Unmet demand goes first because it is direct evidence of users the
// catalog is failing.
var MergeOrder = []models.Slice{
	models.SliceUnmet,
	models.SliceRefresh,
	models.SliceDemand,
	models.SliceExplore,
}

// Pools are the per-slice candidate lists fed to Allocate.
type Pools map[models.Slice][]models.KeywordCandidate

// Allocation is the allocator's result.
type Allocation struct {
	Final      []models.KeywordCandidate
	SubBudgets map[models.Slice]int
	Filled     map[models.Slice]int
	Underfill  map[models.Slice]int
	Dropped    []models.DedupedTerm
}

// SubBudgets splits cycleBudget by shares, rounding each non-refresh slice
// down and giving the remainder to refresh.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func SubBudgets(cycleBudget int, shares SliceShares) map[models.Slice]int {
	out := map[models.Slice]int{
		models.SliceRefresh: 0,
		models.SliceDemand:  0,
		models.SliceUnmet:   0,
		models.SliceExplore: 0,
	}
	if cycleBudget <= 0 {
		return out
	}

	// The epsilon keeps exact products such as 25*0.32 from flooring to 7.
	floor := func(share float64) int {
		return int(math.Floor(float64(cycleBudget)*share + 1e-9))
	}
	out[models.SliceDemand] = floor(shares.Demand)
	out[models.SliceUnmet] = floor(shares.Unmet)
	out[models.SliceExplore] = floor(shares.Explore)

	rest := cycleBudget - out[models.SliceDemand] - out[models.SliceUnmet] - out[models.SliceExplore]
	if rest < 0 {
		rest = 0
	}
	out[models.SliceRefresh] = rest
	return out
}

// Allocate fills each slice up to its sub-budget in MergeOrder. A term taken
// by a higher-priority slice is dropped from lower slices, which then
// backfill from their remaining candidates. The final list never exceeds
// cycleBudget and holds no two entries with the same normalized term.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func Allocate(cycleBudget int, shares SliceShares, pools Pools) Allocation {
	alloc := Allocation{
		SubBudgets: SubBudgets(cycleBudget, shares),
		Filled:     make(map[models.Slice]int, len(MergeOrder)),
		Underfill:  make(map[models.Slice]int),
	}

	takenBy := make(map[string]models.Slice)
	for _, slice := range MergeOrder {
		budget := alloc.SubBudgets[slice]
		filled := 0
		for _, c := range SortCandidates(pools[slice]) {
			if filled == budget {
				break
			}
			if owner, taken := takenBy[c.NormalizedTerm]; taken {
				reason := models.DedupeCrossSlice
				if owner == slice {
					reason = models.DedupeWithinSlice
				}
				alloc.Dropped = append(alloc.Dropped, dropped(c, reason, owner))
				continue
			}
			c.Slice = slice
			takenBy[c.NormalizedTerm] = slice
			alloc.Final = append(alloc.Final, c)
			filled++
		}
		alloc.Filled[slice] = filled
		if filled < budget {
			alloc.Underfill[slice] = budget - filled
		}
	}
	return alloc
}
