// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import (
	"cmp"
	"math"
	"slices"

	"github.com/tomtom215/keywordscout/internal/models"
)

// DedupeResult is the output of Dedupe.
type DedupeResult struct {
	// Kept holds unique candidates in score order.
	Kept []models.KeywordCandidate
	// Dropped holds duplicates encountered before the walk stopped.
	Dropped []models.DedupedTerm
}

// compareCandidates orders by score descending, then tie-break key ascending.
func compareCandidates(a, b models.KeywordCandidate) int {
	if a.Score != b.Score {
		if a.Score > b.Score {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.TieBreakKey(), b.TieBreakKey())
}

// SortCandidates returns a copy of cands in deterministic score order.
// Candidates with an empty normalized term or a non-finite score are invalid
// and left out.
func SortCandidates(cands []models.KeywordCandidate) []models.KeywordCandidate {
	out := make([]models.KeywordCandidate, 0, len(cands))
	for _, c := range cands {
		if c.NormalizedTerm == "" || math.IsNaN(c.Score) || math.IsInf(c.Score, 0) {
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, compareCandidates)
	return out
}

// Dedupe keeps the highest-scoring occurrence of each normalized term and
// stops once maxCount unique terms are collected. The result is short only
// when the input has fewer than maxCount distinct valid terms.
func Dedupe(cands []models.KeywordCandidate, maxCount int) DedupeResult {
	res := DedupeResult{}
	if maxCount <= 0 {
		return res
	}

	seen := make(map[string]models.Slice, min(len(cands), maxCount))
	for _, c := range SortCandidates(cands) {
		if len(res.Kept) == maxCount {
			break
		}
		if keptBy, dup := seen[c.NormalizedTerm]; dup {
			res.Dropped = append(res.Dropped, dropped(c, models.DedupeWithinSlice, keptBy))
			continue
		}
		seen[c.NormalizedTerm] = c.Slice
		res.Kept = append(res.Kept, c)
	}
	return res
}

func dropped(c models.KeywordCandidate, reason models.DedupeReason, keptBy models.Slice) models.DedupedTerm {
	return models.DedupedTerm{
		Term:            c.NormalizedTerm,
		Slice:           c.Slice,
		SourceEntityID:  c.SourceEntityID,
		SourceRequestID: c.SourceRequestID,
		Score:           c.Score,
		DedupeReason:    reason,
		KeptBy:          keptBy,
	}
}
