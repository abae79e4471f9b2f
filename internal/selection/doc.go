// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

// Package selection implements the pure selection math for a keyword cycle.
//
// Nothing in this package performs I/O. Given the same inputs and the same
// Config it always produces the same output, which is what makes cycle
// results reproducible in tests and explainable after the fact.
//
// # Components
//
//   - Normalizer: canonicalizes keyword text (BasicNormalizer, FoldingNormalizer)
//   - Dedupe: score-ordered, first-occurrence-wins deduplication by normalized term
//   - Scorer: per-entity refresh, demand and explore scores
//   - RankUnmet: eligibility and scoring for unmet-demand terms
//   - Allocate: splits the cycle budget across slices and merges them
//
// # Slices
//
// Each candidate belongs to exactly one slice. Scores are only comparable
// inside a slice; the allocator never ranks candidates across slices by score.
// Slices merge in fixed priority order:
//
//	unmet -> refresh -> demand -> explore
//
// # Determinism
//
// Every sort is stable and breaks score ties on the candidate's tie-break key
// (entity id for entity-backed candidates, request id for unmet terms).
//
// # Configuration
//
// All weights, shares and thresholds live in one Config value. Build it with
// DefaultConfig, adjust, then call Validate before handing it to a cycle.
package selection
