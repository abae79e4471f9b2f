// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

// Package coverage resolves locality hints to canonical coverage areas.
//
// Resolution order:
//
//  1. exact coverage key match (explicit or computed from the hint)
//  2. smallest known area whose radius encloses the hint coordinates
//  3. a new identity-only area keyed by the canonical key, if allowed
//
// When none of these apply the resolver returns ErrUnresolvableLocality and
// the caller records demand only. Synthesized areas are written with an
// insert-if-absent upsert, so concurrent resolutions of the same key converge
// on a single row.
package coverage
