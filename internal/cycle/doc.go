// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package cycle runs keyword selection cycles for coverage areas.

A cycle walks a fixed sequence of states:

	Idle -> ResolvingCoverage -> Aggregating -> Scoring -> Allocating -> Emitting -> Recording -> Idle

ResolvingCoverage maps the caller's locality hint to a coverage area and
takes the area's lease. Unresolvable hints and identity-only areas end the
cycle here with no record.

Aggregating reads the entity catalog for every category and refreshes
demand metrics. Scoring builds candidate pools per category alongside the
unmet-demand ranking, all concurrently, and waits for every producer before
moving on. A failing producer leaves its pool empty and is listed in the
record's Degraded field.

Allocating dedupes the pools and fills the cycle budget. Emitting hands the
final list to the execution layer. From that point the cycle is committed:
cancellation only skips Recording, which writes entity selections and the
CycleRecord with bounded retries.

ReportOutcome applies per-term results from the execution layer to the
unmet-demand tracker or to entity bookkeeping, depending on which slice
selected the term in the area's latest cycle.
*/
package cycle
