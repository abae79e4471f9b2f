// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package signals computes windowed, distinct-user demand metrics for entities.

The Aggregator reads engagement events for a set of entity ids in bulk
batches, never one entity per round trip. Batches run concurrently up to a
configured limit, each under its own timeout and behind a shared circuit
breaker. A batch that fails or times out degrades to zero metrics for its
entities; the cycle continues and the failure is reported in Result.

Counting rules:
  - Events without a user identity are excluded from every distinct count.
  - High-intent means a view for place entities and an explicit selection
    for every other category.
  - Query demand is credited by the configured Attribution strategy.

Fresh aggregates fully replace stored ones. Zeroed metrics from a degraded
batch are returned to the caller but never persisted, so a transient outage
does not wipe the last good values.
*/
package signals
