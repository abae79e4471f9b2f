// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package metrics provides Prometheus instrumentation for Keyword Scout.

Instruments are registered once at package init through promauto and exposed
at /metrics by the ops HTTP service.

# Available Metrics

Cycle Metrics:
  - keywordscout_cycles_total: Cycles by trigger source and result (counter)
    Labels: source, result
  - keywordscout_cycle_duration_seconds: Wall time per cycle (histogram)
  - keywordscout_cycle_state_transitions_total: State machine entries (counter)
    Labels: state
  - keywordscout_keywords_selected_total: Final-list entries per slice (counter)
  - keywordscout_slice_underfill_total: Unfilled sub-budget per slice (counter)
  - keywordscout_keywords_deduped_total: Dropped duplicates by reason (counter)
  - keywordscout_lease_conflicts_total: Cycles refused by an active lease (counter)
  - keywordscout_recording_retries_total: Bookkeeping write retries (counter)

Signal Metrics:
  - keywordscout_signal_batch_duration_seconds: Bulk source reads (histogram)
    Labels: status
  - keywordscout_degraded_signals_total: Inputs replaced by defaults (counter)
    Labels: signal

Feedback Metrics:
  - keywordscout_outcomes_reported_total: Outcome callbacks (counter)
    Labels: outcome, result
  - keywordscout_unmet_occurrences_total: Unmet-demand occurrences (counter)
    Labels: reason, contribution
  - keywordscout_dispatch_total: FinalList publishes (counter)
    Labels: result

Infrastructure Metrics:
  - duckdb_query_duration_seconds / duckdb_query_errors_total
  - circuit_breaker_state / circuit_breaker_state_transitions_total

Most cycle-level counters are derived from a finished models.CycleRecord via
ObserveCycleRecord, so the numbers on dashboards always agree with the
persisted record.
*/
package metrics
