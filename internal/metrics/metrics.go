// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/keywordscout/internal/models"
)

var (
	// Cycle Metrics
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_cycles_total",
			Help: "Total number of cycles by trigger source and result",
		},
		[]string{"source", "result"}, // result: "recorded", "unresolvable", "identity_only", "conflict", "cancelled", "dispatch_failed", "recording_failed", "recording_suppressed", "error"
	)

	CycleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keywordscout_cycle_duration_seconds",
			Help:    "Duration of a full cycle in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	CycleStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_cycle_state_transitions_total",
			Help: "Total number of cycle state machine transitions by target state",
		},
		[]string{"state"},
	)

	KeywordsSelected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_keywords_selected_total",
			Help: "Total number of keywords placed in final lists by slice",
		},
		[]string{"slice"},
	)

	SliceUnderfill = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_slice_underfill_total",
			Help: "Total sub-budget left unfilled because a slice pool was exhausted",
		},
		[]string{"slice"},
	)

	KeywordsDeduped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_keywords_deduped_total",
			Help: "Total number of candidates dropped as duplicates",
		},
		[]string{"reason"},
	)

	LeaseConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keywordscout_lease_conflicts_total",
			Help: "Total number of cycles refused because the coverage key was leased",
		},
	)

	RecordingRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "keywordscout_recording_retries_total",
			Help: "Total number of retried bookkeeping writes",
		},
	)

	// Signal Metrics
	SignalBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keywordscout_signal_batch_duration_seconds",
			Help:    "Duration of bulk source-event reads in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"}, // "success", "error"
	)

	DegradedSignals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_degraded_signals_total",
			Help: "Total number of inputs replaced by defaults after a failed or slow read",
		},
		[]string{"signal"},
	)

	// Feedback Metrics
	OutcomesReported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_outcomes_reported_total",
			Help: "Total number of per-term outcome reports",
		},
		[]string{"outcome", "result"}, // result: "applied", "mismatch", "error"
	)

	UnmetOccurrences = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_unmet_occurrences_total",
			Help: "Total number of unmet-demand occurrences",
		},
		[]string{"reason", "contribution"}, // contribution: "new_user", "repeat"
	)

	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_dispatch_total",
			Help: "Total number of final-list dispatch attempts",
		},
		[]string{"result"},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Ops HTTP Metrics
	OpsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "keywordscout_ops_requests_total",
			Help: "Total number of ops HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	OpsRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "keywordscout_ops_request_duration_seconds",
			Help:    "Duration of ops HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordCycle records the result and duration of one cycle.
func RecordCycle(source models.CycleSource, result string, duration time.Duration) {
	CyclesTotal.WithLabelValues(string(source), result).Inc()
	CycleDuration.WithLabelValues(string(source)).Observe(duration.Seconds())
}

// RecordCycleState counts entry into a state machine state.
func RecordCycleState(state string) {
	CycleStateTransitions.WithLabelValues(state).Inc()
}

// ObserveCycleRecord derives selection counters from a finished record.
func ObserveCycleRecord(rec *models.CycleRecord) {
	if rec == nil {
		return
	}
	for slice, n := range rec.BudgetBySlice {
		if n > 0 {
			KeywordsSelected.WithLabelValues(string(slice)).Add(float64(n))
		}
	}
	for slice, n := range rec.Underfill {
		if n > 0 {
			SliceUnderfill.WithLabelValues(string(slice)).Add(float64(n))
		}
	}
	for _, d := range rec.DedupedOut {
		KeywordsDeduped.WithLabelValues(string(d.DedupeReason)).Inc()
	}
}

// RecordLeaseConflict counts a refused cycle.
func RecordLeaseConflict() {
	LeaseConflicts.Inc()
}

// RecordRecordingRetry counts a retried bookkeeping write.
func RecordRecordingRetry() {
	RecordingRetries.Inc()
}

// RecordSignalBatch records a bulk source read.
func RecordSignalBatch(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	SignalBatchDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordDegradedSignal counts an input replaced by its default.
func RecordDegradedSignal(signal string) {
	DegradedSignals.WithLabelValues(signal).Inc()
}

// RecordOutcome counts an outcome report and how it was handled.
func RecordOutcome(outcome models.Outcome, result string) {
	OutcomesReported.WithLabelValues(string(outcome), result).Inc()
}

// RecordUnmetOccurrence counts an occurrence, split by whether it added a
// new distinct user.
func RecordUnmetOccurrence(reason models.UnmetReason, newUser bool) {
	contribution := "repeat"
	if newUser {
		contribution = "new_user"
	}
	UnmetOccurrences.WithLabelValues(string(reason), contribution).Inc()
}

// RecordDispatch counts a dispatch attempt.
func RecordDispatch(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	DispatchTotal.WithLabelValues(result).Inc()
}

// RecordDBQuery records a database query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordOpsRequest records one ops HTTP request. route is the matched
// pattern, not the raw path, to bound label cardinality.
func RecordOpsRequest(method, route, status string, duration time.Duration) {
	OpsRequestsTotal.WithLabelValues(method, route, status).Inc()
	OpsRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordCircuitBreakerTransition updates breaker state gauges.
func RecordCircuitBreakerTransition(name, from, to string, toValue float64) {
	CircuitBreakerState.WithLabelValues(name).Set(toValue)
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// BreakerStateValue maps a breaker state onto the CircuitBreakerState gauge
// (0 closed, 1 half-open, 2 open).
func BreakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
