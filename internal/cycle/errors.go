// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package cycle

import (
	"errors"

	"github.com/tomtom215/keywordscout/internal/coverage"
	"github.com/tomtom215/keywordscout/internal/dispatch"
)

var (
	// ErrUnresolvableLocality aliases the resolver's error for callers that
	// only import this package.
	ErrUnresolvableLocality = coverage.ErrUnresolvableLocality

	// ErrIdentityOnlyCoverage is returned when the resolved area cannot be
	// executed against. Demand is still recorded for it elsewhere.
	ErrIdentityOnlyCoverage = errors.New("coverage area is identity-only")

	// ErrConcurrentCycleConflict is returned when another cycle holds the
	// coverage area's lease.
	ErrConcurrentCycleConflict = errors.New("concurrent cycle in progress for coverage area")

	// ErrDispatchFailed is returned when the final list could not be handed
	// to the execution layer. Nothing is recorded.
	ErrDispatchFailed = errors.New("dispatch failed")

	// ErrRecordingFailed is returned when bookkeeping retries are exhausted
	// after a successful dispatch. The dispatch stands.
	ErrRecordingFailed = errors.New("recording failed after dispatch")

	// ErrRecordingSuppressed is returned when the cycle was cancelled after
	// dispatch, so nothing was recorded.
	ErrRecordingSuppressed = errors.New("recording suppressed by cancellation")

	// ErrExecutionReportMismatch is returned by ReportOutcome for a term the
	// area's latest cycle did not select.
	ErrExecutionReportMismatch = dispatch.ErrReportMismatch
)
