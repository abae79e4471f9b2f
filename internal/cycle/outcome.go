// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package cycle

import (
	"context"
	"fmt"

	"github.com/tomtom215/keywordscout/internal/metrics"
	"github.com/tomtom215/keywordscout/internal/models"
)

// ReportOutcome applies the execution layer's result for one term of the
// coverage area's latest cycle. Unmet terms update the tracker's cooldown;
// entity-backed terms update entity outcome bookkeeping.
func (o *Orchestrator) ReportOutcome(ctx context.Context, normalizedTerm, coverageKey string, outcome models.Outcome) (err error) {
	result := "applied"
	defer func() {
		if err != nil && result == "applied" {
			result = "error"
		}
		metrics.RecordOutcome(outcome, result)
	}()

	if _, err := models.ParseOutcome(string(outcome)); err != nil {
		result = "invalid"
		return err
	}

	rec, err := o.deps.Store.LatestCycleRecord(ctx, coverageKey)
	if err != nil {
		return fmt.Errorf("load latest cycle for %s: %w", coverageKey, err)
	}
	if rec == nil {
		result = "mismatch"
		return fmt.Errorf("%w: no cycle recorded for %s", ErrExecutionReportMismatch, coverageKey)
	}
	kw, ok := rec.FindSelected(normalizedTerm)
	if !ok {
		result = "mismatch"
		return fmt.Errorf("%w: %q not selected by cycle %s", ErrExecutionReportMismatch, normalizedTerm, rec.CycleID)
	}

	switch {
	case kw.Slice == models.SliceUnmet:
		if err := o.deps.Unmet.RecordOutcome(ctx, normalizedTerm, coverageKey, outcome); err != nil {
			return fmt.Errorf("record unmet outcome: %w", err)
		}
	case kw.SourceEntityID != nil:
		if err := o.deps.Store.RecordEntityOutcome(ctx, *kw.SourceEntityID, outcome, o.now()); err != nil {
			return fmt.Errorf("record entity outcome: %w", err)
		}
	}

	o.logger.Debug().Str("coverage_key", coverageKey).Str("term", normalizedTerm).
		Str("slice", string(kw.Slice)).Str("outcome", string(outcome)).Msg("Outcome applied")
	return nil
}
