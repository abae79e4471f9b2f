// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package cycle

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/keywordscout/internal/logging"
	"github.com/tomtom215/keywordscout/internal/metrics"
	"github.com/tomtom215/keywordscout/internal/models"
)

// record writes entity selections and the cycle record. Both writes are
// idempotent on the cycle id, so the whole step is retried together.
func (o *Orchestrator) record(ctx context.Context, rec *models.CycleRecord) error {
	entityIDs := selectedEntityIDs(rec)

	op := func() error {
		if len(entityIDs) > 0 {
			if err := o.deps.Store.MarkEntitiesSelected(ctx, entityIDs, rec.CycleID, rec.FinishedAt); err != nil {
				return fmt.Errorf("mark entities selected: %w", err)
			}
		}
		if err := o.deps.Store.InsertCycleRecord(ctx, rec); err != nil {
			return fmt.Errorf("insert cycle record: %w", err)
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		metrics.RecordRecordingRetry()
		logging.Ctx(ctx).Warn().Err(err).Dur("retry_in", wait).Msg("Cycle recording failed, retrying")
	}

	return backoff.RetryNotify(op, o.recordingBackoff(ctx), notify)
}

func (o *Orchestrator) recordingBackoff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if o.cfg.RecordingInitialInterval > 0 {
		eb.InitialInterval = o.cfg.RecordingInitialInterval
	}
	if o.cfg.RecordingMaxInterval > 0 {
		eb.MaxInterval = o.cfg.RecordingMaxInterval
	}
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, o.cfg.RecordingMaxRetries), ctx)
}

func selectedEntityIDs(rec *models.CycleRecord) []string {
	var ids []string
	for _, kw := range rec.SelectedKeywords {
		if kw.SourceEntityID != nil && kw.Slice != models.SliceUnmet {
			ids = append(ids, *kw.SourceEntityID)
		}
	}
	return ids
}
