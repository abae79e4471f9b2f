// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/keywordscout/internal/models"
)

// DueAreaSource lists full coverage areas whose safe interval has elapsed.
//
// Satisfied by *database.DB.
type DueAreaSource interface {
	DueCoverageAreas(ctx context.Context, now time.Time) ([]models.CoverageArea, error)
}

// CycleSchedulerService launches scheduled cycles for due coverage areas.
//
// It scans once on start and then every interval. Scan errors are logged and
// retried on the next tick rather than returned, so a flaky database does not
// burn through the supervisor's restart budget.
type CycleSchedulerService struct {
	areas    DueAreaSource
	launcher *Launcher
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
	name     string
}

// NewCycleSchedulerService creates the scheduled-cycle service.
func NewCycleSchedulerService(areas DueAreaSource, launcher *Launcher, interval time.Duration, logger zerolog.Logger) *CycleSchedulerService {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CycleSchedulerService{
		areas:    areas,
		launcher: launcher,
		interval: interval,
		logger:   logger.With().Str("component", "cycle-scheduler").Logger(),
		now:      time.Now,
		name:     "cycle-scheduler",
	}
}

// Serve implements suture.Service.
func (s *CycleSchedulerService) Serve(ctx context.Context) error {
	defer s.launcher.Wait()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

// scan returns the number of cycles it launched.
func (s *CycleSchedulerService) scan(ctx context.Context) int {
	due, err := s.areas.DueCoverageAreas(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("Failed to list due coverage areas")
		}
		return 0
	}

	launched := 0
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		if s.launcher.TryLaunch(ctx, due[i].CoverageKey, models.SourceScheduled) {
			launched++
		}
	}
	if len(due) > 0 {
		s.logger.Debug().Int("due", len(due)).Int("launched", launched).Msg("Scheduler scan")
	}
	return launched
}

// String implements fmt.Stringer for logging.
func (s *CycleSchedulerService) String() string {
	return s.name
}
