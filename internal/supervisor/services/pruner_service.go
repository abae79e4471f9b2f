// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// ContributionPruner deletes stale per-user unmet contributions.
//
// Satisfied by *unmet.Tracker.
type ContributionPruner interface {
	PruneContributions(ctx context.Context, retention time.Duration) (int64, error)
}

// ContributionPrunerService prunes on start and then every interval.
type ContributionPrunerService struct {
	pruner    ContributionPruner
	interval  time.Duration
	retention time.Duration
	logger    zerolog.Logger
	name      string
}

// NewContributionPrunerService creates the pruning service.
func NewContributionPrunerService(pruner ContributionPruner, interval, retention time.Duration, logger zerolog.Logger) *ContributionPrunerService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &ContributionPrunerService{
		pruner:    pruner,
		interval:  interval,
		retention: retention,
		logger:    logger.With().Str("component", "contribution-pruner").Logger(),
		name:      "contribution-pruner",
	}
}

// Serve implements suture.Service.
func (s *ContributionPrunerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.prune(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.prune(ctx)
		}
	}
}

func (s *ContributionPrunerService) prune(ctx context.Context) {
	if _, err := s.pruner.PruneContributions(ctx, s.retention); err != nil && ctx.Err() == nil {
		s.logger.Error().Err(err).Msg("Contribution pruning failed")
	}
}

// String implements fmt.Stringer for logging.
func (s *ContributionPrunerService) String() string {
	return s.name
}
