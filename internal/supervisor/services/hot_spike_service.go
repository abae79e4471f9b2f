// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/keywordscout/internal/models"
)

// SpikeSource lists coverage keys with a term at or above the hot-spike
// threshold.
//
// Satisfied by *unmet.Tracker.
type SpikeSource interface {
	HotSpikes(ctx context.Context, now time.Time) ([]string, error)
}

// HotSpikeService launches off-schedule cycles for areas whose unmet demand
// spiked. An area is not relaunched within minGap of its previous spike
// launch.
type HotSpikeService struct {
	spikes   SpikeSource
	launcher *Launcher
	interval time.Duration
	minGap   time.Duration
	logger   zerolog.Logger
	now      func() time.Time
	name     string

	mu   sync.Mutex
	last map[string]time.Time
}

// NewHotSpikeService creates the hot-spike trigger service.
func NewHotSpikeService(spikes SpikeSource, launcher *Launcher, interval, minGap time.Duration, logger zerolog.Logger) *HotSpikeService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &HotSpikeService{
		spikes:   spikes,
		launcher: launcher,
		interval: interval,
		minGap:   minGap,
		logger:   logger.With().Str("component", "hot-spike").Logger(),
		now:      time.Now,
		name:     "hot-spike-trigger",
		last:     make(map[string]time.Time),
	}
}

// Serve implements suture.Service.
func (s *HotSpikeService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

func (s *HotSpikeService) scan(ctx context.Context) int {
	now := s.now()
	keys, err := s.spikes.HotSpikes(ctx, now)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("Failed to list hot spikes")
		}
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	launched := 0
	for _, key := range keys {
		if prev, ok := s.last[key]; ok && now.Sub(prev) < s.minGap {
			continue
		}
		if s.launcher.TryLaunch(ctx, key, models.SourceHotSpike) {
			s.last[key] = now
			launched++
			s.logger.Info().Str("coverage_key", key).Msg("Hot spike cycle launched")
		}
	}

	// Forget areas whose gap has elapsed so the map tracks only recent launches.
	for key, prev := range s.last {
		if now.Sub(prev) >= s.minGap {
			delete(s.last, key)
		}
	}
	return launched
}

// String implements fmt.Stringer for logging.
func (s *HotSpikeService) String() string {
	return s.name
}
