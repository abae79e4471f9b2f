// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package main

import (
	"github.com/tomtom215/keywordscout/internal/config"
	"github.com/tomtom215/keywordscout/internal/lease"
	"github.com/tomtom215/keywordscout/internal/logging"
)

// openLeaser returns the Badger lease store when a path is configured and an
// in-memory one otherwise. The returned func closes the store.
func openLeaser(cfg *config.LeaseConfig) (lease.Leaser, func(), error) {
	if cfg.Path == "" {
		logging.Warn().Msg("LEASE_PATH is empty; coverage leases are in memory and only guard this process")
		return lease.NewMemoryLeaser(), func() {}, nil
	}

	store, err := lease.OpenBadger(cfg.Path, cfg.Prefix)
	if err != nil {
		return nil, nil, err
	}
	logging.Info().Str("path", cfg.Path).Msg("Lease store opened")

	return store, func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing lease store")
		}
	}, nil
}
