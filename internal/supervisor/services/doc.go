// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package services provides suture.Service wrappers for Keyword Scout's
long-running components.

# Available Services

Cycle scheduling (CycleSchedulerService, HotSpikeService):
  - Both launch cycles through a shared Launcher
  - The scheduler scans for due coverage areas every interval
  - The hot-spike trigger launches off-schedule cycles, at most once per
    area per minimum gap

Launcher:
  - Caps concurrent cycles with a weighted semaphore
  - Skips areas that already have a cycle running in this process
  - Applies the per-cycle timeout and logs each cycle's result

Maintenance (ContributionPrunerService):
  - Deletes per-user unmet contributions past the retention window

Messaging (OutcomeConsumerService):
  - Runs the outcome report router, rebuilt on every restart

Ops API (HTTPServerService):
  - Wraps *http.Server with graceful shutdown

# Error Handling

Return values determine supervisor behavior:

	nil         -> Service stopped cleanly, will not restart
	error       -> Service crashed, supervisor will restart
	ctx.Err()   -> Shutdown requested, normal termination

Periodic services log scan failures and carry on with the next tick.
*/
package services
