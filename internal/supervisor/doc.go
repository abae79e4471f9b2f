// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package supervisor provides process supervision for Keyword Scout using
suture v4.

# Overview

Services are grouped into layers so a failure in one does not restart the
others:

	RootSupervisor ("keywordscout")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── ContributionPrunerService
	├── MessagingSupervisor ("messaging-layer")
	│   └── OutcomeConsumerService
	├── SchedulingSupervisor ("scheduling-layer")
	│   ├── CycleSchedulerService
	│   └── HotSpikeService (if enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (if enabled)

A crash in the outcome consumer does not stop scheduled cycles, and a stuck
NATS connection does not take the ops API down with it.

# Configuration

TreeConfig controls restart behavior. Zero values fall back to suture's own
defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

ShutdownTimeout should exceed the cycle timeout, since the scheduler waits
for running cycles before it returns.

# What Is NOT Supervised

DuckDB, the Badger lease store and the embedded NATS server are opened and
closed by main. They are libraries or in-process servers without a Serve
loop of their own.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}
*/
package supervisor
