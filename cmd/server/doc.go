// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package main is the entry point for the Keyword Scout server.

Keyword Scout decides which search keywords a crawler fleet should run for
each coverage area. Every cycle resolves the area, refreshes demand signals,
scores known entities and unmet user searches, dedupes the candidates and
fills a fixed keyword budget split across refresh, demand, unmet and explore
slices. The final list is published to the execution layer over NATS
JetStream; outcome reports come back on a second subject and drive the
per-term cooldowns. Unmet searches reported by the search layer arrive on a
third subject and feed the unmet-demand tracker.

# Application Architecture

Services run under a Suture v4 supervisor tree:

	RootSupervisor ("keywordscout")
	├── MaintenanceSupervisor ("maintenance-layer")
	│   └── Contribution pruner
	├── MessagingSupervisor ("messaging-layer")
	│   └── Outcome consumer (watermill router, plus unmet occurrences)
	├── SchedulingSupervisor ("scheduling-layer")
	│   ├── Cycle scheduler
	│   └── Hot-spike trigger (optional)
	└── APISupervisor ("api-layer")
	    └── Ops HTTP server (health, metrics, debug reads)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, config.yaml and environment
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Database: DuckDB holding coverage, entities, metrics and cycle records
 4. Leases: BadgerDB, or in memory when LEASE_PATH is empty
 5. Messaging: embedded NATS server (optional), stream, publisher
 6. Engine: coverage resolver, signal aggregator, unmet tracker, orchestrator
 7. Services: scheduler, hot-spike trigger, pruner, outcome consumer
 8. HTTP: chi router on the ops port

# Signal Handling

SIGINT and SIGTERM cancel the root context. Running cycles get the
supervisor's shutdown timeout to finish; the publisher, embedded NATS
server, lease store and database are closed after the tree stops.

# Example Usage

Single node with an embedded NATS server:

	export DUCKDB_PATH=/data/keywordscout.duckdb
	export LEASE_PATH=/data/leases
	export NATS_EMBEDDED=true
	./keywordscout

Against an external NATS cluster:

	export NATS_EMBEDDED=false
	export NATS_URL=nats://nats-1:4222,nats://nats-2:4222
	./keywordscout
*/
package main
