// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

/*
Package dispatch connects cycles to the search-execution layer.

Outbound, a Publisher sends each cycle's FinalList to the execution layer as
one message on the final-list topic. The message id is the cycle id, so a
JetStream stream with a duplicate window drops re-sent lists for the same
cycle.

Inbound, an OutcomeRouter consumes per-term outcome reports and applies them
through an OutcomeReporter (the cycle orchestrator). Reports that reference
a term the latest cycle never selected are logged and acknowledged. When an
occurrence topic is configured, the same router also feeds unmet searches
reported by the search layer into an OccurrenceRecorder (the unmet tracker).

# Transport

Production deployments use NATS JetStream through watermill-nats. A single
node may run an EmbeddedServer instead of an external cluster. Tests use the
watermill gochannel pub/sub.

	srv, _ := dispatch.NewEmbeddedServer(&cfg.Server)
	_ = dispatch.EnsureStream(ctx, srv.ClientURL(), &cfg.Stream)
	pub, _ := dispatch.NewNATSPublisher(&cfg, srv.ClientURL(), wmLogger)
	publisher := dispatch.NewPublisher(pub, &cfg, logger)

# Resilience

Publishes pass through a token-bucket limiter (golang.org/x/time/rate) and a
circuit breaker (sony/gobreaker). The outcome router applies poison queue,
retry and panic recovery middleware, outermost first.
*/
package dispatch
