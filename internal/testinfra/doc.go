// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

// Package testinfra starts containers for integration tests.
//
// Everything here sits behind the integration build tag and needs Docker.
// Tests call SkipIfNoDocker first so they skip cleanly on machines without
// a daemon.
//
// # NATS Container
//
// NewNATSContainer runs a JetStream-enabled NATS server for exercising the
// dispatch transport against a real broker rather than the embedded one:
//
//	func TestDispatchRoundTrip(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    nats, err := testinfra.NewNATSContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    testinfra.TerminateOnCleanup(t, nats)
//
//	    cfg := dispatch.DefaultConfig()
//	    cfg.URL = nats.URL
//	    // ...
//	}
//
// First runs pull the image; later runs use the local cache.
package testinfra
