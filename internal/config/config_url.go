// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package config

import (
	"fmt"
	"net/url"
	"strings"
)

var natsSchemes = map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}

// validateNATSURL accepts a single server URL or a comma-separated seed list,
// the form nats.Connect takes for clusters.
func validateNATSURL(raw string) error {
	for i, server := range strings.Split(raw, ",") {
		server = strings.TrimSpace(server)
		if server == "" {
			return fmt.Errorf("server %d in list is empty", i)
		}
		u, err := url.Parse(server)
		if err != nil {
			return fmt.Errorf("server %d: %w", i, err)
		}
		if !natsSchemes[u.Scheme] {
			return fmt.Errorf("server %d: scheme must be nats, tls, ws or wss, got %q", i, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("server %d: host is required (e.g. localhost:4222)", i)
		}
	}
	return nil
}
