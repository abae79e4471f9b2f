// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package config

import (
	"fmt"

	"github.com/tomtom215/keywordscout/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	validators := []func() error{
		c.validateSelection,
		c.validateDispatch,
		c.validateScheduler,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// validateSelection runs the selection pipeline's own cross-field checks
// (shares summing to 1, normalizer name, weight ranges).
func (c *Config) validateSelection() error {
	if err := c.Selection.Validate(); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	return nil
}

// validateDispatch validates NATS configuration
func (c *Config) validateDispatch() error {
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if !c.Dispatch.Embedded {
		if err := validateNATSURL(c.Dispatch.URL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
	}
	return nil
}

// validateScheduler checks timing relationships between scheduler and cycle settings.
func (c *Config) validateScheduler() error {
	// A lease shorter than a cycle lets a second worker start while the
	// first still runs.
	if c.Cycle.LeaseTTL < c.Scheduler.CycleTimeout+c.Cycle.DispatchTimeout {
		return fmt.Errorf("cycle.lease_ttl (%s) must cover scheduler.cycle_timeout plus cycle.dispatch_timeout (%s)",
			c.Cycle.LeaseTTL, c.Scheduler.CycleTimeout+c.Cycle.DispatchTimeout)
	}
	return nil
}
