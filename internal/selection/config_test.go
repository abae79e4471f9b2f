// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package selection

import "testing"

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	t.Run("defaults validate", func(t *testing.T) {
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate() = %v, want nil", err)
		}
	})

	t.Run("shares sum to 1", func(t *testing.T) {
		if sum := cfg.Shares.Sum(); sum < 0.999 || sum > 1.001 {
			t.Errorf("Shares.Sum() = %f, want 1", sum)
		}
	})

	t.Run("horizon exceeds hard gate", func(t *testing.T) {
		if cfg.Staleness.HorizonDays <= cfg.Staleness.MinStalenessDays {
			t.Errorf("HorizonDays = %f, want > MinStalenessDays (%f)",
				cfg.Staleness.HorizonDays, cfg.Staleness.MinStalenessDays)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{name: "valid default", modify: func(c *Config) {}},
		{name: "negative budget", modify: func(c *Config) { c.CycleBudget = -1 }, wantError: true},
		{name: "zero budget allowed", modify: func(c *Config) { c.CycleBudget = 0 }},
		{name: "zero pool size", modify: func(c *Config) { c.CandidatePoolSize = 0 }, wantError: true},
		{name: "shares do not sum to 1", modify: func(c *Config) { c.Shares.Explore = 0.5 }, wantError: true},
		{name: "negative share", modify: func(c *Config) { c.Shares.Explore = -0.08; c.Shares.Refresh = 0.56 }, wantError: true},
		{name: "unknown normalization", modify: func(c *Config) { c.Normalization = "soundex" }, wantError: true},
		{name: "folding normalization", modify: func(c *Config) { c.Normalization = NormalizationFolding }},
		{name: "zero horizon", modify: func(c *Config) { c.Staleness.HorizonDays = 0 }, wantError: true},
		{name: "negative demand weight", modify: func(c *Config) { c.Demand.QueryWeight = -1 }, wantError: true},
		{name: "zero demand cap", modify: func(c *Config) { c.Demand.QueryCap = 0 }, wantError: true},
		{name: "unknown quality policy", modify: func(c *Config) { c.Quality.Policy = "ignore" }, wantError: true},
		{name: "exclude quality policy", modify: func(c *Config) { c.Quality.Policy = QualityExclude }},
		{name: "zero min users", modify: func(c *Config) { c.Unmet.MinUsersThreshold = 0 }, wantError: true},
		{name: "zero half life", modify: func(c *Config) { c.Unmet.HalfLifeDays = 0 }, wantError: true},
		{name: "penalty above 1", modify: func(c *Config) { c.Unmet.NoResultsPenalty = 1.5 }, wantError: true},
		{name: "zero hot spike threshold", modify: func(c *Config) { c.Unmet.HotSpikeThreshold = 0 }, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestConfig_Clone(t *testing.T) {
	cfg := DefaultConfig()
	clone := cfg.Clone()
	clone.CycleBudget = 99
	clone.Shares.Refresh = 0

	if cfg.CycleBudget == 99 || cfg.Shares.Refresh == 0 {
		t.Error("modifying clone changed the original")
	}
}
