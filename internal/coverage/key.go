// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package coverage

import (
	"strings"

	"github.com/tomtom215/keywordscout/internal/selection"
)

// LocalityHint is the caller's description of where a cycle should run.
// Either CoverageKey or Country+City (optionally Region) identifies the
// locality; Lat/Lon enable enclosing-area lookups.
type LocalityHint struct {
	CoverageKey string   `json:"coverage_key,omitempty"`
	Country     string   `json:"country,omitempty"`
	Region      string   `json:"region,omitempty"`
	City        string   `json:"city,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	Lat         *float64 `json:"lat,omitempty"`
	Lon         *float64 `json:"lon,omitempty"`
}

// HasPoint reports whether the hint carries coordinates.
func (h *LocalityHint) HasPoint() bool {
	return h.Lat != nil && h.Lon != nil
}

var folder = selection.FoldingNormalizer{}

// slug folds a locality component into a key segment.
func slug(s string) string {
	return strings.ReplaceAll(folder.Normalize(s), " ", "-")
}

// CanonicalizeKey folds every segment of an explicit key. It returns "" when
// no segment survives.
func CanonicalizeKey(key string) string {
	parts := strings.Split(key, "/")
	out := parts[:0]
	for _, p := range parts {
		if s := slug(p); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "/")
}

// CanonicalKey computes "country/region/city" (region optional) from the
// hint's components. It returns false when country or city is missing.
func CanonicalKey(h *LocalityHint) (string, bool) {
	country, region, city := slug(h.Country), slug(h.Region), slug(h.City)
	if country == "" || city == "" {
		return "", false
	}
	if region == "" {
		return country + "/" + city, true
	}
	return country + "/" + region + "/" + city, true
}

// displayName builds a human-readable name for a synthesized area.
func displayName(h *LocalityHint, key string) string {
	if h.DisplayName != "" {
		return h.DisplayName
	}
	var parts []string
	for _, p := range []string{h.City, h.Region, h.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return key
	}
	return strings.Join(parts, ", ")
}
