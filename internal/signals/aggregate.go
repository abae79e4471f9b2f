// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package signals

import (
	"fmt"
	"time"

	"github.com/tomtom215/keywordscout/internal/models"
)

// EventKind identifies a type of user engagement.
type EventKind string

const (
	KindFavorite  EventKind = "favorite"
	KindView      EventKind = "view"
	KindSelection EventKind = "selection"
	KindSearch    EventKind = "search"
)

// EngagementEvent is one source event attached to an entity. UserID is nil
// for anonymous events. For search events SearchID identifies the search and
// ResolvedEntityCount is the number of entities that search resolved to.
type EngagementEvent struct {
	EntityID            string          `json:"entity_id"`
	Category            models.Category `json:"category"`
	Kind                EventKind       `json:"kind"`
	UserID              *string         `json:"user_id,omitempty"`
	SearchID            *string         `json:"search_id,omitempty"`
	ResolvedEntityCount int             `json:"resolved_entity_count"`
	OccurredAt          time.Time       `json:"occurred_at"`
}

// Attribution decides how search events credit query demand.
type Attribution string

const (
	// AttributionDistinctUser credits 1 per distinct searching user.
	AttributionDistinctUser Attribution = "distinct_user"
	// AttributionSplit credits each distinct user 1/N, where N is the number
	// of entities their search resolved to. A user with several searches
	// keeps the largest share.
	AttributionSplit Attribution = "split"
	// AttributionPerSearch credits 1 per distinct search id that has a user.
	AttributionPerSearch Attribution = "per_search"
)

// ParseAttribution validates an attribution name. Empty selects the default.
func ParseAttribution(s string) (Attribution, error) {
	switch a := Attribution(s); a {
	case "":
		return AttributionDistinctUser, nil
	case AttributionDistinctUser, AttributionSplit, AttributionPerSearch:
		return a, nil
	default:
		return "", fmt.Errorf("unknown attribution strategy %q", s)
	}
}

// IsHighIntent reports whether an event counts as high-intent engagement
// for its entity's category.
func IsHighIntent(category models.Category, kind EventKind) bool {
	if category == models.CategoryPlace {
		return kind == KindView
	}
	return kind == KindSelection
}

type entityTally struct {
	favoriters map[string]struct{}
	highIntent map[string]struct{}
	queryUsers map[string]struct{}
	userShare  map[string]float64
	searches   map[string]struct{}
}

func newEntityTally() *entityTally {
	return &entityTally{
		favoriters: make(map[string]struct{}),
		highIntent: make(map[string]struct{}),
		queryUsers: make(map[string]struct{}),
		userShare:  make(map[string]float64),
		searches:   make(map[string]struct{}),
	}
}

// Aggregate folds events into one DemandMetric per requested entity id.
// Every id in entityIDs gets an entry, zero when it has no events. Events for
// ids outside the set and events older than the window are ignored.
func Aggregate(events []EngagementEvent, entityIDs []string, windowDays int, attribution Attribution, now time.Time) map[string]models.DemandMetric {
	since := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	tallies := make(map[string]*entityTally, len(entityIDs))
	for _, id := range entityIDs {
		tallies[id] = newEntityTally()
	}

	for i := range events {
		ev := &events[i]
		tally, ok := tallies[ev.EntityID]
		if !ok || ev.UserID == nil || *ev.UserID == "" {
			continue
		}
		if !ev.OccurredAt.IsZero() && ev.OccurredAt.Before(since) {
			continue
		}
		user := *ev.UserID

		if ev.Kind == KindFavorite {
			tally.favoriters[user] = struct{}{}
		}
		if IsHighIntent(ev.Category, ev.Kind) {
			tally.highIntent[user] = struct{}{}
		}
		if ev.Kind == KindSearch {
			tally.queryUsers[user] = struct{}{}
			n := ev.ResolvedEntityCount
			if n < 1 {
				n = 1
			}
			if share := 1 / float64(n); share > tally.userShare[user] {
				tally.userShare[user] = share
			}
			if ev.SearchID != nil && *ev.SearchID != "" {
				tally.searches[*ev.SearchID] = struct{}{}
			}
		}
	}

	out := make(map[string]models.DemandMetric, len(tallies))
	for id, tally := range tallies {
		m := models.DemandMetric{
			EntityID:                id,
			WindowDays:              windowDays,
			DistinctFavoriters:      len(tally.favoriters),
			DistinctHighIntentUsers: len(tally.highIntent),
			DistinctQueryUsers:      len(tally.queryUsers),
			ComputedAt:              now,
		}
		switch attribution {
		case AttributionSplit:
			for _, share := range tally.userShare {
				m.QueryCredit += share
			}
		case AttributionPerSearch:
			m.QueryCredit = float64(len(tally.searches))
		default:
			m.QueryCredit = float64(m.DistinctQueryUsers)
		}
		out[id] = m
	}
	return out
}
