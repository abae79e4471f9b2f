// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package cycle

import (
	"github.com/rs/zerolog"

	"github.com/tomtom215/keywordscout/internal/metrics"
)

// State is a cycle's position in the scheduling state machine.
type State int

const (
	StateIdle State = iota
	StateResolvingCoverage
	StateAggregating
	StateScoring
	StateAllocating
	StateEmitting
	StateRecording
)

var stateNames = [...]string{
	StateIdle:              "idle",
	StateResolvingCoverage: "resolving_coverage",
	StateAggregating:       "aggregating",
	StateScoring:           "scoring",
	StateAllocating:        "allocating",
	StateEmitting:          "emitting",
	StateRecording:         "recording",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// next is the only legal successor of each state. Any state may fall back
// to Idle when a cycle ends early.
var next = map[State]State{
	StateIdle:              StateResolvingCoverage,
	StateResolvingCoverage: StateAggregating,
	StateAggregating:       StateScoring,
	StateScoring:           StateAllocating,
	StateAllocating:        StateEmitting,
	StateEmitting:          StateRecording,
	StateRecording:         StateIdle,
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	return to == StateIdle || next[from] == to
}

// Observer is notified on every state change. It must not block.
type Observer func(cycleID string, from, to State)

// tracker follows one cycle through the state machine.
type tracker struct {
	cycleID  string
	state    State
	observer Observer
	logger   *zerolog.Logger
	visited  []State
}

func newTracker(cycleID string, observer Observer, logger *zerolog.Logger) *tracker {
	return &tracker{cycleID: cycleID, observer: observer, logger: logger, visited: []State{StateIdle}}
}

// enter moves to s. Illegal moves are programming errors and panic.
func (t *tracker) enter(s State) {
	if !CanTransition(t.state, s) {
		panic("cycle: illegal transition " + t.state.String() + " -> " + s.String())
	}
	from := t.state
	t.state = s
	t.visited = append(t.visited, s)
	metrics.RecordCycleState(s.String())
	t.logger.Debug().Str("from", from.String()).Str("to", s.String()).Msg("Cycle state changed")
	if t.observer != nil {
		t.observer(t.cycleID, from, s)
	}
}

// finish returns to Idle unless already there.
func (t *tracker) finish() {
	if t.state != StateIdle {
		t.enter(StateIdle)
	}
}
