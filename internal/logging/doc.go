// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

// Package logging provides the zerolog-based structured logging layer for Keyword Scout.
//
// A single global logger is configured once at startup and shared by every
// package. Components that need their own fields derive a child logger with
// a "component" field rather than creating independent loggers.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("coverage_key", key).Msg("Cycle scheduled")
//	logging.Error().Err(err).Msg("Recording failed")
//
// # Cycle Context
//
// Cycle ids and coverage keys travel through context.Context so every log line
// emitted during a cycle can be correlated without threading extra arguments:
//
//	ctx = logging.ContextWithCycle(ctx, cycleID, coverageKey)
//	logging.Ctx(ctx).Info().Msg("Allocating")
//	// {"level":"info","cycle_id":"...","coverage_key":"us/ca/oakland","message":"Allocating"}
//
// # slog Adapter
//
// Suture (via sutureslog) and Watermill both accept a *slog.Logger. The
// adapter in slog_adapter.go forwards their output into zerolog:
//
//	slogger := logging.NewSlogLogger()
//	hook := (&sutureslog.Handler{Logger: slogger}).MustHook()
//
// # Output Formats
//
// JSON (production):
//
//	{"level":"info","time":"2026-03-01T10:30:00Z","message":"Cycle recorded","selected":25}
//
// Console (development):
//
//	10:30:00 INF Cycle recorded selected=25
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// guarded by a sync.RWMutex for reconfiguration.
package logging
