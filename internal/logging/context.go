// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	cycleIDKey     contextKey = "cycle_id"
	coverageKeyKey contextKey = "coverage_key"
	loggerKey      contextKey = "logger"
	requestIDKey   contextKey = "request_id"
)

// GenerateRequestID returns a new request id.
func GenerateRequestID() string {
	return uuid.New().String()
}

// ContextWithRequestID stores an ops API request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithCycle returns a context carrying the cycle id and coverage key
// that Ctx adds to every log line.
func ContextWithCycle(ctx context.Context, cycleID, coverageKey string) context.Context {
	ctx = context.WithValue(ctx, cycleIDKey, cycleID)
	return context.WithValue(ctx, coverageKeyKey, coverageKey)
}

// CycleIDFromContext returns the cycle id stored in ctx, or "".
func CycleIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(cycleIDKey).(string); ok {
		return id
	}
	return ""
}

// CoverageKeyFromContext returns the coverage key stored in ctx, or "".
func CoverageKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(coverageKeyKey).(string); ok {
		return key
	}
	return ""
}

// ContextWithLogger stores a logger in the context.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the logger stored in ctx, falling back to the
// global logger.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns a logger with the request and cycle fields from ctx attached.
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("Demand metrics degraded")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := LoggerFromContext(ctx).With()
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := CycleIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("cycle_id", id)
	}
	if key := CoverageKeyFromContext(ctx); key != "" {
		logCtx = logCtx.Str("coverage_key", key)
	}
	l := logCtx.Logger()
	return &l
}
