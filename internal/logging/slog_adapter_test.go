// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSlogHandler_ForwardsAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))

	logger.With("service", "cycle-scheduler").
		WithGroup("restart").
		Info("service restarted", "attempt", 2, "backoff", 3*time.Second)

	out := buf.String()
	for _, want := range []string{
		`"service":"cycle-scheduler"`,
		`"restart.attempt":2`,
		"service restarted",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestSlogHandler_AttrsKeepTheirGroupScope(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))

	logger.With("service", "hot-spike").
		WithGroup("restart").
		With("supervisor", "scheduling-layer").
		WithGroup("backoff").
		Warn("service backing off", "failures", 5)

	out := buf.String()
	for _, want := range []string{
		`"service":"hot-spike"`,
		`"restart.supervisor":"scheduling-layer"`,
		`"restart.backoff.failures":5`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
	for _, unwanted := range []string{`"restart.service"`, `"restart.backoff.supervisor"`} {
		if strings.Contains(out, unwanted) {
			t.Errorf("output has misplaced key %s: %s", unwanted, out)
		}
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   slog.Level
		want zerolog.Level
	}{
		{slog.LevelDebug - 4, zerolog.TraceLevel},
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.LevelError + 4, zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.in); got != tt.want {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
