// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestContextWithCycle(t *testing.T) {
	t.Parallel()

	ctx := ContextWithCycle(context.Background(), "cyc-1", "us/ca/oakland")

	if got := CycleIDFromContext(ctx); got != "cyc-1" {
		t.Errorf("CycleIDFromContext() = %q, want %q", got, "cyc-1")
	}
	if got := CoverageKeyFromContext(ctx); got != "us/ca/oakland" {
		t.Errorf("CoverageKeyFromContext() = %q, want %q", got, "us/ca/oakland")
	}
	if got := CycleIDFromContext(context.Background()); got != "" {
		t.Errorf("CycleIDFromContext(empty) = %q, want empty", got)
	}
}

func TestCtx_AddsCycleFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithCycle(ctx, "cyc-2", "fr/paris")

	Ctx(ctx).Info().Msg("allocating")

	out := buf.String()
	for _, want := range []string{`"cycle_id":"cyc-2"`, `"coverage_key":"fr/paris"`, "allocating"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestCtx_NoCycleFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	Ctx(ctx).Info().Msg("plain")

	if strings.Contains(buf.String(), "cycle_id") {
		t.Errorf("unexpected cycle_id in output: %s", buf.String())
	}
}

func TestCtx_AddsRequestID(t *testing.T) {
	t.Parallel()

	id := GenerateRequestID()
	if len(id) != 36 {
		t.Fatalf("GenerateRequestID() = %q, want a UUID", id)
	}

	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, id)

	if got := RequestIDFromContext(ctx); got != id {
		t.Errorf("RequestIDFromContext() = %q, want %q", got, id)
	}
	Ctx(ctx).Info().Msg("triggered")
	if !strings.Contains(buf.String(), `"request_id":"`+id+`"`) {
		t.Errorf("output missing request_id: %s", buf.String())
	}
}
