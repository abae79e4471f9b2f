// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/keywordscout/internal/metrics"
	"github.com/tomtom215/keywordscout/internal/models"
)

type mockHistory struct {
	records []models.CycleRecord
	err     error
	key     string
	limit   int
}

func (m *mockHistory) CycleRecords(_ context.Context, coverageKey string, limit int) ([]models.CycleRecord, error) {
	m.key, m.limit = coverageKey, limit
	return m.records, m.err
}

func testRecord() *models.CycleRecord {
	return &models.CycleRecord{
		CycleID:     "cycle-1",
		CoverageKey: "de/berlin",
		Source:      models.SourceScheduled,
		Status:      models.StatusCompleted,
		SelectedKeywords: []models.SelectedKeyword{
			{Term: "currywurst", Slice: models.SliceDemand},
		},
	}
}

func newTestRouter(history *mockHistory, checks ...ReadinessCheck) http.Handler {
	return NewRouter(NewHandler(history, checks...), RouterConfig{DebugRateLimit: 100, DebugRateWindow: time.Minute})
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return resp
}

// --- Test: Health ---

func TestHealthLive(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockHistory{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz/live", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if resp := decodeResponse(t, rr); resp.Status != "success" {
		t.Errorf("status field = %q", resp.Status)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("response is missing X-Request-Id")
	}
}

func TestHealthReady(t *testing.T) {
	t.Parallel()

	ok := ReadinessCheck{Name: "duckdb", Check: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "nats", Check: func(context.Context) error { return errors.New("connection refused") }}

	tests := []struct {
		name   string
		checks []ReadinessCheck
		want   int
	}{
		{"all ok", []ReadinessCheck{ok}, http.StatusOK},
		{"one down", []ReadinessCheck{ok, down}, http.StatusServiceUnavailable},
		{"no checks", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newTestRouter(&mockHistory{}, tt.checks...)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz/ready", nil))

			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rr.Code, tt.want, rr.Body.String())
			}
			if tt.want != http.StatusOK && !strings.Contains(rr.Body.String(), `"nats":"unavailable"`) {
				t.Errorf("body does not name the failed check: %s", rr.Body.String())
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockHistory{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

// --- Test: CycleHistory ---

func TestCycleHistory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		path      string
		histErr   error
		want      int
		wantKey   string
		wantLimit int
	}{
		{"nested key default limit", "/debug/cycles/de/berlin", nil, http.StatusOK, "de/berlin", 20},
		{"explicit limit", "/debug/cycles/de/berlin?limit=5", nil, http.StatusOK, "de/berlin", 5},
		{"limit too large", "/debug/cycles/de/berlin?limit=500", nil, http.StatusBadRequest, "", 0},
		{"missing key", "/debug/cycles/", nil, http.StatusBadRequest, "", 0},
		{"store failure", "/debug/cycles/de/berlin", errors.New("database is closed"), http.StatusInternalServerError, "de/berlin", 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			history := &mockHistory{records: []models.CycleRecord{*testRecord()}, err: tt.histErr}
			router := newTestRouter(history)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", rr.Code, tt.want, rr.Body.String())
			}
			if history.key != tt.wantKey || history.limit != tt.wantLimit {
				t.Errorf("CycleRecords(%q, %d), want (%q, %d)", history.key, history.limit, tt.wantKey, tt.wantLimit)
			}
			if tt.want == http.StatusInternalServerError && strings.Contains(rr.Body.String(), "database is closed") {
				t.Error("internal error text leaked to the client")
			}
		})
	}
}

// --- Test: Rate limit ---

func TestDebugRoutes_RateLimited(t *testing.T) {
	t.Parallel()

	history := &mockHistory{records: []models.CycleRecord{*testRecord()}}
	router := NewRouter(NewHandler(history), RouterConfig{DebugRateLimit: 1, DebugRateWindow: time.Minute})

	send := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	if rr := send("/debug/cycles/de/berlin"); rr.Code != http.StatusOK {
		t.Fatalf("first read status = %d, want 200", rr.Code)
	}
	rr := send("/debug/cycles/de/hamburg")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second read status = %d, want 429", rr.Code)
	}
	if resp := decodeResponse(t, rr); resp.Error == nil || resp.Error.Code != "RATE_LIMITED" {
		t.Errorf("error = %+v, want RATE_LIMITED", resp.Error)
	}
	if history.key != "de/berlin" {
		t.Errorf("limited request reached the store: key = %q", history.key)
	}

	// Health checks are not limited.
	if live := send("/healthz/live"); live.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", live.Code)
	}
}

// --- Test: Request metrics ---

func TestPrometheusMetrics_UsesRoutePattern(t *testing.T) {
	t.Parallel()

	counter := metrics.OpsRequestsTotal.WithLabelValues(http.MethodGet, "/debug/cycles/*", "200")
	before := testutil.ToFloat64(counter)

	router := newTestRouter(&mockHistory{})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/debug/cycles/de/berlin", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/debug/cycles/fr/paris", nil))

	if got := testutil.ToFloat64(counter) - before; got < 2 {
		t.Errorf("requests counted under route pattern = %v, want >= 2", got)
	}
}

// --- Test: CORS ---

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"disabled by default", nil, "https://grafana.internal", ""},
		{"allowed origin", []string{"https://grafana.internal"}, "https://grafana.internal", "https://grafana.internal"},
		{"other origin", []string{"https://grafana.internal"}, "https://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := NewRouter(NewHandler(&mockHistory{}), RouterConfig{DebugRateLimit: 100, DebugRateWindow: time.Minute, CORSOrigins: tt.origins})
			req := httptest.NewRequest(http.MethodOptions, "/healthz/ready", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- Test: Helpers ---

func TestSanitizeLogValue(t *testing.T) {
	t.Parallel()

	if got := sanitizeLogValue("de/berlin\n{\"level\":\"error\"}"); strings.Contains(got, "\n") {
		t.Errorf("sanitizeLogValue kept a newline: %q", got)
	}
	if got := sanitizeLogValue("münchen"); got != "münchen" {
		t.Errorf("sanitizeLogValue(münchen) = %q", got)
	}
}

func TestRequestIDWithLogging_ReusesIncomingID(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&mockHistory{})
	req := httptest.NewRequest(http.MethodGet, "/healthz/live", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-Id"); got != "req-123" {
		t.Errorf("X-Request-Id = %q, want req-123", got)
	}
	if resp := decodeResponse(t, rr); resp.Metadata.RequestID != "req-123" {
		t.Errorf("metadata request_id = %q, want req-123", resp.Metadata.RequestID)
	}
}
