// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds per-route limits and browser access.
type RouterConfig struct {
	DebugRateLimit  int
	DebugRateWindow time.Duration
	CORSOrigins     []string
}

// NewRouter builds the ops HTTP handler.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global so OPTIONS preflights are answered before routing.
	r.Use(CORS(cfg.CORSOrigins))
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetrics)

	r.Route("/healthz", func(r chi.Router) {
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/debug", func(r chi.Router) {
		r.Use(DebugRateLimit(cfg.DebugRateLimit, cfg.DebugRateWindow))
		// Coverage keys contain slashes.
		r.Get("/cycles/*", h.CycleHistory)
	})

	return r
}
