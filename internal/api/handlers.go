// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/keywordscout/internal/logging"
	"github.com/tomtom215/keywordscout/internal/models"
)

const defaultHistoryLimit = 20

// CycleHistory reads recorded cycles.
//
// Satisfied by *database.DB.
type CycleHistory interface {
	CycleRecords(ctx context.Context, coverageKey string, limit int) ([]models.CycleRecord, error)
}

// ReadinessCheck is one dependency checked by /healthz/ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Handler serves the ops endpoints.
type Handler struct {
	history   CycleHistory
	checks    []ReadinessCheck
	startTime time.Time
}

// NewHandler creates the ops handler.
func NewHandler(history CycleHistory, checks ...ReadinessCheck) *Handler {
	return &Handler{
		history:   history,
		checks:    checks,
		startTime: time.Now(),
	}
}

// HealthLive reports that the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, time.Now(), map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady runs every readiness check and answers 503 if any fails.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := make(map[string]string, len(h.checks))
	ready := true
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			ready = false
			status[c.Name] = "unavailable"
			logging.Ctx(r.Context()).Warn().Err(err).Str("check", c.Name).Msg("Readiness check failed")
			continue
		}
		status[c.Name] = "ok"
	}

	if !ready {
		respondJSON(w, r, http.StatusServiceUnavailable, &models.APIResponse{
			Status:   "error",
			Data:     map[string]interface{}{"ready": false, "checks": status},
			Metadata: models.Metadata{Timestamp: time.Now()},
			Error:    &models.APIError{Code: "NOT_READY", Message: "One or more dependencies are unavailable"},
		})
		return
	}
	respondSuccess(w, r, started, map[string]interface{}{"ready": true, "checks": status})
}

// CycleHistory lists the most recent cycles for a coverage area.
func (h *Handler) CycleHistory(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	req := HistoryRequest{
		CoverageKey: chi.URLParam(r, "*"),
		Limit:       getIntParam(r, "limit", defaultHistoryLimit),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, r, apiErr)
		return
	}

	records, err := h.history.CycleRecords(r.Context(), req.CoverageKey, req.Limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to read cycle history", err)
		return
	}
	if records == nil {
		records = []models.CycleRecord{}
	}
	respondSuccess(w, r, started, records)
}
