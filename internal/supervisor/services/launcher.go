// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/tomtom215/keywordscout/internal/cycle"
	"github.com/tomtom215/keywordscout/internal/models"
)

// CycleRunner runs a single keyword cycle.
//
// Satisfied by *cycle.Orchestrator.
type CycleRunner interface {
	RunCycle(ctx context.Context, target cycle.Target, source models.CycleSource) (*models.CycleRecord, error)
}

// Launcher bounds how many cycles this process runs at once and keeps the
// scheduler from stacking launches for an area whose cycle is still running.
// keywordscout runs as a single process: DuckDB and the badger lease store
// are embedded and single-writer. The orchestrator's lease serializes cycles
// for one area between the scheduler and hot-spike triggers and expires by TTL
// after a crash; the in-flight set only avoids pointless lease contention.
type Launcher struct {
	runner  CycleRunner
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  zerolog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewLauncher creates a launcher allowing maxConcurrent cycles, each bounded
// by timeout. A non-positive maxConcurrent is treated as 1.
func NewLauncher(runner CycleRunner, maxConcurrent int, timeout time.Duration, logger zerolog.Logger) *Launcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Launcher{
		runner:   runner,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		timeout:  timeout,
		logger:   logger.With().Str("component", "cycle-launcher").Logger(),
		inflight: make(map[string]struct{}),
	}
}

// TryLaunch starts a cycle for coverageKey in the background. It returns
// false without launching when the area already has a cycle running here or
// no slot is free.
func (l *Launcher) TryLaunch(ctx context.Context, coverageKey string, source models.CycleSource) bool {
	if !l.claim(coverageKey) {
		return false
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.unclaim(coverageKey)
		l.execute(ctx, cycle.ForCoverageKey(coverageKey), source)
	}()
	return true
}

// Wait blocks until every launched cycle has returned.
func (l *Launcher) Wait() {
	l.wg.Wait()
}

// InFlight reports whether a background cycle is running for coverageKey.
func (l *Launcher) InFlight(coverageKey string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.inflight[coverageKey]
	return ok
}

func (l *Launcher) claim(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.inflight[key]; busy {
		return false
	}
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.inflight[key] = struct{}{}
	return true
}

func (l *Launcher) unclaim(key string) {
	l.mu.Lock()
	delete(l.inflight, key)
	l.mu.Unlock()
	l.sem.Release(1)
}

func (l *Launcher) execute(ctx context.Context, target cycle.Target, source models.CycleSource) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	rec, err := l.runner.RunCycle(ctx, target, source)
	l.logResult(target, source, rec, err)
}

func (l *Launcher) logResult(target cycle.Target, source models.CycleSource, rec *models.CycleRecord, err error) {
	if err == nil {
		l.logger.Debug().
			Str("cycle_id", rec.CycleID).
			Str("coverage_key", rec.CoverageKey).
			Str("source", string(source)).
			Msg("Launched cycle returned")
		return
	}

	l.logger.WithLevel(resultLevel(err)).Err(err).
		Str("coverage_key", target.Hint.CoverageKey).
		Str("source", string(source)).
		Msg("Cycle did not complete")
}

// resultLevel picks the log level for a failed cycle. Lease conflicts are
// routine when a hot-spike trigger races the scheduler for the same area.
func resultLevel(err error) zerolog.Level {
	switch {
	case errors.Is(err, cycle.ErrConcurrentCycleConflict):
		return zerolog.DebugLevel
	case errors.Is(err, cycle.ErrIdentityOnlyCoverage), errors.Is(err, cycle.ErrUnresolvableLocality):
		return zerolog.InfoLevel
	case errors.Is(err, cycle.ErrRecordingFailed), errors.Is(err, cycle.ErrRecordingSuppressed):
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
