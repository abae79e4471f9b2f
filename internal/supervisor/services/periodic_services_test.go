// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/keywordscout/internal/models"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type mockDueAreas struct {
	areas []models.CoverageArea
	err   error
	calls int
}

func (m *mockDueAreas) DueCoverageAreas(_ context.Context, now time.Time) ([]models.CoverageArea, error) {
	m.calls++
	if !now.Equal(testNow) {
		return nil, errors.New("unexpected now")
	}
	return m.areas, m.err
}

type mockSpikes struct {
	keys []string
	err  error
}

func (m *mockSpikes) HotSpikes(context.Context, time.Time) ([]string, error) {
	return m.keys, m.err
}

type mockPruner struct {
	mu         sync.Mutex
	retentions []time.Duration
	err        error
	called     chan struct{}
}

func (m *mockPruner) PruneContributions(_ context.Context, retention time.Duration) (int64, error) {
	m.mu.Lock()
	m.retentions = append(m.retentions, retention)
	m.mu.Unlock()
	select {
	case m.called <- struct{}{}:
	default:
	}
	return 3, m.err
}

func areas(keys ...string) []models.CoverageArea {
	out := make([]models.CoverageArea, len(keys))
	for i, k := range keys {
		out[i] = models.CoverageArea{CoverageKey: k, SourceType: models.SourceTypeFull}
	}
	return out
}

// --- Test: CycleSchedulerService ---

func TestCycleScheduler_ScanLaunchesDueAreas(t *testing.T) {
	t.Parallel()

	runner := newMockRunner()
	launcher := NewLauncher(runner, 4, time.Minute, zerolog.Nop())
	due := &mockDueAreas{areas: areas("de/berlin", "de/hamburg")}
	svc := NewCycleSchedulerService(due, launcher, time.Minute, zerolog.Nop())
	svc.now = func() time.Time { return testNow }

	if got := svc.scan(context.Background()); got != 2 {
		t.Errorf("launched = %d, want 2", got)
	}
	launcher.Wait()

	seen := map[string]bool{}
	for _, c := range runner.calls {
		seen[c.key] = true
		if c.source != models.SourceScheduled {
			t.Errorf("source = %q, want scheduled", c.source)
		}
	}
	if !seen["de/berlin"] || !seen["de/hamburg"] {
		t.Errorf("launched areas = %v", seen)
	}
}

func TestCycleScheduler_ScanSkipsBusyArea(t *testing.T) {
	t.Parallel()

	runner := newMockRunner()
	runner.block = true
	launcher := NewLauncher(runner, 4, time.Minute, zerolog.Nop())
	due := &mockDueAreas{areas: areas("de/berlin")}
	svc := NewCycleSchedulerService(due, launcher, time.Minute, zerolog.Nop())
	svc.now = func() time.Time { return testNow }

	if got := svc.scan(context.Background()); got != 1 {
		t.Fatalf("first scan launched = %d, want 1", got)
	}
	waitEntered(t, runner)
	if got := svc.scan(context.Background()); got != 0 {
		t.Errorf("second scan launched = %d, want 0 while the cycle runs", got)
	}

	close(runner.release)
	launcher.Wait()
}

func TestCycleScheduler_ScanErrorLaunchesNothing(t *testing.T) {
	t.Parallel()

	runner := newMockRunner()
	launcher := NewLauncher(runner, 4, time.Minute, zerolog.Nop())
	due := &mockDueAreas{err: errors.New("database is locked")}
	svc := NewCycleSchedulerService(due, launcher, time.Minute, zerolog.Nop())
	svc.now = func() time.Time { return testNow }

	if got := svc.scan(context.Background()); got != 0 {
		t.Errorf("launched = %d, want 0", got)
	}
}

func TestCycleScheduler_ServeScansImmediatelyAndStops(t *testing.T) {
	t.Parallel()

	runner := newMockRunner()
	launcher := NewLauncher(runner, 1, time.Minute, zerolog.Nop())
	due := &mockDueAreas{areas: areas("de/berlin")}
	svc := NewCycleSchedulerService(due, launcher, time.Hour, zerolog.Nop())
	svc.now = func() time.Time { return testNow }

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx) }()

	if key := waitEntered(t, runner); key != "de/berlin" {
		t.Errorf("launched %q, want de/berlin", key)
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
	if svc.String() != "cycle-scheduler" {
		t.Errorf("String() = %q", svc.String())
	}
}

// --- Test: HotSpikeService ---

func TestHotSpike_RespectsMinGap(t *testing.T) {
	t.Parallel()

	runner := newMockRunner()
	launcher := NewLauncher(runner, 4, time.Minute, zerolog.Nop())
	svc := NewHotSpikeService(&mockSpikes{keys: []string{"de/berlin"}}, launcher, time.Minute, time.Hour, zerolog.Nop())

	now := testNow
	svc.now = func() time.Time { return now }

	if got := svc.scan(context.Background()); got != 1 {
		t.Fatalf("first scan launched = %d, want 1", got)
	}
	launcher.Wait()

	now = testNow.Add(30 * time.Minute)
	if got := svc.scan(context.Background()); got != 0 {
		t.Errorf("scan inside gap launched = %d, want 0", got)
	}

	now = testNow.Add(61 * time.Minute)
	if got := svc.scan(context.Background()); got != 1 {
		t.Errorf("scan after gap launched = %d, want 1", got)
	}
	launcher.Wait()

	for _, c := range runner.calls {
		if c.source != models.SourceHotSpike {
			t.Errorf("source = %q, want hot_spike", c.source)
		}
	}
}

func TestHotSpike_ScanError(t *testing.T) {
	t.Parallel()

	runner := newMockRunner()
	launcher := NewLauncher(runner, 4, time.Minute, zerolog.Nop())
	svc := NewHotSpikeService(&mockSpikes{err: errors.New("query failed")}, launcher, time.Minute, time.Hour, zerolog.Nop())

	if got := svc.scan(context.Background()); got != 0 {
		t.Errorf("launched = %d, want 0", got)
	}
	if runner.callCount() != 0 {
		t.Error("no cycle should run")
	}
}

// --- Test: ContributionPrunerService ---

func TestContributionPruner_PrunesOnStart(t *testing.T) {
	t.Parallel()

	pruner := &mockPruner{err: errors.New("transient"), called: make(chan struct{}, 1)}
	svc := NewContributionPrunerService(pruner, time.Hour, 90*24*time.Hour, zerolog.Nop())

	sup := suture.New("test-sup", suture.Spec{Timeout: time.Second})
	sup.Add(svc)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	select {
	case <-pruner.called:
	case <-time.After(2 * time.Second):
		t.Fatal("pruner was not called on start")
	}
	cancel()
	<-errCh

	pruner.mu.Lock()
	defer pruner.mu.Unlock()
	if len(pruner.retentions) != 1 || pruner.retentions[0] != 90*24*time.Hour {
		t.Errorf("retentions = %v, want one call with 90 days", pruner.retentions)
	}
}
