// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

package lease

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestBadger(t *testing.T, clk *clock) *BadgerLeaser {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	l := NewBadgerLeaser(db, "")
	l.now = clk.now
	return l
}

func newTestMemory(clk *clock) *MemoryLeaser {
	m := NewMemoryLeaser()
	m.now = clk.now
	return m
}

// leaserCases runs the same contract against every implementation.
func leaserCases(t *testing.T, run func(t *testing.T, l Leaser, clk *clock)) {
	t.Helper()
	t.Run("badger", func(t *testing.T) {
		t.Parallel()
		clk := &clock{t: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
		run(t, newTestBadger(t, clk), clk)
	})
	t.Run("memory", func(t *testing.T) {
		t.Parallel()
		clk := &clock{t: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
		run(t, newTestMemory(clk), clk)
	})
}

// --- Test: Acquire ---

func TestAcquire_Exclusive(t *testing.T) {
	t.Parallel()
	leaserCases(t, func(t *testing.T, l Leaser, _ *clock) {
		ctx := context.Background()

		got, err := l.Acquire(ctx, "us-ca-sf", "worker-a", time.Minute)
		if err != nil {
			t.Fatalf("Acquire: %v", err)
		}
		if got.Holder != "worker-a" {
			t.Errorf("holder = %s", got.Holder)
		}

		if _, err := l.Acquire(ctx, "us-ca-sf", "worker-b", time.Minute); !errors.Is(err, ErrHeld) {
			t.Errorf("second acquire error = %v, want ErrHeld", err)
		}
		if _, err := l.Acquire(ctx, "fr-paris", "worker-b", time.Minute); err != nil {
			t.Errorf("different key should be free: %v", err)
		}
	})
}

func TestAcquire_ExpiredLeaseIsReclaimed(t *testing.T) {
	t.Parallel()
	leaserCases(t, func(t *testing.T, l Leaser, clk *clock) {
		ctx := context.Background()

		if _, err := l.Acquire(ctx, "k", "crashed", time.Minute); err != nil {
			t.Fatal(err)
		}
		clk.advance(2 * time.Minute)

		if _, err := l.Acquire(ctx, "k", "fresh", time.Minute); err != nil {
			t.Errorf("expired lease should be reclaimable: %v", err)
		}
		h, _ := l.Holder(ctx, "k")
		if h == nil || h.Holder != "fresh" {
			t.Errorf("holder = %+v, want fresh", h)
		}
	})
}

// --- Test: Release ---

func TestRelease(t *testing.T) {
	t.Parallel()
	leaserCases(t, func(t *testing.T, l Leaser, _ *clock) {
		ctx := context.Background()

		if _, err := l.Acquire(ctx, "k", "a", time.Minute); err != nil {
			t.Fatal(err)
		}
		if err := l.Release(ctx, "k", "b"); !errors.Is(err, ErrNotHolder) {
			t.Errorf("release by non-holder = %v, want ErrNotHolder", err)
		}
		if err := l.Release(ctx, "k", "a"); err != nil {
			t.Errorf("release by holder: %v", err)
		}
		if err := l.Release(ctx, "k", "a"); err != nil {
			t.Errorf("double release should be a no-op: %v", err)
		}
		if h, _ := l.Holder(ctx, "k"); h != nil {
			t.Errorf("lease still held: %+v", h)
		}
		if _, err := l.Acquire(ctx, "k", "b", time.Minute); err != nil {
			t.Errorf("acquire after release: %v", err)
		}
	})
}

func TestAcquire_ConcurrentSingleWinner(t *testing.T) {
	t.Parallel()
	leaserCases(t, func(t *testing.T, l Leaser, _ *clock) {
		ctx := context.Background()

		var (
			wg      sync.WaitGroup
			winners atomic.Int32
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := l.Acquire(ctx, "hot", string(rune('a'+i)), time.Minute)
				switch {
				case err == nil:
					winners.Add(1)
				case !errors.Is(err, ErrHeld):
					t.Errorf("unexpected error: %v", err)
				}
			}(i)
		}
		wg.Wait()

		if got := winners.Load(); got != 1 {
			t.Errorf("winners = %d, want exactly 1", got)
		}
	})
}

func TestBadgerLeaser_Closed(t *testing.T) {
	t.Parallel()

	l, err := OpenBadger("", "")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := l.Acquire(context.Background(), "k", "a", time.Minute); !errors.Is(err, ErrClosed) {
		t.Errorf("acquire after close = %v, want ErrClosed", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
