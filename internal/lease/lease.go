// Keyword Scout - Search Keyword Selection and Cycle Scheduling
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/keywordscout

// Package lease provides expiring mutual-exclusion leases keyed by coverage
// key. A cycle holds the lease for its coverage key while it runs; a crashed
// worker's lease simply expires.
package lease

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/keywordscout/internal/metrics"
)

var (
	// ErrHeld is returned when another holder owns an unexpired lease.
	ErrHeld = errors.New("lease is held by another worker")

	// ErrNotHolder is returned when releasing or renewing a lease the
	// caller does not own.
	ErrNotHolder = errors.New("lease is not held by caller")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("lease store is closed")
)

// Lease is a granted lease.
type Lease struct {
	Key        string    `json:"key"`
	Holder     string    `json:"holder"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Leaser grants and releases leases.
type Leaser interface {
	// Acquire grants key to holder for ttl, or returns ErrHeld.
	Acquire(ctx context.Context, key, holder string, ttl time.Duration) (*Lease, error)

	// Release gives up a lease. Releasing an expired or missing lease is
	// not an error; releasing someone else's lease is.
	Release(ctx context.Context, key, holder string) error

	// Holder returns the current unexpired lease for key, or nil.
	Holder(ctx context.Context, key string) (*Lease, error)
}

// MemoryLeaser is an in-process Leaser for tests and single-node use.
type MemoryLeaser struct {
	mu     sync.Mutex
	leases map[string]Lease
	now    func() time.Time
}

// NewMemoryLeaser creates an empty in-memory leaser.
func NewMemoryLeaser() *MemoryLeaser {
	return &MemoryLeaser{leases: make(map[string]Lease), now: time.Now}
}

// Acquire implements Leaser.
func (m *MemoryLeaser) Acquire(_ context.Context, key, holder string, ttl time.Duration) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.leases[key]; ok && now.Before(existing.ExpiresAt) {
		metrics.RecordLeaseConflict()
		return nil, ErrHeld
	}
	l := Lease{Key: key, Holder: holder, AcquiredAt: now, ExpiresAt: now.Add(ttl)}
	m.leases[key] = l
	return &l, nil
}

// Release implements Leaser.
func (m *MemoryLeaser) Release(_ context.Context, key, holder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.leases[key]
	if !ok || !m.now().Before(existing.ExpiresAt) {
		delete(m.leases, key)
		return nil
	}
	if existing.Holder != holder {
		return ErrNotHolder
	}
	delete(m.leases, key)
	return nil
}

// Holder implements Leaser.
func (m *MemoryLeaser) Holder(_ context.Context, key string) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.leases[key]
	if !ok || !m.now().Before(existing.ExpiresAt) {
		return nil, nil
	}
	return &existing, nil
}

// BadgerLeaser stores leases in BadgerDB so they survive restarts and are
// shared by every worker using the same database directory. Entries carry a
// Badger TTL so abandoned leases are collected automatically.
type BadgerLeaser struct {
	db     *badger.DB
	prefix []byte
	owned  bool
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
}

// OpenBadger opens a BadgerDB at path and returns a leaser that owns it.
// An empty path opens an in-memory database.
func OpenBadger(path, prefix string) (*BadgerLeaser, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for leases: %w", err)
	}
	l := NewBadgerLeaser(db, prefix)
	l.owned = true
	return l, nil
}

// NewBadgerLeaser wraps a shared BadgerDB. prefix defaults to "lease:".
func NewBadgerLeaser(db *badger.DB, prefix string) *BadgerLeaser {
	if prefix == "" {
		prefix = "lease:"
	}
	return &BadgerLeaser{db: db, prefix: []byte(prefix), now: time.Now}
}

func (b *BadgerLeaser) makeKey(key string) []byte {
	out := make([]byte, 0, len(b.prefix)+len(key))
	out = append(out, b.prefix...)
	return append(out, key...)
}

func (b *BadgerLeaser) checkOpen() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// readLease loads an unexpired lease inside txn, or nil.
func (b *BadgerLeaser) readLease(txn *badger.Txn, key []byte) (*Lease, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var l Lease
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &l)
	}); err != nil {
		return nil, err
	}
	if !b.now().Before(l.ExpiresAt) {
		return nil, nil
	}
	return &l, nil
}

// Acquire implements Leaser. Two workers racing for the same key both read
// it as free, but Badger's optimistic transactions let only one commit; the
// other gets ErrConflict, reported as ErrHeld.
func (b *BadgerLeaser) Acquire(_ context.Context, key, holder string, ttl time.Duration) (*Lease, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lease ttl must be positive, got %s", ttl)
	}

	k := b.makeKey(key)
	now := b.now()
	granted := Lease{Key: key, Holder: holder, AcquiredAt: now, ExpiresAt: now.Add(ttl)}

	err := b.db.Update(func(txn *badger.Txn) error {
		existing, err := b.readLease(txn, k)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrHeld
		}
		data, err := json.Marshal(granted)
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(k, data).WithTTL(ttl))
	})
	if errors.Is(err, ErrHeld) || errors.Is(err, badger.ErrConflict) {
		metrics.RecordLeaseConflict()
		return nil, ErrHeld
	}
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	return &granted, nil
}

// Release implements Leaser.
func (b *BadgerLeaser) Release(_ context.Context, key, holder string) error {
	if err := b.checkOpen(); err != nil {
		return err
	}
	k := b.makeKey(key)
	err := b.db.Update(func(txn *badger.Txn) error {
		existing, err := b.readLease(txn, k)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}
		if existing.Holder != holder {
			return ErrNotHolder
		}
		return txn.Delete(k)
	})
	if err != nil && !errors.Is(err, ErrNotHolder) {
		return fmt.Errorf("release lease %s: %w", key, err)
	}
	return err
}

// Holder implements Leaser.
func (b *BadgerLeaser) Holder(_ context.Context, key string) (*Lease, error) {
	if err := b.checkOpen(); err != nil {
		return nil, err
	}
	var out *Lease
	err := b.db.View(func(txn *badger.Txn) error {
		l, err := b.readLease(txn, b.makeKey(key))
		out = l
		return err
	})
	return out, err
}

// Close closes the underlying database when the leaser opened it.
func (b *BadgerLeaser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.owned {
		return b.db.Close()
	}
	return nil
}
