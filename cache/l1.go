package cache

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// L1 is an in-process store backed by ristretto. Unlike [Local] it admits
// entries through a TinyLFU filter, so it does not guarantee strict LRU
// order; it is offered for deployments that favour hit ratio.
type L1 struct {
	rc     *ristretto.Cache[string, []byte]
	ttl    time.Duration
	closed atomic.Bool
}

// NewL1 creates a new L1 store holding up to maxEntries values (each entry
// has a cost of 1), all expiring after ttl.
func NewL1(maxEntries int64, ttl time.Duration) (*L1, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,

		// Every entry costs 1, so MaxCost is an entry count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &L1{rc: rc, ttl: ttl}, nil
}

// Get retrieves a value by key.
func (l *L1) Get(_ context.Context, key string) ([]byte, bool, error) {
	if l.closed.Load() {
		return nil, false, ErrClosed
	}
	v, ok := l.rc.Get(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores val under key. The write is flushed before Set returns so a
// following Get observes it.
func (l *L1) Set(_ context.Context, key string, val []byte) error {
	if l.closed.Load() {
		return ErrClosed
	}
	l.rc.SetWithTTL(key, bytes.Clone(val), 1, l.ttl)
	l.rc.Wait()
	return nil
}

// GetWithTTL is Get plus the time the entry has left to live.
func (l *L1) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	v, ok, err := l.Get(ctx, key)
	if err != nil || !ok {
		return nil, 0, false, err
	}
	left, ok := l.rc.GetTTL(key)
	if !ok {
		return nil, 0, false, nil
	}
	return v, left, true, nil
}

// SetWithTTL stores val under key for ttl, capped at the store TTL.
func (l *L1) SetWithTTL(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if l.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 || ttl > l.ttl {
		ttl = l.ttl
	}
	l.rc.SetWithTTL(key, bytes.Clone(val), 1, ttl)
	l.rc.Wait()
	return nil
}

// Clear removes every entry.
func (l *L1) Clear(_ context.Context) error {
	if l.closed.Load() {
		return ErrClosed
	}
	l.rc.Clear()
	return nil
}

// Close stops ristretto's background goroutines.
func (l *L1) Close() error {
	if l.closed.CompareAndSwap(false, true) {
		l.rc.Close()
	}
	return nil
}
