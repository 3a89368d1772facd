package cache

import (
	"bytes"
	"context"
	"sync"
	"time"
)

// Local is a Store backed by an [LRU] behind a mutex. It keeps the exact LRU
// and lazy-expiry semantics of LRU while allowing concurrent callers.
type Local struct {
	mu  sync.Mutex
	lru *LRU[[]byte]
}

// NewLocal creates a Local store. Non-positive arguments fall back to
// DefaultCapacity and DefaultTTL.
func NewLocal(capacity int, ttl time.Duration) *Local {
	return &Local{lru: NewLRU[[]byte](capacity, ttl)}
}

// Get retrieves a copy of the value stored under key.
func (l *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	l.mu.Lock()
	v, ok := l.lru.Get(key)
	l.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

// Set stores a copy of val under key.
func (l *Local) Set(_ context.Context, key string, val []byte) error {
	v := bytes.Clone(val)
	l.mu.Lock()
	l.lru.Set(key, v)
	l.mu.Unlock()
	return nil
}

// GetWithTTL is Get plus the time the entry has left to live.
func (l *Local) GetWithTTL(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	l.mu.Lock()
	v, left, ok := l.lru.GetWithTTL(key)
	l.mu.Unlock()
	if !ok {
		return nil, 0, false, nil
	}
	return bytes.Clone(v), left, true, nil
}

// SetWithTTL stores a copy of val that expires after ttl, capped at the
// store TTL.
func (l *Local) SetWithTTL(_ context.Context, key string, val []byte, ttl time.Duration) error {
	v := bytes.Clone(val)
	l.mu.Lock()
	l.lru.SetWithTTL(key, v, ttl)
	l.mu.Unlock()
	return nil
}

// Clear removes every entry.
func (l *Local) Clear(_ context.Context) error {
	l.mu.Lock()
	l.lru.Clear()
	l.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (l *Local) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lru.Len()
}
