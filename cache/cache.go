// Package cache provides the bounded TTL/LRU cache that fronts upstream
// recipe lookups, plus pluggable Store backends built around it: a locked
// in-process LRU, a ristretto-backed L1, a Redis L2 and a tiered combination.
package cache

import (
	"context"
	"errors"
)

// ErrClosed is returned by stores that have been closed.
var ErrClosed = errors.New("cache: store is closed")

// Store is the caching contract consumed by the meal service. Every store
// applies one fixed TTL chosen at construction.
type Store interface {
	// Get retrieves a value by key. The boolean indicates a cache hit and is
	// the only way a miss is signalled; an empty value is still a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores val under key, replacing any previous entry and restarting
	// its TTL.
	Set(ctx context.Context, key string, val []byte) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}
