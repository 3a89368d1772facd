package cache

import (
	"fmt"
	"time"
)

// Backend names accepted by [Open].
const (
	BackendLRU       = "lru"
	BackendRistretto = "ristretto"
)

// Config selects and sizes a Store.
type Config struct {
	Backend  string
	Capacity int
	TTL      time.Duration

	// Redis enables a shared second tier when Redis.Addr is set.
	Redis RedisConfig
}

// Open builds the Store described by cfg. An empty Backend means
// BackendLRU. When a Redis address is configured the in-process store is
// wrapped in a [Tiered] store with an [L2] behind it.
func Open(cfg Config) (Store, error) {
	var near Store
	switch cfg.Backend {
	case "", BackendLRU:
		near = NewLocal(cfg.Capacity, cfg.TTL)
	case BackendRistretto:
		l1, err := NewL1(int64(cfg.Capacity), cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("cache: ristretto: %w", err)
		}
		near = l1
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}

	if cfg.Redis.Addr == "" {
		return near, nil
	}
	return NewTiered(near, NewL2(cfg.Redis, cfg.TTL)), nil
}
