package cache

import (
	"context"
	"errors"
	"time"
)

// ttlGetter is implemented by stores that can report an entry's remaining
// lifetime.
type ttlGetter interface {
	GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error)
}

// ttlSetter is implemented by stores that accept a per-entry lifetime.
type ttlSetter interface {
	SetWithTTL(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// Tiered combines a near store (normally [Local]) with a shared far store
// (normally [L2]). Reads check near first, then far. Writes and Clear go to
// both layers.
type Tiered struct {
	near Store
	far  Store
}

// NewTiered creates a two-level store.
func NewTiered(near, far Store) *Tiered {
	return &Tiered{near: near, far: far}
}

// Get checks the near store, then the far one. A far hit is promoted into
// the near store with the lifetime it has left in the far store, so
// promotion never extends an entry past its original expiry. Stores that
// cannot report or accept a lifetime serve far hits without promoting them.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := t.near.Get(ctx, key); err != nil || ok {
		return v, ok, err
	}

	far, canRead := t.far.(ttlGetter)
	near, canWrite := t.near.(ttlSetter)
	if !canRead || !canWrite {
		v, ok, err := t.far.Get(ctx, key)
		if err != nil || !ok {
			return nil, false, err
		}
		return v, true, nil
	}

	v, left, ok, err := far.GetWithTTL(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if left > 0 {
		_ = near.SetWithTTL(ctx, key, v, left)
	}
	return v, true, nil
}

// Set writes the value to the far store, then the near one.
func (t *Tiered) Set(ctx context.Context, key string, val []byte) error {
	_ = t.far.Set(ctx, key, val)
	return t.near.Set(ctx, key, val)
}

// Clear empties both layers and reports every failure.
func (t *Tiered) Clear(ctx context.Context) error {
	return errors.Join(t.far.Clear(ctx), t.near.Clear(ctx))
}

// Close closes whichever layers hold resources.
func (t *Tiered) Close() error {
	var errs []error
	for _, s := range []Store{t.near, t.far} {
		if c, ok := s.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
