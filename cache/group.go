package cache

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared load when Group.Timeout is zero.
const DefaultLoadTimeout = 30 * time.Second

// Group runs load-through lookups against a Store, deduplicating concurrent
// loads for the same key. The zero value is ready to use.
//
// A load is shared by every caller of its key, so it runs detached from the
// cancellation of whichever caller started it. Each caller still stops
// waiting when its own context is done.
type Group struct {
	// Timeout bounds one shared load. Zero means DefaultLoadTimeout.
	Timeout time.Duration

	sf singleflight.Group
}

// Do returns the value cached under key with cached=true. On a miss it runs
// load once for all concurrent callers, stores the result only if load
// succeeded and returns it with cached=false. A panicking load is reported
// as an error to every waiter.
//
// A store error on Get is treated as a miss so a broken cache never blocks
// upstream traffic.
func (g *Group) Do(ctx context.Context, s Store, key string, load func(context.Context) ([]byte, error)) (val []byte, cached bool, err error) {
	if v, ok, err := s.Get(ctx, key); err == nil && ok {
		return v, true, nil
	}

	ch := g.sf.DoChan(key, func() (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				v, err = nil, fmt.Errorf("cache: load %q panicked: %v", key, r)
			}
		}()

		timeout := g.Timeout
		if timeout <= 0 {
			timeout = DefaultLoadTimeout
		}
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()

		b, err := load(lctx)
		if err != nil {
			return nil, err
		}
		_ = s.Set(lctx, key, b)
		return b, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, false, r.Err
		}
		return bytes.Clone(r.Val.([]byte)), false, nil
	}
}
