package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces keys written by L2.
const DefaultRedisPrefix = "mealsquirrel:"

// L2 is a Redis-backed store. Get and Set fail soft: if Redis is unavailable
// they report a miss (or silently drop the write) instead of surfacing the
// error to the caller.
type L2 struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisConfig describes how to reach the Redis tier.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewL2 creates a new Redis-backed store whose entries expire after ttl.
func NewL2(cfg RedisConfig, ttl time.Duration) *L2 {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &L2{rdb: rdb, prefix: cfg.Prefix, ttl: ttl}
}

// Get retrieves a value by key. Returns (nil, false, nil) on a miss or when
// Redis is unreachable.
func (l *L2) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := l.rdb.Get(ctx, l.prefix+key).Bytes()
	if err != nil {
		// redis.Nil and connection errors both count as a miss.
		return nil, false, nil
	}
	return val, true, nil
}

// GetWithTTL is Get plus the remaining lifetime reported by PTTL.
func (l *L2) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool, error) {
	pipe := l.rdb.Pipeline()
	get := pipe.Get(ctx, l.prefix+key)
	pttl := pipe.PTTL(ctx, l.prefix+key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, 0, false, nil
	}
	val, err := get.Bytes()
	if err != nil {
		return nil, 0, false, nil
	}
	left := pttl.Val()
	switch {
	case left == -1:
		// No expiry on the key, written by something other than L2.
		left = l.ttl
	case left <= 0:
		return nil, 0, false, nil
	}
	return val, left, true, nil
}

// Set stores val under key. Errors are discarded.
func (l *L2) Set(ctx context.Context, key string, val []byte) error {
	_ = l.rdb.Set(ctx, l.prefix+key, val, l.ttl).Err()
	return nil
}

// SetWithTTL stores val under key for ttl, capped at the store TTL.
func (l *L2) SetWithTTL(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 || ttl > l.ttl {
		ttl = l.ttl
	}
	_ = l.rdb.Set(ctx, l.prefix+key, val, ttl).Err()
	return nil
}

// Clear deletes every key under the store's prefix. Unlike Get and Set it
// reports Redis errors, since a silently failed invalidation would keep
// serving stale data.
func (l *L2) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := l.rdb.Scan(ctx, cursor, l.prefix+"*", 256).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := l.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Ping checks the Redis connection.
func (l *L2) Ping(ctx context.Context) error {
	return l.rdb.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (l *L2) Close() error {
	return l.rdb.Close()
}
