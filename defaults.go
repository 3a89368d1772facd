package mealsquirrel

import (
	"fmt"
	"time"

	"github.com/Keksclan/mealsquirrel/auth"
	"github.com/Keksclan/mealsquirrel/breaker"
	"github.com/Keksclan/mealsquirrel/cache"
	appconfig "github.com/Keksclan/mealsquirrel/internal/config"
	"github.com/Keksclan/mealsquirrel/mealdb"
	"github.com/Keksclan/mealsquirrel/retry"
	"github.com/Keksclan/mealsquirrel/security"
)

// DefaultOptions returns the recommended set of options for production use:
// request IDs, panic recovery and access logging.
func DefaultOptions() []Option {
	return []Option{
		WithRequestID(),
		WithRecovery(),
		WithAccessLog(),
	}
}

// FromConfig translates the file/environment configuration into options,
// on top of DefaultOptions. Metrics and tracing are left to the caller since
// they own process-wide resources.
func FromConfig(c *appconfig.Config) ([]Option, error) {
	opts := append(DefaultOptions(),
		WithHTTPAddr(c.HTTP.Addr),
		WithGRPCAddr(c.GRPC.Addr),
		WithShutdownTimeout(c.HTTP.ShutdownTimeout),
		WithCache(cache.Config{
			Backend:  c.Cache.Backend,
			Capacity: c.Cache.MaxSize,
			TTL:      c.Cache.TTL,
			Redis: cache.RedisConfig{
				Addr:     c.Cache.Redis.Addr,
				Password: c.Cache.Redis.Password,
				DB:       c.Cache.Redis.DB,
				Prefix:   c.Cache.Redis.Prefix,
			},
		}),
		WithUpstream(mealdb.Config{
			BaseURL: c.MealDB.BaseURL,
			Timeout: c.MealDB.Timeout,
			Retry: retry.Config{
				MaxAttempts: c.MealDB.MaxAttempts,
				BaseDelay:   200 * time.Millisecond,
				MaxDelay:    2 * time.Second,
				Jitter:      0.2,
			},
			Breaker: breaker.Config{
				FailureThreshold:   c.MealDB.BreakerThreshold,
				OpenTimeout:        c.MealDB.BreakerTimeout,
				HalfOpenMaxSuccess: 1,
			},
		}),
	)

	if len(c.CORS.AllowedOrigins) > 0 {
		opts = append(opts, WithCORS(c.CORS.AllowedOrigins...))
	}
	if c.RateLimit.RPS > 0 {
		opts = append(opts, WithRateLimit(c.RateLimit.RPS, c.RateLimit.Burst))
	}
	if c.Admin.Token != "" {
		opts = append(opts, WithAuth(auth.StaticToken(c.Admin.Token)))
	}

	clients, err := security.NewClientResolver(c.Security.TrustedProxies, nil)
	if err != nil {
		return nil, fmt.Errorf("security: %w", err)
	}
	opts = append(opts, WithTrustedProxies(clients))

	if len(c.Security.CIDRs) > 0 {
		mode, err := security.ParseMode(c.Security.Mode)
		if err != nil {
			return nil, err
		}
		blocker, err := security.NewIPBlocker(security.Config{
			Mode:           mode,
			CIDRs:          c.Security.CIDRs,
			TrustedProxies: c.Security.TrustedProxies,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithIPBlocker(blocker))
	}
	return opts, nil
}
