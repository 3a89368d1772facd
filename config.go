package mealsquirrel

import (
	"net/http"
	"time"

	"github.com/Keksclan/mealsquirrel/auth"
	"github.com/Keksclan/mealsquirrel/cache"
	"github.com/Keksclan/mealsquirrel/internal/core"
	"github.com/Keksclan/mealsquirrel/internal/metrics"
	"github.com/Keksclan/mealsquirrel/meal"
	"github.com/Keksclan/mealsquirrel/mealdb"
	"github.com/Keksclan/mealsquirrel/policy"
	"github.com/Keksclan/mealsquirrel/security"
	"github.com/Keksclan/mealsquirrel/tracing"
)

// config holds the internal configuration assembled via functional options.
type config struct {
	httpAddr        string
	grpcAddr        string
	shutdownTimeout time.Duration

	cache   cache.Config
	store   cache.Store
	mealdb  mealdb.Config
	fetcher meal.Fetcher

	routes  *policy.Resolver
	clients *security.ClientResolver

	recovery  bool
	requestID bool
	accessLog bool
	metrics   *metrics.Metrics
	tracing   *tracing.Config
	cors      []string
	ipBlocker *security.IPBlocker
	rateLimit *rateLimit
	authFunc  auth.AuthFunc

	// middlewares carries entries added through WithMiddleware. The built-in
	// entries are added in NewServer once every option has been applied.
	middlewares core.MiddlewareBuilder
	extraRoutes []route
}

type rateLimit struct {
	rps   float64
	burst int
}

type route struct {
	pattern string
	handler http.Handler
}

func defaultConfig() config {
	return config{
		httpAddr:        ":5000",
		shutdownTimeout: 10 * time.Second,
		cache: cache.Config{
			Backend:  cache.BackendLRU,
			Capacity: cache.DefaultCapacity,
			TTL:      cache.DefaultTTL,
		},
		routes: policy.DefaultRoutes(),
	}
}
