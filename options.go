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
	"google.golang.org/grpc"
)

// Middleware priorities. Lower values run first (outermost) on both
// transports, whatever order the options were passed in.
const (
	OrderRequestID = 100
	OrderRecovery  = 200
	OrderTracing   = 300
	OrderMetrics   = 400
	OrderAccessLog = 450
	OrderCORS      = 500
	OrderIPBlock   = 600
	OrderPolicy    = 700
	OrderRateLimit = 800
	OrderAuth      = 900
)

// Option configures a Server.
type Option func(*config)

// WithHTTPAddr sets the HTTP listen address. Defaults to ":5000".
func WithHTTPAddr(addr string) Option {
	return func(c *config) { c.httpAddr = addr }
}

// WithGRPCAddr enables the gRPC listener on addr.
func WithGRPCAddr(addr string) Option {
	return func(c *config) { c.grpcAddr = addr }
}

// WithShutdownTimeout bounds the graceful shutdown in Run.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *config) { c.shutdownTimeout = d }
}

// WithCache selects and sizes the response cache, see [cache.Open].
func WithCache(cfg cache.Config) Option {
	return func(c *config) { c.cache = cfg }
}

// WithStore uses s as the response cache instead of opening one.
func WithStore(s cache.Store) Option {
	return func(c *config) { c.store = s }
}

// WithUpstream configures the recipe API client.
func WithUpstream(cfg mealdb.Config) Option {
	return func(c *config) { c.mealdb = cfg }
}

// WithFetcher replaces the recipe API client entirely.
func WithFetcher(f meal.Fetcher) Option {
	return func(c *config) { c.fetcher = f }
}

// WithRoutes replaces the default route groups used by the policy, rate
// limit and auth layers.
func WithRoutes(r *policy.Resolver) Option {
	return func(c *config) { c.routes = r }
}

// WithTrustedProxies honours forwarding headers from the given proxies when
// resolving the client address for rate limiting.
func WithTrustedProxies(r *security.ClientResolver) Option {
	return func(c *config) { c.clients = r }
}

// WithRecovery converts panics into 500 responses and codes.Internal.
func WithRecovery() Option {
	return func(c *config) { c.recovery = true }
}

// WithRequestID tags every request with an ID and a request logger.
func WithRequestID() Option {
	return func(c *config) { c.requestID = true }
}

// WithAccessLog logs one line per HTTP request.
func WithAccessLog() Option {
	return func(c *config) { c.accessLog = true }
}

// WithMetrics records HTTP and upstream metrics on m and serves them on
// GET /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithTracing creates spans for both transports and the upstream client. A
// nil cfg disables tracing.
func WithTracing(cfg *tracing.Config) Option {
	return func(c *config) { c.tracing = cfg }
}

// WithCORS allows cross-origin HTTP calls from origins.
func WithCORS(origins ...string) Option {
	return func(c *config) { c.cors = origins }
}

// WithIPBlocker filters clients by address on both transports.
func WithIPBlocker(b *security.IPBlocker) Option {
	return func(c *config) { c.ipBlocker = b }
}

// WithRateLimit allows each HTTP client rps requests per second with the
// given burst; the gRPC service shares one bucket of the same size. Route
// groups with their own RateLimit rule use that instead.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *config) { c.rateLimit = &rateLimit{rps: rps, burst: burst} }
}

// WithAuth authenticates requests to routes whose policy sets AuthRequired.
func WithAuth(fn auth.AuthFunc) Option {
	return func(c *config) { c.authFunc = fn }
}

// WithMiddleware adds a custom middleware pair at order. Either side may be
// nil.
func WithMiddleware(order int, h core.HTTPMiddleware, unary grpc.UnaryServerInterceptor) Option {
	return func(c *config) { c.middlewares.Add(order, h, unary) }
}

// WithHandler mounts h on the HTTP mux under pattern, inside the middleware
// stack.
func WithHandler(pattern string, h http.Handler) Option {
	return func(c *config) { c.extraRoutes = append(c.extraRoutes, route{pattern: pattern, handler: h}) }
}
