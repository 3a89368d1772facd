// Package mealsquirrel serves the themealdb.com recipe API through a bounded
// response cache, over HTTP/JSON and optionally gRPC.
//
// A Server is assembled from functional [Option] values. Middleware
// execution order is fixed by the Order constants, not by the order options
// are passed:
//
//	srv, err := mealsquirrel.NewServer(
//		mealsquirrel.WithRecovery(),
//		mealsquirrel.WithRequestID(),
//		mealsquirrel.WithRateLimit(20, 40),
//		mealsquirrel.WithAuth(auth.StaticToken(token)),
//	)
//	if err != nil { ... }
//	defer srv.Close()
//	err = srv.Run(ctx)
package mealsquirrel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/Keksclan/mealsquirrel/api"
	"github.com/Keksclan/mealsquirrel/cache"
	"github.com/Keksclan/mealsquirrel/interceptors"
	"github.com/Keksclan/mealsquirrel/internal/core"
	"github.com/Keksclan/mealsquirrel/internal/logging"
	"github.com/Keksclan/mealsquirrel/meal"
	"github.com/Keksclan/mealsquirrel/mealdb"
	"github.com/Keksclan/mealsquirrel/mealrpc"
	"github.com/Keksclan/mealsquirrel/middleware"
	"github.com/Keksclan/mealsquirrel/ratelimit"
	"github.com/Keksclan/mealsquirrel/security"
	"github.com/Keksclan/mealsquirrel/tracing"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const readHeaderTimeout = 10 * time.Second

// Server owns the cache, the upstream client and both transports.
type Server struct {
	cfg config

	store     cache.Store
	ownsStore bool
	client    *mealdb.Client
	meals     *meal.Service

	handler    http.Handler
	grpcServer *grpc.Server
	health     *health.Server
}

// NewServer applies opts and wires the service. The returned Server must be
// closed to release the cache.
func NewServer(opts ...Option) (*Server, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.clients == nil {
		clients, err := security.NewClientResolver(nil, nil)
		if err != nil {
			return nil, err
		}
		cfg.clients = clients
	}

	s := &Server{cfg: cfg, store: cfg.store}
	if s.store == nil {
		store, err := cache.Open(cfg.cache)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.ownsStore = true
	}

	fetcher := cfg.fetcher
	if fetcher == nil {
		up := cfg.mealdb
		up.Tracing = cfg.tracing
		up.Metrics = cfg.metrics
		client, err := mealdb.New(up)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.client = client
		fetcher = client
	}
	s.meals = meal.NewService(s.store, fetcher)

	httpMW, unary := s.middlewares().Build()

	mux := http.NewServeMux()
	api.NewHandler(s.meals).Register(mux)
	if cfg.metrics != nil {
		mux.Handle("GET /metrics", cfg.metrics.Handler())
	}
	for _, r := range cfg.extraRoutes {
		mux.Handle(r.pattern, r.handler)
	}
	s.handler = core.WrapHTTP(mux, httpMW)

	s.grpcServer = grpc.NewServer(core.ServerOptions(unary, interceptors.ChainUnary)...)
	mealrpc.Register(s.grpcServer, s.meals)
	s.health = health.NewServer()
	s.health.SetServingStatus(mealrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s.grpcServer, s.health)

	return s, nil
}

// middlewares collects the enabled built-in layers into the builder that
// already holds the WithMiddleware entries.
func (s *Server) middlewares() *core.MiddlewareBuilder {
	cfg := &s.cfg
	b := &cfg.middlewares

	if cfg.requestID {
		b.Add(OrderRequestID, middleware.RequestID(), interceptors.RequestIDUnary())
	}
	if cfg.recovery {
		b.Add(OrderRecovery, middleware.Recovery(), interceptors.RecoveryUnary())
	}
	if cfg.tracing != nil {
		b.Add(OrderTracing, tracing.Middleware(cfg.tracing), tracing.UnaryServerInterceptor(cfg.tracing))
	}
	if cfg.metrics != nil {
		b.Add(OrderMetrics, middleware.Metrics(cfg.metrics, cfg.routes), nil)
	}
	if cfg.accessLog {
		b.Add(OrderAccessLog, middleware.AccessLog(), nil)
	}
	if len(cfg.cors) > 0 {
		b.Add(OrderCORS, middleware.CORS(cfg.cors), nil)
	}
	if cfg.ipBlocker != nil {
		b.Add(OrderIPBlock, middleware.IPBlock(cfg.ipBlocker), interceptors.IPBlockUnary(cfg.ipBlocker))
	}
	if cfg.routes != nil {
		b.Add(OrderPolicy, middleware.Policy(cfg.routes), interceptors.PolicyUnary(cfg.routes))
	}
	if rl := cfg.rateLimit; rl != nil {
		b.Add(OrderRateLimit,
			middleware.RateLimit(ratelimit.NewKeyed(rl.rps, rl.burst, 0), cfg.clients, cfg.routes),
			interceptors.RateLimitUnary(ratelimit.NewLimiter(rl.rps, rl.burst), cfg.routes),
		)
	}
	if cfg.authFunc != nil {
		b.Add(OrderAuth, middleware.Auth(cfg.authFunc, cfg.routes), interceptors.AuthUnary(cfg.authFunc, cfg.routes))
	}
	return b
}

// Handler returns the HTTP handler with every middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// GRPC returns the underlying *grpc.Server.
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// Meals returns the lookup service both transports serve.
func (s *Server) Meals() *meal.Service {
	return s.meals
}

// Store returns the response cache.
func (s *Server) Store() cache.Store {
	return s.store
}

// Run listens on the configured addresses and serves until ctx is done, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.cfg.httpAddr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	var grpcLis net.Listener
	if s.cfg.grpcAddr != "" {
		grpcLis, err = net.Listen("tcp", s.cfg.grpcAddr)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("grpc listen: %w", err)
		}
	}
	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve serves HTTP on httpLis and, when grpcLis is non-nil, gRPC on
// grpcLis until ctx is done or either server fails.
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	hs := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Op().Info("http server listening", "addr", httpLis.Addr().String())
		if err := hs.Serve(httpLis); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	if grpcLis != nil {
		g.Go(func() error {
			logging.Op().Info("grpc server listening", "addr", grpcLis.Addr().String())
			if err := s.grpcServer.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc serve: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown(hs)
	})
	return g.Wait()
}

func (s *Server) shutdown(hs *http.Server) error {
	logging.Op().Info("shutting down")
	s.health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.shutdownTimeout)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(stopped)
	}()

	err := hs.Shutdown(ctx)
	select {
	case <-stopped:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases the cache backends opened by NewServer. A store passed with
// WithStore is left to the caller.
func (s *Server) Close() error {
	if !s.ownsStore {
		return nil
	}
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
