package interceptors

import (
	"context"
	"sync"

	"github.com/Keksclan/mealsquirrel/policy"
	"github.com/Keksclan/mealsquirrel/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errRateLimited is allocated once to avoid per-request allocations on the hot path.
var errRateLimited = status.Error(codes.ResourceExhausted, "rate limit exceeded")

// rateLimitState holds the global limiter, an optional policy resolver, and a
// cache of per-group limiters created lazily from resolved policies.
type rateLimitState struct {
	global   *ratelimit.Limiter
	resolver *policy.Resolver

	mu     sync.Mutex
	groups map[string]*ratelimit.Limiter
}

// limiterFor returns the per-group limiter when the resolver matches
// fullMethod to a group with a RateLimit policy. Otherwise it returns the
// global limiter, which may be nil.
func (s *rateLimitState) limiterFor(fullMethod string) *ratelimit.Limiter {
	m, ok := s.resolver.Resolve(fullMethod)
	if !ok || m.Policy == nil || m.Policy.RateLimit == nil {
		return s.global
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if l, ok := s.groups[m.Group]; ok {
		return l
	}
	rl := m.Policy.RateLimit
	l := ratelimit.PerWindow(rl.Rate, rl.Window)
	s.groups[m.Group] = l
	return l
}

// RateLimitUnary returns a unary server interceptor that rejects requests when
// the applicable rate limiter has been exhausted. When a policy resolver is
// provided and the method matches a group with a RateLimit rule, that
// per-group limiter is used; otherwise the global limiter applies. A nil
// global limiter leaves unmatched methods unlimited.
func RateLimitUnary(l *ratelimit.Limiter, r *policy.Resolver) grpc.UnaryServerInterceptor {
	st := &rateLimitState{global: l, resolver: r, groups: make(map[string]*ratelimit.Limiter)}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if lim := st.limiterFor(info.FullMethod); lim != nil && !lim.Allow() {
			return nil, errRateLimited
		}
		return handler(ctx, req)
	}
}
