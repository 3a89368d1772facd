package interceptors

import (
	"context"

	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/Keksclan/mealsquirrel/policy"
	"google.golang.org/grpc"
)

// PolicyUnary records the matched route group in the context and applies the
// group's timeout, if any.
func PolicyUnary(r *policy.Resolver) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		m, ok := r.Resolve(info.FullMethod)
		if !ok {
			return handler(ctx, req)
		}
		ctx = contextx.WithGroup(ctx, m.Group)
		if m.Policy != nil && m.Policy.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, m.Policy.Timeout)
			defer cancel()
		}
		return handler(ctx, req)
	}
}
