package interceptors

import (
	"context"

	"github.com/Keksclan/mealsquirrel/auth"
	"github.com/Keksclan/mealsquirrel/policy"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// errUnauthenticated is allocated once to avoid per-request allocations on the hot path.
var errUnauthenticated = status.Error(codes.Unauthenticated, "unauthenticated")

// authError returns the original error if it is already a gRPC status error,
// otherwise wraps it as codes.Unauthenticated.
func authError(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	return errUnauthenticated
}

// AuthUnary returns a unary server interceptor that calls fn with the bearer
// token from the "authorization" metadata. With a resolver, only methods
// whose policy sets AuthRequired are checked; a nil resolver checks every
// method.
func AuthUnary(fn auth.AuthFunc, r *policy.Resolver) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if r != nil {
			m, ok := r.Resolve(info.FullMethod)
			if !ok || m.Policy == nil || !m.Policy.AuthRequired {
				return handler(ctx, req)
			}
		}

		var token string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get("authorization"); len(vals) > 0 {
				token = auth.BearerToken(vals[0])
			}
		}
		newCtx, err := fn(ctx, info.FullMethod, token)
		if err != nil {
			return nil, authError(err)
		}
		return handler(newCtx, req)
	}
}
