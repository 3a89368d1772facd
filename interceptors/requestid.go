package interceptors

import (
	"context"

	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RequestIDKey is the metadata key carrying the request ID in both
// directions.
const RequestIDKey = "x-request-id"

// RequestIDUnary returns a unary server interceptor that adopts the caller's
// x-request-id (or generates a UUID), stores it in the context together with
// a request logger, and echoes it back as a response header.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		id := contextx.RequestIDFromContext(ctx)
		if id == "" {
			if md, ok := metadata.FromIncomingContext(ctx); ok {
				if vals := md.Get(RequestIDKey); len(vals) > 0 && vals[0] != "" {
					id = vals[0]
				}
			}
		}
		if id == "" {
			id = uuid.NewString()
		}

		ctx = contextx.WithRequestID(ctx, id)
		ctx = contextx.WithLogger(ctx, contextx.Logger(ctx).With("request_id", id, "method", info.FullMethod))
		// Fails outside a real server transport (unit tests); nothing to do then.
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, id))

		return handler(ctx, req)
	}
}
