// Package interceptors holds the unary gRPC interceptors installed in front
// of the Meals service.
package interceptors

import (
	"context"
	"slices"

	"google.golang.org/grpc"
)

// ChainUnary folds chain into one interceptor. chain[0] sees the call first
// and the final handler runs after the last entry. An empty chain yields nil
// so callers can skip grpc.UnaryInterceptor entirely.
func ChainUnary(chain []grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	}
	chain = slices.Clone(chain)

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, final grpc.UnaryHandler) (any, error) {
		return link(chain, info, final)(ctx, req)
	}
}

// link returns a handler that runs chain in order and then final.
func link(chain []grpc.UnaryServerInterceptor, info *grpc.UnaryServerInfo, final grpc.UnaryHandler) grpc.UnaryHandler {
	if len(chain) == 0 {
		return final
	}
	return func(ctx context.Context, req any) (any, error) {
		return chain[0](ctx, req, info, link(chain[1:], info, final))
	}
}
