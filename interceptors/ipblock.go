package interceptors

import (
	"context"

	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/Keksclan/mealsquirrel/security"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var errForbidden = status.Error(codes.PermissionDenied, "client address is blocked")

// IPBlockUnary rejects calls whose client address b denies with
// PermissionDenied. Calls without a resolvable address are rejected too.
func IPBlockUnary(b *security.IPBlocker) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		if b.Evaluate(ctx, md) {
			return handler(ctx, req)
		}
		contextx.Logger(ctx).Info("call blocked", "method", info.FullMethod)
		return nil, errForbidden
	}
}
