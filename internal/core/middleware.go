// Package core assembles the middleware stacks for the HTTP API and the gRPC
// service from entries registered in any order.
package core

import (
	"cmp"
	"net/http"
	"slices"

	"google.golang.org/grpc"
)

// HTTPMiddleware wraps an http.Handler.
type HTTPMiddleware = func(http.Handler) http.Handler

// middleware represents a single HTTP/gRPC pair with a deterministic
// execution order. Lower Order values run first (outermost).
type middleware struct {
	HTTP  HTTPMiddleware
	Unary grpc.UnaryServerInterceptor
	Order int
}

// MiddlewareBuilder collects middleware entries and produces sorted slices
// ready for chaining. The zero value is ready to use.
type MiddlewareBuilder struct {
	entries []middleware
}

// Add registers a middleware entry with the given order.
// Either side may be nil if only one transport needs it.
func (b *MiddlewareBuilder) Add(order int, h HTTPMiddleware, unary grpc.UnaryServerInterceptor) {
	b.entries = append(b.entries, middleware{
		HTTP:  h,
		Unary: unary,
		Order: order,
	})
}

// Build sorts the collected middleware by Order (stable) and returns the
// separated HTTP and unary slices.
func (b *MiddlewareBuilder) Build() ([]HTTPMiddleware, []grpc.UnaryServerInterceptor) {
	slices.SortStableFunc(b.entries, func(a, c middleware) int {
		return cmp.Compare(a.Order, c.Order)
	})

	var httpMW []HTTPMiddleware
	var unary []grpc.UnaryServerInterceptor

	for _, m := range b.entries {
		if m.HTTP != nil {
			httpMW = append(httpMW, m.HTTP)
		}
		if m.Unary != nil {
			unary = append(unary, m.Unary)
		}
	}

	return httpMW, unary
}

// WrapHTTP applies mw to h so that mw[0] is the outermost layer.
func WrapHTTP(h http.Handler, mw []HTTPMiddleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// ServerOptions translates the unary slice into grpc.ServerOption values,
// chained with chain. This keeps the wiring logic isolated from the public
// API surface.
func ServerOptions(
	unary []grpc.UnaryServerInterceptor,
	chain func([]grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor,
) []grpc.ServerOption {
	if u := chain(unary); u != nil {
		return []grpc.ServerOption{grpc.UnaryInterceptor(u)}
	}
	return nil
}
