// Package auth provides the authentication hook used by the auth middleware
// and interceptor, plus a static bearer-token implementation for the admin
// routes.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/Keksclan/mealsquirrel/contextx"
)

// ErrUnauthenticated is returned when a request carries no valid credentials.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// AuthFunc authenticates a request. It receives the request context, the
// route (HTTP path or full gRPC method) and the bearer token extracted by the
// transport. On success it returns a (possibly enriched) context; on failure
// it returns an error.
type AuthFunc func(ctx context.Context, route, token string) (context.Context, error)

// StaticToken accepts exactly one shared secret and records an admin Actor.
// An empty secret rejects everything.
func StaticToken(secret string) AuthFunc {
	want := []byte(secret)
	return func(ctx context.Context, _ string, token string) (context.Context, error) {
		if len(want) == 0 || subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			return ctx, ErrUnauthenticated
		}
		return contextx.WithActor(ctx, contextx.Actor{Subject: "admin", Method: "static-token"}), nil
	}
}

// BearerToken extracts the token from an Authorization header value. Values
// without the "Bearer " scheme are returned as-is.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}
