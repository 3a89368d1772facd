package middleware

import (
	"net/http"

	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds caller-supplied IDs before they reach the logs.
const maxRequestIDLen = 128

// RequestID adopts the caller's X-Request-ID (or generates a UUID), stores it
// in the context with a request logger and echoes it in the response.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}

			ctx := contextx.WithRequestID(r.Context(), id)
			ctx = contextx.WithLogger(ctx, contextx.Logger(ctx).With(
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
			))
			w.Header().Set(RequestIDHeader, id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
