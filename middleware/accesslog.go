package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/Keksclan/mealsquirrel/internal/metrics"
	"github.com/Keksclan/mealsquirrel/policy"
)

// AccessLog logs one line per request with the request logger. Server errors
// log at Warn, everything else at Info.
func AccessLog() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			contextx.Logger(r.Context()).Log(r.Context(), level, "http request",
				"status", rec.status,
				"duration", time.Since(start),
			)
		})
	}
}

// Metrics records request counts, latencies and the in-flight gauge. The
// route label is the matched policy group, or "other", which keeps the label
// set bounded no matter what paths clients send.
func Metrics(m *metrics.Metrics, res *policy.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			done := m.TrackInFlight()
			defer done()

			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			route := "other"
			if match, ok := res.Resolve(r.URL.Path); ok {
				route = match.Group
			}
			m.ObserveHTTP(route, r.Method, rec.status, time.Since(start))
		})
	}
}
