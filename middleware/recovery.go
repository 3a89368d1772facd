package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/Keksclan/mealsquirrel/api"
	"github.com/Keksclan/mealsquirrel/contextx"
)

// Recovery converts a panic in the handler chain into a 500 error envelope.
// http.ErrAbortHandler is re-raised so the server can drop the connection.
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				contextx.Logger(r.Context()).Error("panic recovered",
					"path", r.URL.Path,
					"panic", rec,
					"stack", string(debug.Stack()),
				)
				api.WriteError(w, http.StatusInternalServerError, "Internal server error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
