package middleware

import (
	"net/http"

	"github.com/Keksclan/mealsquirrel/api"
	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/Keksclan/mealsquirrel/security"
)

// IPBlock rejects requests whose client address the blocker denies with 403.
func IPBlock(b *security.IPBlocker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !b.AllowRequest(r) {
				contextx.Logger(r.Context()).Info("request blocked", "remote", r.RemoteAddr)
				api.WriteError(w, http.StatusForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
