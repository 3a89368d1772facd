package middleware

import (
	"net/http"

	"github.com/Keksclan/mealsquirrel/api"
	"github.com/Keksclan/mealsquirrel/auth"
	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/Keksclan/mealsquirrel/policy"
)

// AdminTokenHeader is accepted as an alternative to a bearer Authorization
// header.
const AdminTokenHeader = "X-Admin-Token"

// Auth checks routes whose policy sets AuthRequired with fn. A nil resolver
// checks every route.
func Auth(fn auth.AuthFunc, res *policy.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if res != nil {
				m, ok := res.Resolve(r.URL.Path)
				if !ok || m.Policy == nil || !m.Policy.AuthRequired {
					next.ServeHTTP(w, r)
					return
				}
			}

			token := auth.BearerToken(r.Header.Get("Authorization"))
			if token == "" {
				token = r.Header.Get(AdminTokenHeader)
			}
			ctx, err := fn(r.Context(), r.URL.Path, token)
			if err != nil {
				contextx.Logger(r.Context()).Info("authentication failed", "error", err)
				api.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
