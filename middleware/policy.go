package middleware

import (
	"context"
	"net/http"

	"github.com/Keksclan/mealsquirrel/contextx"
	"github.com/Keksclan/mealsquirrel/policy"
)

// Policy records the matched route group in the context and bounds the
// request with the group's timeout, if any.
func Policy(res *policy.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, ok := res.Resolve(r.URL.Path)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := contextx.WithGroup(r.Context(), m.Group)
			ctx = contextx.WithLogger(ctx, contextx.Logger(ctx).With("group", m.Group))
			if m.Policy != nil && m.Policy.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, m.Policy.Timeout)
				defer cancel()
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
