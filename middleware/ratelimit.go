package middleware

import (
	"net/http"
	"sync"

	"github.com/Keksclan/mealsquirrel/api"
	"github.com/Keksclan/mealsquirrel/policy"
	"github.com/Keksclan/mealsquirrel/ratelimit"
	"github.com/Keksclan/mealsquirrel/security"
)

// RateLimit throttles each client address. Routes whose policy group carries
// a RateLimit rule get a dedicated per-client bucket for that group; every
// other route shares the default per-client bucket. A nil perClient leaves
// unmatched routes unlimited.
func RateLimit(perClient *ratelimit.Keyed, clients *security.ClientResolver, res *policy.Resolver) func(http.Handler) http.Handler {
	var (
		mu     sync.Mutex
		groups = make(map[string]*ratelimit.Keyed)
	)
	limiterFor := func(path string) *ratelimit.Keyed {
		m, ok := res.Resolve(path)
		if !ok || m.Policy == nil || m.Policy.RateLimit == nil {
			return perClient
		}
		mu.Lock()
		defer mu.Unlock()
		if k, ok := groups[m.Group]; ok {
			return k
		}
		rl := m.Policy.RateLimit
		k := ratelimit.NewKeyed(float64(rl.Rate)/rl.Window.Seconds(), rl.Rate, 0)
		groups[m.Group] = k
		return k
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lim := limiterFor(r.URL.Path)
			if lim == nil {
				next.ServeHTTP(w, r)
				return
			}
			key := r.RemoteAddr
			if addr, ok := clients.FromRequest(r); ok {
				key = addr.String()
			}
			if !lim.Allow(key) {
				w.Header().Set("Retry-After", "1")
				api.WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
