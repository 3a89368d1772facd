package policy

import "time"

// Match is the outcome of resolving a route.
type Match struct {
	Group  string
	Policy *Policy
}

// Resolver holds a set of route groups and resolves a route to the
// best-matching group.
type Resolver struct {
	groups []*GroupBuilder
}

// NewResolver creates a Resolver from the supplied group builders.
func NewResolver(groups ...*GroupBuilder) *Resolver {
	return &Resolver{groups: groups}
}

// Resolve finds the best-matching group for route.
//
// Priority rules:
//   - Exact matches beat prefix matches, which beat regex matches.
//   - Among matches of the same kind the longer match wins.
//   - On a full tie the group registered first wins.
//
// A nil Resolver never matches.
func (res *Resolver) Resolve(route string) (Match, bool) {
	if res == nil {
		return Match{}, false
	}

	var best Match
	bestKind := matchKind(-1)
	bestLen := -1

	for _, g := range res.groups {
		for _, r := range g.rules {
			matched, mLen := r.match(route)
			if !matched {
				continue
			}
			if bestKind < 0 || r.kind < bestKind || (r.kind == bestKind && mLen > bestLen) {
				bestKind = r.kind
				bestLen = mLen
				best = Match{Group: g.name, Policy: g.policy}
			}
		}
	}
	return best, bestKind >= 0
}

// DefaultRoutes returns the route groups the service ships with: admin
// routes on both transports require authentication, and the uncached random
// lookup gets a tighter budget since every call reaches the upstream API.
func DefaultRoutes() *Resolver {
	return NewResolver(
		Group("admin").
			Prefix("/api/admin/").
			Exact("/mealsquirrel.Meals/ClearCache").
			Policy(Policy{AuthRequired: true, Timeout: 10 * time.Second}),
		Group("random").
			Exact("/api/meals/random").
			Exact("/mealsquirrel.Meals/Random").
			Policy(Policy{
				RateLimit: &RateLimitRule{Rate: 30, Window: time.Minute},
				Timeout:   15 * time.Second,
			}),
		Group("public").
			Prefix("/api/").
			Prefix("/mealsquirrel.Meals/").
			Policy(Policy{Timeout: 15 * time.Second}),
	)
}
