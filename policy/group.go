// Package policy maps routes to per-route behaviour. A route is either an
// HTTP path ("/api/meals/random") or a full gRPC method
// ("/mealsquirrel.Meals/Random"); groups of routes share one Policy.
package policy

import (
	"regexp"
	"time"
)

// RateLimitRule describes a rate-limiting policy for a group of routes.
type RateLimitRule struct {
	// Rate is the maximum number of requests allowed within Window.
	Rate int
	// Window is the time window for the rate limit.
	Window time.Duration
}

// Policy holds the configuration that applies to a matched route group.
type Policy struct {
	RateLimit    *RateLimitRule
	Timeout      time.Duration
	AuthRequired bool
}

type matchKind int

const (
	kindExact  matchKind = iota // highest priority
	kindPrefix                  // medium priority
	kindRegex                   // lowest priority
)

type rule struct {
	kind    matchKind
	pattern string         // exact and prefix
	re      *regexp.Regexp // regex
}

// GroupBuilder constructs a route group with one or more matching rules and
// a policy.
type GroupBuilder struct {
	name   string
	rules  []rule
	policy *Policy
}

// Group starts building a new route group with the given name.
func Group(name string) *GroupBuilder {
	return &GroupBuilder{name: name}
}

// Exact adds an exact-match rule for route.
func (g *GroupBuilder) Exact(route string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindExact, pattern: route})
	return g
}

// Prefix adds a prefix-match rule for route.
func (g *GroupBuilder) Prefix(route string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindPrefix, pattern: route})
	return g
}

// Regex adds a regex-match rule. An invalid expression panics.
func (g *GroupBuilder) Regex(expr string) *GroupBuilder {
	g.rules = append(g.rules, rule{kind: kindRegex, pattern: expr, re: regexp.MustCompile(expr)})
	return g
}

// Policy attaches a Policy to the group and returns the finished builder.
func (g *GroupBuilder) Policy(p Policy) *GroupBuilder {
	g.policy = &p
	return g
}
