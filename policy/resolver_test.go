package policy

import (
	"testing"
	"time"
)

func TestResolve_ExactMatch(t *testing.T) {
	r := NewResolver(
		Group("admin").
			Exact("/api/admin/cache/clear").
			Policy(Policy{AuthRequired: true}),
	)

	m, ok := r.Resolve("/api/admin/cache/clear")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Group != "admin" {
		t.Fatalf("got group %q, want %q", m.Group, "admin")
	}
	if !m.Policy.AuthRequired {
		t.Fatal("expected AuthRequired to be true")
	}
}

func TestResolve_PrefixMatch(t *testing.T) {
	r := NewResolver(
		Group("public").
			Prefix("/api/").
			Policy(Policy{Timeout: 5 * time.Second}),
	)

	m, ok := r.Resolve("/api/categories/Beef")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Group != "public" {
		t.Fatalf("got group %q, want %q", m.Group, "public")
	}
	if m.Policy.Timeout != 5*time.Second {
		t.Fatalf("got timeout %v, want %v", m.Policy.Timeout, 5*time.Second)
	}
}

func TestResolve_RegexMatch(t *testing.T) {
	r := NewResolver(
		Group("lookup").
			Regex(`^/api/meals/[0-9]+$`).
			Policy(Policy{}),
	)

	if _, ok := r.Resolve("/api/meals/52772"); !ok {
		t.Fatal("expected a regex match")
	}
	if _, ok := r.Resolve("/api/meals/random"); ok {
		t.Fatal("non-numeric id should not match")
	}
}

func TestResolve_NoMatch(t *testing.T) {
	r := NewResolver(
		Group("admin").Exact("/api/admin/cache/clear").Policy(Policy{}),
	)

	if _, ok := r.Resolve("/api/categories"); ok {
		t.Fatal("expected no match")
	}
}

func TestResolve_NilResolver(t *testing.T) {
	var r *Resolver
	if _, ok := r.Resolve("/api/health"); ok {
		t.Fatal("nil resolver should never match")
	}
}

func TestResolve_ExactBeatsPrefix(t *testing.T) {
	r := NewResolver(
		Group("prefix-group").
			Prefix("/mealsquirrel.Meals/").
			Policy(Policy{Timeout: 1 * time.Second}),
		Group("exact-group").
			Exact("/mealsquirrel.Meals/Random").
			Policy(Policy{Timeout: 2 * time.Second}),
	)

	m, ok := r.Resolve("/mealsquirrel.Meals/Random")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Group != "exact-group" {
		t.Fatalf("exact should beat prefix: got %q", m.Group)
	}
	if m.Policy.Timeout != 2*time.Second {
		t.Fatalf("got timeout %v, want %v", m.Policy.Timeout, 2*time.Second)
	}
}

func TestResolve_PrefixBeatsRegex(t *testing.T) {
	r := NewResolver(
		Group("regex-group").
			Regex(`/mealsquirrel\.Meals/`).
			Policy(Policy{Timeout: 1 * time.Second}),
		Group("prefix-group").
			Prefix("/mealsquirrel.Meals/").
			Policy(Policy{Timeout: 2 * time.Second}),
	)

	m, ok := r.Resolve("/mealsquirrel.Meals/Search")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Group != "prefix-group" {
		t.Fatalf("prefix should beat regex: got %q", m.Group)
	}
}

func TestResolve_LongerPrefixWins(t *testing.T) {
	r := NewResolver(
		Group("short").
			Prefix("/api/").
			Policy(Policy{Timeout: 1 * time.Second}),
		Group("long").
			Prefix("/api/admin/").
			Policy(Policy{Timeout: 2 * time.Second}),
	)

	m, ok := r.Resolve("/api/admin/cache/clear")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Group != "long" {
		t.Fatalf("longer prefix should win: got %q", m.Group)
	}
}

func TestResolve_StableFallback(t *testing.T) {
	// Equal exact matches: the first registered group wins.
	r := NewResolver(
		Group("first").
			Exact("/api/health").
			Policy(Policy{Timeout: 1 * time.Second}),
		Group("second").
			Exact("/api/health").
			Policy(Policy{Timeout: 2 * time.Second}),
	)

	m, ok := r.Resolve("/api/health")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Group != "first" {
		t.Fatalf("first-registered group should win: got %q", m.Group)
	}
	if m.Policy.Timeout != 1*time.Second {
		t.Fatalf("got timeout %v, want %v", m.Policy.Timeout, 1*time.Second)
	}
}

func TestResolve_MultipleRulesInGroup(t *testing.T) {
	r := NewResolver(
		Group("mixed").
			Exact("/api/admin/cache/clear").
			Prefix("/mealsquirrel.Meals/Clear").
			Regex(`^/internal/`).
			Policy(Policy{AuthRequired: true}),
	)

	for _, route := range []string{
		"/api/admin/cache/clear",
		"/mealsquirrel.Meals/ClearCache",
		"/internal/debug",
	} {
		m, ok := r.Resolve(route)
		if !ok {
			t.Fatalf("expected match for %s", route)
		}
		if m.Group != "mixed" {
			t.Fatalf("got group %q for %s, want %q", m.Group, route, "mixed")
		}
	}
}

func TestResolve_RateLimitPolicy(t *testing.T) {
	r := NewResolver(
		Group("limited").
			Exact("/api/meals/random").
			Policy(Policy{
				RateLimit: &RateLimitRule{Rate: 100, Window: time.Minute},
			}),
	)

	m, ok := r.Resolve("/api/meals/random")
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Policy.RateLimit == nil {
		t.Fatal("expected RateLimit to be set")
	}
	if m.Policy.RateLimit.Rate != 100 {
		t.Fatalf("got rate %d, want 100", m.Policy.RateLimit.Rate)
	}
}

func TestDefaultRoutes(t *testing.T) {
	r := DefaultRoutes()

	tests := []struct {
		route        string
		group        string
		authRequired bool
		limited      bool
	}{
		{"/api/admin/cache/clear", "admin", true, false},
		{"/mealsquirrel.Meals/ClearCache", "admin", true, false},
		{"/api/meals/random", "random", false, true},
		{"/mealsquirrel.Meals/Random", "random", false, true},
		{"/api/categories", "public", false, false},
		{"/api/meals/52772", "public", false, false},
		{"/mealsquirrel.Meals/Search", "public", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			m, ok := r.Resolve(tt.route)
			if !ok {
				t.Fatalf("expected %s to resolve", tt.route)
			}
			if m.Group != tt.group {
				t.Fatalf("group = %q, want %q", m.Group, tt.group)
			}
			if m.Policy.AuthRequired != tt.authRequired {
				t.Fatalf("AuthRequired = %v, want %v", m.Policy.AuthRequired, tt.authRequired)
			}
			if (m.Policy.RateLimit != nil) != tt.limited {
				t.Fatalf("RateLimit set = %v, want %v", m.Policy.RateLimit != nil, tt.limited)
			}
		})
	}

	if _, ok := r.Resolve("/metrics"); ok {
		t.Fatal("/metrics should not belong to any group")
	}
}
