// Package meal implements the recipe lookups served by the HTTP and gRPC
// surfaces. Every lookup except Random is load-through cached: the full
// upstream document is stored under a key derived from the request, and the
// interesting field is extracted on the way out. Documents whose field cannot be
// extracted are rejected before they reach the cache.
package meal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/Keksclan/mealsquirrel/cache"
	"github.com/Keksclan/mealsquirrel/contextx"
)

var (
	// ErrSearchTermRequired is returned by Search for an empty term.
	ErrSearchTermRequired = errors.New("meal: search term is required")

	// ErrMalformed is returned when the upstream body is not a JSON object.
	// Such bodies are never cached.
	ErrMalformed = errors.New("meal: upstream returned a malformed document")
)

// Fetcher retrieves a raw JSON document from the recipe API.
type Fetcher interface {
	Fetch(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// Result is the outcome of a lookup. Data is the extracted JSON value and may
// be the literal null; Cached reports whether it was served from the cache.
type Result struct {
	Data   json.RawMessage
	Cached bool
}

var jsonNull = json.RawMessage("null")

// Service answers recipe lookups from the cache or the upstream API.
type Service struct {
	store cache.Store
	group cache.Group
	fetch Fetcher
}

// NewService wires a Service to its cache and upstream client.
func NewService(store cache.Store, fetch Fetcher) *Service {
	return &Service{store: store, fetch: fetch}
}

// Categories lists every meal category.
func (s *Service) Categories(ctx context.Context) (Result, error) {
	return s.cached(ctx, "categories", "/categories.php", nil, field("categories"))
}

// MealsByCategory lists the meals filed under category.
func (s *Service) MealsByCategory(ctx context.Context, category string) (Result, error) {
	return s.cached(ctx, "category_"+category, "/filter.php", url.Values{"c": {category}}, field("meals"))
}

// Search finds meals whose name matches term.
func (s *Service) Search(ctx context.Context, term string) (Result, error) {
	if term == "" {
		return Result{}, ErrSearchTermRequired
	}
	return s.cached(ctx, "search_"+term, "/search.php", url.Values{"s": {term}}, field("meals"))
}

// Random returns one random meal. It bypasses the cache in both directions.
func (s *Service) Random(ctx context.Context) (Result, error) {
	body, err := s.load(ctx, "/random.php", nil)
	if err != nil {
		return Result{}, err
	}
	data, err := field("meals")(body)
	if err != nil {
		return Result{}, err
	}
	return Result{Data: data}, nil
}

// Lookup returns the full record for the meal with id, or a null Data when
// the upstream knows no such meal.
func (s *Service) Lookup(ctx context.Context, id string) (Result, error) {
	return s.cached(ctx, "meal_"+id, "/lookup.php", url.Values{"i": {id}}, firstMeal)
}

// ClearCache drops every cached document.
func (s *Service) ClearCache(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("meal: clear cache: %w", err)
	}
	if a, ok := contextx.ActorFromContext(ctx); ok {
		contextx.Logger(ctx).Info("cache cleared", "actor", a.Subject)
	} else {
		contextx.Logger(ctx).Info("cache cleared")
	}
	return nil
}

// cached runs a load-through lookup under key and extracts the result. A
// document that extract rejects is never stored.
func (s *Service) cached(ctx context.Context, key, path string, query url.Values, extract func([]byte) (json.RawMessage, error)) (Result, error) {
	body, hit, err := s.group.Do(ctx, s.store, key, func(ctx context.Context) ([]byte, error) {
		body, err := s.load(ctx, path, query)
		if err != nil {
			return nil, err
		}
		if _, err := extract(body); err != nil {
			return nil, err
		}
		return body, nil
	})
	if err != nil {
		return Result{}, err
	}
	contextx.Logger(ctx).Debug("meal lookup", "key", key, "cached", hit)

	data, err := extract(body)
	if err != nil {
		return Result{}, err
	}
	return Result{Data: data, Cached: hit}, nil
}

// load fetches path and rejects anything that is not a JSON object.
func (s *Service) load(ctx context.Context, path string, query url.Values) ([]byte, error) {
	body, err := s.fetch.Fetch(ctx, path, query)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, path)
	}
	return trimmed, nil
}

// field returns an extractor for the top-level member name. A missing member
// reads as null.
func field(name string) func([]byte) (json.RawMessage, error) {
	return func(body []byte) (json.RawMessage, error) {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if v, ok := doc[name]; ok {
			return v, nil
		}
		return jsonNull, nil
	}
}

// firstMeal extracts meals[0], or null when meals is null or empty.
func firstMeal(body []byte) (json.RawMessage, error) {
	raw, err := field("meals")(body)
	if err != nil {
		return nil, err
	}
	var meals []json.RawMessage
	if err := json.Unmarshal(raw, &meals); err != nil {
		return nil, fmt.Errorf("%w: meals: %v", ErrMalformed, err)
	}
	if len(meals) == 0 {
		return jsonNull, nil
	}
	return meals[0], nil
}
