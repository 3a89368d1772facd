package meal

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/Keksclan/mealsquirrel/cache"
)

// fakeFetcher serves canned bodies keyed by "path?query" and counts calls.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	err    error
	calls  map[string]int
}

func newFakeFetcher(bodies map[string]string) *fakeFetcher {
	return &fakeFetcher{bodies: bodies, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, path string, query url.Values) ([]byte, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	if f.err != nil {
		return nil, f.err
	}
	body, ok := f.bodies[key]
	if !ok {
		return nil, errors.New("unexpected request " + key)
	}
	return []byte(body), nil
}

func (f *fakeFetcher) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func newTestService(f Fetcher) *Service {
	return NewService(cache.NewLocal(100, time.Minute), f)
}

func TestCategories_MissThenHit(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/categories.php": `{"categories":[{"strCategory":"Beef"}]}`,
	})
	s := newTestService(f)

	first, err := s.Categories(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached {
		t.Fatal("first call should be a miss")
	}
	if string(first.Data) != `[{"strCategory":"Beef"}]` {
		t.Fatalf("data = %s", first.Data)
	}

	second, err := s.Categories(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached {
		t.Fatal("second call should be served from cache")
	}
	if string(second.Data) != string(first.Data) {
		t.Fatalf("cached data differs: %s vs %s", second.Data, first.Data)
	}
	if n := f.count("/categories.php"); n != 1 {
		t.Fatalf("upstream called %d times, want 1", n)
	}
}

func TestMealsByCategory_KeyedPerCategory(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/filter.php?c=Beef":    `{"meals":[{"idMeal":"1"}]}`,
		"/filter.php?c=Dessert": `{"meals":[{"idMeal":"2"}]}`,
	})
	s := newTestService(f)

	beef, _ := s.MealsByCategory(t.Context(), "Beef")
	dessert, _ := s.MealsByCategory(t.Context(), "Dessert")
	if string(beef.Data) == string(dessert.Data) {
		t.Fatal("categories must not share a cache entry")
	}

	again, _ := s.MealsByCategory(t.Context(), "Beef")
	if !again.Cached || string(again.Data) != `[{"idMeal":"1"}]` {
		t.Fatalf("got %+v", again)
	}
}

func TestSearch_EmptyTerm(t *testing.T) {
	f := newFakeFetcher(nil)
	s := newTestService(f)

	if _, err := s.Search(t.Context(), ""); !errors.Is(err, ErrSearchTermRequired) {
		t.Fatalf("got %v, want ErrSearchTermRequired", err)
	}
	if len(f.calls) != 0 {
		t.Fatal("upstream must not be called for an empty term")
	}
}

func TestSearch_NullMealsIsCachedHit(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/search.php?s=zzz": `{"meals":null}`,
	})
	s := newTestService(f)

	first, err := s.Search(t.Context(), "zzz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Cached || string(first.Data) != "null" {
		t.Fatalf("first = %+v, want uncached null", first)
	}

	second, err := s.Search(t.Context(), "zzz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Cached || string(second.Data) != "null" {
		t.Fatalf("second = %+v, want cached null", second)
	}
	if n := f.count("/search.php?s=zzz"); n != 1 {
		t.Fatalf("upstream called %d times, want 1", n)
	}
}

func TestRandom_NeverCached(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/random.php": `{"meals":[{"idMeal":"52772"}]}`,
	})
	store := cache.NewLocal(100, time.Minute)
	s := NewService(store, f)

	for range 3 {
		r, err := s.Random(t.Context())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if r.Cached {
			t.Fatal("random must never report cached")
		}
	}
	if n := f.count("/random.php"); n != 3 {
		t.Fatalf("upstream called %d times, want 3", n)
	}
	if store.Len() != 0 {
		t.Fatalf("random must not write to the cache, len = %d", store.Len())
	}
}

func TestLookup(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/lookup.php?i=52772": `{"meals":[{"idMeal":"52772","strMeal":"Teriyaki Chicken"},{"idMeal":"x"}]}`,
		"/lookup.php?i=0":     `{"meals":null}`,
		"/lookup.php?i=1":     `{"meals":[]}`,
	})
	s := newTestService(f)

	tests := []struct {
		id   string
		want string
	}{
		{"52772", `{"idMeal":"52772","strMeal":"Teriyaki Chicken"}`},
		{"0", "null"},
		{"1", "null"},
	}
	for _, tt := range tests {
		r, err := s.Lookup(t.Context(), tt.id)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", tt.id, err)
		}
		if string(r.Data) != tt.want {
			t.Fatalf("Lookup(%s) = %s, want %s", tt.id, r.Data, tt.want)
		}
	}
}

func TestUpstreamErrorIsNotCached(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/categories.php": `{"categories":[]}`,
	})
	f.err = errors.New("upstream down")
	s := newTestService(f)

	if _, err := s.Categories(t.Context()); err == nil {
		t.Fatal("expected upstream error")
	}

	f.mu.Lock()
	f.err = nil
	f.mu.Unlock()

	r, err := s.Categories(t.Context())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Cached {
		t.Fatal("a failed load must not leave a cache entry behind")
	}
}

func TestMalformedBodyIsNotCached(t *testing.T) {
	for _, body := range []string{"", "[]", "<html>", `{"meals":`} {
		f := newFakeFetcher(map[string]string{"/categories.php": body})
		store := cache.NewLocal(100, time.Minute)
		s := NewService(store, f)

		if _, err := s.Categories(t.Context()); !errors.Is(err, ErrMalformed) {
			t.Fatalf("body %q: got %v, want ErrMalformed", body, err)
		}
		if store.Len() != 0 {
			t.Fatalf("body %q was cached", body)
		}
	}
}

func TestUnextractableLookupIsNotCached(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/lookup.php?i=52772": `{"meals":"not a list"}`,
	})
	store := cache.NewLocal(100, time.Minute)
	s := NewService(store, f)

	if _, err := s.Lookup(t.Context(), "52772"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
	if store.Len() != 0 {
		t.Fatal("a document with an unusable meals field was cached")
	}

	f.mu.Lock()
	f.bodies["/lookup.php?i=52772"] = `{"meals":[{"idMeal":"52772"}]}`
	f.mu.Unlock()

	r, err := s.Lookup(t.Context(), "52772")
	if err != nil {
		t.Fatalf("Lookup after upstream recovered: %v", err)
	}
	if r.Cached || string(r.Data) != `{"idMeal":"52772"}` {
		t.Fatalf("got cached=%v data=%s", r.Cached, r.Data)
	}
	if f.count("/lookup.php?i=52772") != 2 {
		t.Fatalf("upstream calls = %d, want 2", f.count("/lookup.php?i=52772"))
	}
}

func TestClearCache(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/categories.php": `{"categories":[]}`,
	})
	s := newTestService(f)

	_, _ = s.Categories(t.Context())
	if err := s.ClearCache(t.Context()); err != nil {
		t.Fatalf("ClearCache: %v", err)
	}

	r, _ := s.Categories(t.Context())
	if r.Cached {
		t.Fatal("expected a miss after ClearCache")
	}
	if n := f.count("/categories.php"); n != 2 {
		t.Fatalf("upstream called %d times, want 2", n)
	}
}

func TestConcurrentMissesLoadOnce(t *testing.T) {
	release := make(chan struct{})
	f := &blockingFetcher{release: release, body: `{"categories":[]}`}
	s := newTestService(f)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Categories(context.Background()); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	// Let every goroutine reach the in-flight load before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := f.calls(); n != 1 {
		t.Fatalf("upstream called %d times, want 1", n)
	}
}

type blockingFetcher struct {
	release chan struct{}
	body    string
	mu      sync.Mutex
	n       int
}

func (f *blockingFetcher) Fetch(ctx context.Context, _ string, _ url.Values) ([]byte, error) {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
	select {
	case <-f.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return []byte(f.body), nil
}

func (f *blockingFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}
