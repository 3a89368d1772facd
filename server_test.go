package mealsquirrel

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Keksclan/mealsquirrel/auth"
	"github.com/Keksclan/mealsquirrel/cache"
	"github.com/Keksclan/mealsquirrel/internal/metrics"
	"github.com/Keksclan/mealsquirrel/mealdb"
	"github.com/Keksclan/mealsquirrel/middleware"
)

// countingFetcher serves one canned document per path and counts calls.
type countingFetcher struct {
	calls atomic.Int64
}

func (f *countingFetcher) Fetch(_ context.Context, path string, _ url.Values) ([]byte, error) {
	f.calls.Add(1)
	switch path {
	case "/categories.php":
		return []byte(`{"categories":[{"strCategory":"Dessert"}]}`), nil
	case "/random.php", "/lookup.php", "/search.php", "/filter.php":
		return []byte(`{"meals":null}`), nil
	}
	return nil, errors.New("unexpected path " + path)
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *countingFetcher) {
	t.Helper()
	f := &countingFetcher{}
	s, err := NewServer(append([]Option{WithFetcher(f)}, opts...)...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, f
}

type envelope struct {
	OK         bool            `json:"ok"`
	Data       json.RawMessage `json:"data"`
	Cached     bool            `json:"cached"`
	Error      string          `json:"error"`
	StatusCode int             `json:"statusCode"`
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestNewServerReturnsNonNil(t *testing.T) {
	s, _ := newTestServer(t)
	if s.GRPC() == nil || s.Handler() == nil || s.Meals() == nil || s.Store() == nil {
		t.Fatal("NewServer left a component nil")
	}
}

func TestNewServerRejectsUnknownCacheBackend(t *testing.T) {
	_, err := NewServer(WithFetcher(&countingFetcher{}), WithCache(cache.Config{Backend: "memcached"}))
	if err == nil {
		t.Fatal("expected an error for an unknown cache backend")
	}
}

func TestNewServerRejectsRelativeUpstream(t *testing.T) {
	_, err := NewServer(WithUpstream(mealdb.Config{BaseURL: "not-a-url"}))
	if err == nil {
		t.Fatal("expected an error for a relative upstream URL")
	}
}

func TestHTTP_CachesBetweenRequests(t *testing.T) {
	s, f := newTestServer(t, DefaultOptions()...)

	_, first := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	rec, second := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if first.Cached || !second.Cached {
		t.Fatalf("cached flags = %v, %v; want false, true", first.Cached, second.Cached)
	}
	if string(second.Data) != `[{"strCategory":"Dessert"}]` {
		t.Fatalf("data = %s", second.Data)
	}
	if got := f.calls.Load(); got != 1 {
		t.Fatalf("upstream calls = %d, want 1", got)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("expected a request ID header")
	}
}

func TestHTTP_AdminRequiresToken(t *testing.T) {
	s, _ := newTestServer(t, WithAuth(auth.StaticToken("s3cret")))

	rec, env := do(t, s.Handler(), httptest.NewRequest(http.MethodPost, "/api/admin/cache/clear", nil))
	if rec.Code != http.StatusUnauthorized || env.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, envelope = %+v", rec.Code, env)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/cache/clear", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec, env = do(t, s.Handler(), req)
	if rec.Code != http.StatusOK || !env.OK {
		t.Fatalf("status = %d, envelope = %+v", rec.Code, env)
	}

	// Public routes stay open.
	if rec, _ := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/api/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestHTTP_ClearEmptiesCache(t *testing.T) {
	s, f := newTestServer(t)

	do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	do(t, s.Handler(), httptest.NewRequest(http.MethodPost, "/api/admin/cache/clear", nil))
	_, env := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/api/categories", nil))

	if env.Cached {
		t.Fatal("expected a miss after clearing")
	}
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("upstream calls = %d, want 2", got)
	}
}

func TestHTTP_MetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, WithMetrics(metrics.New("mealsquirrel")))

	do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	rec, _ := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `mealsquirrel_http_requests_total{code="200",method="GET",route="public"} 1`) {
		t.Fatalf("metrics output missing the categories request:\n%s", rec.Body.String())
	}
}

func TestHTTP_NoMetricsEndpointWithoutMetrics(t *testing.T) {
	s, _ := newTestServer(t)

	rec, _ := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHTTP_RandomGroupIsRateLimited(t *testing.T) {
	s, _ := newTestServer(t, WithRateLimit(1000, 1000))

	var limited bool
	for range 31 {
		rec, _ := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/api/meals/random", nil))
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("expected the random group to hit its 30/min budget")
	}

	if rec, _ := do(t, s.Handler(), httptest.NewRequest(http.MethodGet, "/api/categories", nil)); rec.Code != http.StatusOK {
		t.Fatalf("categories status = %d, want 200", rec.Code)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s, _ := newTestServer(t, WithShutdownTimeout(time.Second))

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, httpLis, grpcLis) }()

	target := "http://" + httpLis.Addr().String() + "/api/health"
	var resp *http.Response
	for range 50 {
		resp, err = http.Get(target)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), `"ok":true`) {
		t.Fatalf("health body = %s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestOptionFunc(t *testing.T) {
	// Compile-time check that Option is a func(*config).
	var _ Option = func(c *config) {
		_ = c
	}
}
