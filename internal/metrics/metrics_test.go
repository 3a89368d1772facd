package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Keksclan/mealsquirrel/breaker"
)

// scrape renders the registry the way Prometheus would see it.
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func assertContains(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("metrics output missing %q\n%s", w, out)
		}
	}
}

func TestObserveHTTP(t *testing.T) {
	m := New("mealsquirrel")

	m.ObserveHTTP("/api/categories", "GET", 200, 20*time.Millisecond)
	m.ObserveHTTP("/api/categories", "GET", 200, 30*time.Millisecond)
	m.ObserveHTTP("/api/categories", "GET", 500, time.Millisecond)

	assertContains(t, scrape(t, m),
		`mealsquirrel_http_requests_total{code="200",method="GET",route="/api/categories"} 2`,
		`mealsquirrel_http_requests_total{code="500",method="GET",route="/api/categories"} 1`,
		`mealsquirrel_http_request_duration_seconds_count{method="GET",route="/api/categories"} 3`,
	)
}

func TestTrackInFlight(t *testing.T) {
	m := New("mealsquirrel")

	done := m.TrackInFlight()
	assertContains(t, scrape(t, m), "mealsquirrel_http_requests_in_flight 1")
	done()
	assertContains(t, scrape(t, m), "mealsquirrel_http_requests_in_flight 0")
}

func TestBreakerTransition(t *testing.T) {
	m := New("mealsquirrel")

	m.BreakerTransition("mealdb", breaker.Closed, breaker.Open)

	assertContains(t, scrape(t, m),
		`mealsquirrel_circuit_breaker_state{target="mealdb"} 1`,
		`mealsquirrel_circuit_breaker_transitions_total{from="closed",target="mealdb",to="open"} 1`,
	)
}

func TestObserveUpstream(t *testing.T) {
	m := New("mealsquirrel")
	m.ObserveUpstream("/categories.php", "ok", 10*time.Millisecond)
	m.ObserveUpstream("/random.php", "rejected", 0)

	assertContains(t, scrape(t, m),
		`mealsquirrel_upstream_requests_total{endpoint="/categories.php",outcome="ok"} 1`,
		`mealsquirrel_upstream_requests_total{endpoint="/random.php",outcome="rejected"} 1`,
		"go_goroutines",
	)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("/", "GET", 200, time.Millisecond)
	m.ObserveUpstream("/random.php", "ok", time.Millisecond)
	m.BreakerTransition("mealdb", breaker.Closed, breaker.Open)
	m.TrackInFlight()()
}
