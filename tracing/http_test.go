package tracing

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func TestMiddleware_CreatesServerSpan(t *testing.T) {
	cfg, rec := newTestConfig(t)

	h := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !trace.SpanContextFromContext(r.Context()).IsValid() {
			t.Error("handler context should carry the server span")
		}
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h.ServeHTTP(httptest.NewRecorder(), req)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "GET /api/categories" {
		t.Fatalf("got span name %q", span.Name())
	}
	if span.SpanKind() != trace.SpanKindServer {
		t.Fatalf("expected SpanKindServer, got %v", span.SpanKind())
	}
	if got := span.SpanContext().TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("trace context not extracted; traceID = %s", got)
	}
	if span.Status().Code == codes.Error {
		t.Fatal("4xx responses should not mark the span as failed")
	}
}

func TestMiddleware_ServerErrorMarksSpan(t *testing.T) {
	cfg, rec := newTestConfig(t)

	h := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/meals/random", nil))

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status().Code != codes.Error {
		t.Fatalf("expected Error status, got %v", spans[0].Status().Code)
	}
}

func TestMiddleware_NilConfig_Passthrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	Middleware(nil)(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("handler was not called")
	}
}

func TestTransport_InjectsTraceContext(t *testing.T) {
	cfg, rec := newTestConfig(t)

	var gotTraceparent string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceparent = r.Header.Get("traceparent")
		_, _ = w.Write([]byte(`{"meals":null}`))
	}))
	defer upstream.Close()

	client := &http.Client{Transport: Transport(cfg, nil)}
	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, upstream.URL+"/random.php", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = resp.Body.Close()

	if gotTraceparent == "" {
		t.Fatal("expected traceparent header on the outbound request")
	}
	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].SpanKind() != trace.SpanKindClient {
		t.Fatalf("expected SpanKindClient, got %v", spans[0].SpanKind())
	}
	if !strings.Contains(gotTraceparent, spans[0].SpanContext().TraceID().String()) {
		t.Fatalf("traceparent %q does not carry the client span trace", gotTraceparent)
	}
}

func TestNewProvider_None(t *testing.T) {
	cfg, shutdown, err := NewProvider(t.Context(), ProviderConfig{Exporter: ExporterNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg != nil {
		t.Fatal("expected nil config for the none exporter")
	}
	if err := shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewProvider_Stdout(t *testing.T) {
	var buf bytes.Buffer
	cfg, shutdown, err := NewProvider(t.Context(), ProviderConfig{Exporter: ExporterStdout, Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := cfg.tracer().Start(t.Context(), "probe")
	span.End()
	if err := shutdown(t.Context()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if !strings.Contains(buf.String(), `"probe"`) {
		t.Fatalf("stdout exporter output missing span: %s", buf.String())
	}
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	if _, _, err := NewProvider(t.Context(), ProviderConfig{Exporter: "jaeger"}); err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}
