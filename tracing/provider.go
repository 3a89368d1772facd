package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by [NewProvider].
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
)

// ProviderConfig selects how spans leave the process.
type ProviderConfig struct {
	Exporter    string
	ServiceName string
	// Writer receives stdout-exported spans. Defaults to os.Stdout.
	Writer io.Writer
}

// NewProvider builds a tracing Config for cfg. The returned shutdown func
// flushes pending spans and must be called on exit. With ExporterNone (or an
// empty Exporter) it returns a nil *Config, disabling tracing.
func NewProvider(_ context.Context, cfg ProviderConfig) (*Config, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Exporter {
	case "", ExporterNone:
		return nil, noop, nil
	case ExporterStdout:
	default:
		return nil, noop, fmt.Errorf("tracing: unknown exporter %q", cfg.Exporter)
	}

	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, noop, fmt.Errorf("tracing: stdout exporter: %w", err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "mealsquirrel"
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
	)

	return &Config{
		TracerProvider: tp,
		Propagators: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}, tp.Shutdown, nil
}
