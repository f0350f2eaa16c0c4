package pubsub

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TracerName is the instrumentation name used for every loginflow span.
const TracerName = "loginflow"

// TracingConfig holds configuration for OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool
	ServiceName string `validate:"required_if=Enabled true"`
	ZipkinURL   string `validate:"required_if=Enabled true,omitempty,url"`
}

// DefaultTracingConfig returns tracing disabled with local Zipkin defaults.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		Enabled:     false,
		ServiceName: "loginflow",
		ZipkinURL:   "http://localhost:9411/api/v2/spans",
	}
}

// SetupOTel initializes OpenTelemetry with a Zipkin exporter. When tracing
// is disabled it returns a no-op tracer. The returned cleanup flushes and
// shuts the provider down.
func SetupOTel(ctx context.Context, config TracingConfig) (trace.Tracer, func(), error) {
	if !config.Enabled {
		return noop.NewTracerProvider().Tracer(TracerName), func() {}, nil
	}

	exporter, err := zipkin.New(config.ZipkinURL)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Warn("Failed to shut down tracer provider", "error", err)
		}
	}

	return tp.Tracer(TracerName), cleanup, nil
}
