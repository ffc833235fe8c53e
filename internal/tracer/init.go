// Package tracer owns the OTLP trace provider setup. The spans themselves
// come from the fiber otel middleware.
package tracer

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

type Config struct {
	Enabled     bool
	ServiceName string
	Environment string
	// Endpoint is an OTLP/HTTP collector address, e.g. a Jaeger instance on
	// its default 4318 port.
	Endpoint string
}

func noopShutdown(context.Context) error { return nil }

// Init installs the global tracer provider and returns its shutdown hook.
// With tracing disabled, or when the exporter cannot be built, the hook is a
// no-op and the service runs untraced.
func Init(cfg Config) func(context.Context) error {
	if !cfg.Enabled {
		log.Println("Tracing disabled (set OTEL_ENABLED=true to enable)")
		return noopShutdown
	}

	exporter, err := otlptracehttp.New(context.Background(),
		otlptracehttp.WithEndpoint(cfg.Endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		log.Printf("Warning: OTLP exporter unavailable, tracing disabled: %v", err)
		return noopShutdown
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.DeploymentEnvironmentKey.String(cfg.Environment),
		)),
	)
	otel.SetTracerProvider(provider)

	log.Printf("Tracing enabled for %s (exporting to %s)", cfg.ServiceName, cfg.Endpoint)
	return provider.Shutdown
}
