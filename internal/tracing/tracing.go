// Package tracing wires distributed traces for the sync pipeline: the sync
// engine opens a span for each push/pull cycle, its push and pull halves,
// and a full sync, so a slow device can be diagnosed without reproducing it
// locally. Conflict resolution and journal appends get no span of their own.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// InitTracer builds a TracerProvider that exports spans to a Jaeger
// collector at jaegerEndpoint and registers it as the global provider. The
// provider is returned even if the endpoint is unreachable — connection
// failures surface later, as export errors, not here.
func InitTracer(serviceName, jaegerEndpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(jaegerEndpoint)))
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp, nil
}

// StartSpan starts a span named name under ctx using the global tracer,
// attaching attrs.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("clinisync")
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
