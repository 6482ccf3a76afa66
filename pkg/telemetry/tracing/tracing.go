// Package tracing initializes process-wide OpenTelemetry tracing and
// provides the memory-domain span helpers used by the API layer.
package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ExpressedAi/Sidechain/config"
	"github.com/ExpressedAi/Sidechain/pkg/logger"
)

// memoryTracerName identifies spans created around memory-engine operations.
const memoryTracerName = "sidechain.memory"

// Span attribute keys for the memory domain.
const (
	attrProfileID = "sidechain.profile_id"
	attrKernelID  = "sidechain.kernel_id"
	attrSelected  = "sidechain.selected"
	attrRewards   = "sidechain.rewards"
)

// ShutdownFunc shuts down tracing provider resources.
type ShutdownFunc func(ctx context.Context) error

// StartProfileSpan starts a span for a memory-engine operation, carrying the
// profile (and, when known, the kernel) identity. Handlers wrap engine calls
// with it so selection and feedback show up as first-class spans and the
// trace/span ids reach the context-aware logs.
func StartProfileSpan(ctx context.Context, op, profileID, kernelID string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(memoryTracerName).Start(ctx, op)
	span.SetAttributes(attribute.String(attrProfileID, profileID))
	if kernelID != "" {
		span.SetAttributes(attribute.String(attrKernelID, kernelID))
	}
	return ctx, span
}

// AnnotateSelection records the result size of a selection span.
func AnnotateSelection(span trace.Span, selected int) {
	span.SetAttributes(attribute.Int(attrSelected, selected))
}

// AnnotateFeedback records the reward count of a feedback span.
func AnnotateFeedback(span trace.Span, rewards int) {
	span.SetAttributes(attribute.Int(attrRewards, rewards))
}

// guardedExporter keeps collector outages out of request paths: export
// failures are logged and swallowed. Shutdown passes through the embedded
// exporter.
type guardedExporter struct {
	sdktrace.SpanExporter
	endpoint string
}

func (e *guardedExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	if err := e.SpanExporter.ExportSpans(ctx, spans); err != nil {
		logger.Warn("tracing export failed",
			"endpoint", e.endpoint,
			"span_count", len(spans),
			"error", err,
		)
	}
	return nil
}

// Init initializes process-wide OpenTelemetry tracing. When disabled, a noop
// provider is installed so the span helpers above stay callable everywhere.
func Init(ctx context.Context, cfg config.TracingConfig, serviceName, serviceVersion string) (ShutdownFunc, error) {
	installPropagator()

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	if kind := strings.ToLower(strings.TrimSpace(cfg.Exporter)); kind != "otlp" {
		return nil, fmt.Errorf("unsupported tracing exporter: %q", cfg.Exporter)
	}
	endpoint := hostOnly(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("tracing endpoint cannot be empty")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("tracing timeout must be > 0")
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithTimeout(cfg.Timeout),
		otlptracegrpc.WithInsecure(),
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, otlptracegrpc.WithHeaders(cfg.Headers))
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create tracing exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		_ = exporter.Shutdown(ctx)
		return nil, fmt.Errorf("create tracing resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(&guardedExporter{SpanExporter: exporter, endpoint: endpoint}),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg)),
	)
	otel.SetTracerProvider(tp)

	return func(shutdownCtx context.Context) error {
		if err := tp.ForceFlush(shutdownCtx); err != nil {
			_ = tp.Shutdown(shutdownCtx)
			return fmt.Errorf("force flush tracing provider: %w", err)
		}
		if err := tp.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown tracing provider: %w", err)
		}
		return nil
	}, nil
}

// installPropagator wires W3C trace-context and baggage propagation. It runs
// even when tracing is disabled so inbound headers still flow through.
func installPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// samplerFor maps the configured sampling strategy onto the SDK samplers.
func samplerFor(cfg config.TracingConfig) sdktrace.Sampler {
	switch strings.ToLower(strings.TrimSpace(cfg.Sampler)) {
	case "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))
	}
}

// hostOnly strips an optional scheme from the configured endpoint; the gRPC
// exporter wants host:port.
func hostOnly(endpoint string) string {
	raw := strings.TrimSpace(endpoint)
	if at := strings.Index(raw, "://"); at >= 0 {
		raw = raw[at+len("://"):]
	}
	return strings.TrimSuffix(raw, "/")
}
