package tracing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ExpressedAi/Sidechain/config"
)

func TestInit_DisabledInstallsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), config.TracingConfig{Enabled: false}, "sidechain", "test")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))

	// Span helpers must stay callable on the noop provider.
	ctx, span := StartProfileSpan(context.Background(), "memory.select", "p1", "k1")
	AnnotateSelection(span, 3)
	span.End()
	assert.NotNil(t, ctx)
}

func TestInit_RejectsBadConfig(t *testing.T) {
	cases := []config.TracingConfig{
		{Enabled: true, Exporter: "jaeger", Endpoint: "localhost:4317", Timeout: time.Second},
		{Enabled: true, Exporter: "otlp", Endpoint: "  ", Timeout: time.Second},
		{Enabled: true, Exporter: "otlp", Endpoint: "localhost:4317", Timeout: 0},
	}
	for i, cfg := range cases {
		_, err := Init(context.Background(), cfg, "sidechain", "test")
		assert.Error(t, err, "case %d", i)
	}
}

func TestHostOnly(t *testing.T) {
	cases := map[string]string{
		"localhost:4317":         "localhost:4317",
		"http://localhost:4317":  "localhost:4317",
		"https://otel.internal/": "otel.internal",
		"  grpc://host:1/  ":     "host:1",
	}

	for in, want := range cases {
		assert.Equal(t, want, hostOnly(in), in)
	}
}

func TestSamplerFor(t *testing.T) {
	on := samplerFor(config.TracingConfig{Sampler: "always_on"})
	off := samplerFor(config.TracingConfig{Sampler: "always_off"})
	ratio := samplerFor(config.TracingConfig{Sampler: "ratio", SampleRate: 0.5})

	assert.Equal(t, sdktrace.AlwaysSample().Description(), on.Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), off.Description())
	assert.Contains(t, ratio.Description(), "ParentBased")
}
