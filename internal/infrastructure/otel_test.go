package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/CyprienPascal/PIP/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "stdout"

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.PrometheusHTTP)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, providers.Shutdown(ctx))
}

func TestOTelDisabled(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = false
	cfg.EnableTracing = false

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)
	assert.NotNil(t, providers.Tracer, "a global tracer is always available")
	assert.NotNil(t, providers.Meter, "a global meter is always available")
	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestOTelUnsupportedExporters(t *testing.T) {
	tests := []struct {
		name string
		cfg  *OTelConfig
	}{
		{
			name: "trace exporter",
			cfg:  &OTelConfig{ServiceName: "t", EnableTracing: true, TraceExporter: "jaeger", SampleRatio: 1},
		},
		{
			name: "metric exporter",
			cfg:  &OTelConfig{ServiceName: "t", EnableMetrics: true, MetricExporter: "statsd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InitializeOTel(tt.cfg, quietLogger())
			assert.Error(t, err)
		})
	}
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{
		ServiceName:    "pip-test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "prometheus",
		SampleRatio:    0.5,
	})

	assert.Equal(t, "pip-test", cfg.ServiceName)
	assert.Equal(t, "test", cfg.Environment)
	assert.False(t, cfg.EnableTracing)
	assert.True(t, cfg.EnableMetrics)
	assert.Equal(t, 0.5, cfg.SampleRatio)
	assert.NotEmpty(t, cfg.ServiceVersion)
}

func TestTraceCorrelation(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "stdout"
	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := otel.Tracer("test").Start(context.Background(), "load-source")
	defer span.End()

	traceID := TraceIDFromContext(ctx)
	assert.NotEmpty(t, traceID)
	assert.Equal(t, span.SpanContext().TraceID().String(), traceID)

	ctx = WithTraceID(ctx, traceID)
	assert.Equal(t, traceID, GetTraceID(ctx))
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestSpanHelpers(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "stdout"
	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx, span := StartSpan(context.Background(), "engine.join")
	defer span.End()

	assert.True(t, span.IsRecording())
	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "joined")
		RecordError(ctx, assert.AnError)
	})

	// No span in context: helpers are no-ops
	assert.NotPanics(t, func() {
		AddSpanEvent(context.Background(), "ignored")
		RecordError(context.Background(), assert.AnError)
	})
}

func TestEngineMetrics(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewEngineMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		metrics.RecordLoad(ctx, "elections", true)
		metrics.RecordLoad(ctx, "poverty", false)
		metrics.RecordCache(ctx, "elections", true)
		metrics.RecordCache(ctx, "elections", false)
		metrics.RecordJoin(ctx, "poverty", 96)
		metrics.RecordDiagnostic(ctx, "KEY_FORMAT_ERROR")
		metrics.RecordView(ctx, "poverty", 20*time.Millisecond)
	})
}

func TestEngineMetricsNilSafe(t *testing.T) {
	var metrics *EngineMetrics
	ctx := context.Background()

	assert.NotPanics(t, func() {
		metrics.RecordLoad(ctx, "elections", true)
		metrics.RecordCache(ctx, "elections", true)
		metrics.RecordJoin(ctx, "poverty", 1)
		metrics.RecordDiagnostic(ctx, "EMPTY_JOIN_WARNING")
		metrics.RecordView(ctx, "trend", time.Second)
	})

	noop, err := NewEngineMetrics(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() { noop.RecordLoad(ctx, "age", true) })
}

func TestHTTPMetrics(t *testing.T) {
	metrics, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, metrics.RequestsTotal)
	assert.NotNil(t, metrics.RequestDuration)
	assert.NotNil(t, metrics.ActiveRequests)
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig(), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := NewEngineMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordLoad(context.Background(), "elections", true)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "engine_source_loads_total")
}

func TestCollectRuntimeStats(t *testing.T) {
	stats := CollectRuntimeStats(time.Now().Add(-time.Minute))

	assert.Greater(t, stats.Goroutines, 0)
	assert.Greater(t, stats.SysMB, 0.0)
	assert.GreaterOrEqual(t, stats.UptimeSecond, 59.0)
	assert.NotEmpty(t, stats.GoVersion)
}
