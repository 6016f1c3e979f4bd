package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// HTTPMetrics instruments the HTTP surface
type HTTPMetrics struct {
	RequestsTotal   metric.Int64Counter
	RequestDuration metric.Float64Histogram
	ActiveRequests  metric.Int64UpDownCounter
}

// NewHTTPMetrics creates the HTTP instruments. A nil meter falls back to a no-op meter.
func NewHTTPMetrics(meter metric.Meter) (*HTTPMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	requests, err := meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	duration, err := meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	active, err := meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, fmt.Errorf("failed to create http_active_requests counter: %w", err)
	}

	return &HTTPMetrics{
		RequestsTotal:   requests,
		RequestDuration: duration,
		ActiveRequests:  active,
	}, nil
}

// EngineMetrics instruments source loading, joins and view computation.
// All record methods are safe on a nil receiver.
type EngineMetrics struct {
	sourceLoads  metric.Int64Counter
	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	joinedRows   metric.Int64Counter
	diagnostics  metric.Int64Counter
	viewDuration metric.Float64Histogram
}

// NewEngineMetrics creates the engine instruments. A nil meter falls back to a no-op meter.
func NewEngineMetrics(meter metric.Meter) (*EngineMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	m := &EngineMetrics{}
	var err error

	if m.sourceLoads, err = meter.Int64Counter("engine_source_loads_total",
		metric.WithDescription("Source loads by source and status")); err != nil {
		return nil, fmt.Errorf("failed to create engine_source_loads_total counter: %w", err)
	}
	if m.cacheHits, err = meter.Int64Counter("engine_cache_hits_total",
		metric.WithDescription("Dataset cache hits")); err != nil {
		return nil, fmt.Errorf("failed to create engine_cache_hits_total counter: %w", err)
	}
	if m.cacheMisses, err = meter.Int64Counter("engine_cache_misses_total",
		metric.WithDescription("Dataset cache misses")); err != nil {
		return nil, fmt.Errorf("failed to create engine_cache_misses_total counter: %w", err)
	}
	if m.joinedRows, err = meter.Int64Counter("engine_joined_rows_total",
		metric.WithDescription("Rows produced by department joins")); err != nil {
		return nil, fmt.Errorf("failed to create engine_joined_rows_total counter: %w", err)
	}
	if m.diagnostics, err = meter.Int64Counter("engine_diagnostics_total",
		metric.WithDescription("Diagnostics emitted by kind")); err != nil {
		return nil, fmt.Errorf("failed to create engine_diagnostics_total counter: %w", err)
	}
	if m.viewDuration, err = meter.Float64Histogram("engine_view_duration_seconds",
		metric.WithDescription("Time spent computing an analytical view"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("failed to create engine_view_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordLoad counts one source load
func (m *EngineMetrics) RecordLoad(ctx context.Context, source string, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.sourceLoads.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("status", status),
	))
}

// RecordCache counts a cache lookup
func (m *EngineMetrics) RecordCache(ctx context.Context, source string, hit bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	if hit {
		m.cacheHits.Add(ctx, 1, attrs)
		return
	}
	m.cacheMisses.Add(ctx, 1, attrs)
}

// RecordJoin counts the rows matched by a join
func (m *EngineMetrics) RecordJoin(ctx context.Context, series string, rows int) {
	if m == nil {
		return
	}
	m.joinedRows.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("series", series)))
}

// RecordDiagnostic counts one diagnostic
func (m *EngineMetrics) RecordDiagnostic(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	m.diagnostics.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordView records the duration of a view computation
func (m *EngineMetrics) RecordView(ctx context.Context, view string, d time.Duration) {
	if m == nil {
		return
	}
	m.viewDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("view", view)))
}
