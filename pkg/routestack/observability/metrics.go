package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records route matching and event dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordMatch records a match attempt. route is empty on a miss.
	RecordMatch(ctx context.Context, route string, tried int, duration time.Duration)

	// RecordDispatch records an event dispatch to its handlers.
	RecordDispatch(ctx context.Context, eventType string, handlers int, duration time.Duration, failed int)

	// RecordRouteCount records the current size of a route table.
	RecordRouteCount(ctx context.Context, count int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	matches         metric.Int64Counter
	misses          metric.Int64Counter
	routesTried     metric.Int64Histogram
	matchLatency    metric.Float64Histogram
	dispatches      metric.Int64Counter
	invocations     metric.Int64Counter
	handlerErrors   metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	routeCount      metric.Int64Gauge
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("routestack")

	matches, err := meter.Int64Counter("routestack.route.matches",
		metric.WithDescription("Number of requests matched by a route"),
	)
	if err != nil {
		return nil, err
	}

	misses, err := meter.Int64Counter("routestack.route.misses",
		metric.WithDescription("Number of requests no route matched"),
	)
	if err != nil {
		return nil, err
	}

	routesTried, err := meter.Int64Histogram("routestack.route.tried",
		metric.WithDescription("Routes evaluated per match attempt"),
	)
	if err != nil {
		return nil, err
	}

	matchLatency, err := meter.Float64Histogram("routestack.route.latency_ms",
		metric.WithDescription("Match latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("routestack.event.dispatches",
		metric.WithDescription("Number of event dispatches"),
	)
	if err != nil {
		return nil, err
	}

	invocations, err := meter.Int64Counter("routestack.event.handler_invocations",
		metric.WithDescription("Number of handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	handlerErrors, err := meter.Int64Counter("routestack.event.handler_errors",
		metric.WithDescription("Number of failed handler invocations"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("routestack.event.latency_ms",
		metric.WithDescription("Dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	routeCount, err := meter.Int64Gauge("routestack.route.count",
		metric.WithDescription("Routes registered in the stack"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		matches:         matches,
		misses:          misses,
		routesTried:     routesTried,
		matchLatency:    matchLatency,
		dispatches:      dispatches,
		invocations:     invocations,
		handlerErrors:   handlerErrors,
		dispatchLatency: dispatchLatency,
		routeCount:      routeCount,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordMatch records a match attempt.
func (m *otelMetrics) RecordMatch(ctx context.Context, route string, tried int, duration time.Duration) {
	matched := route != ""
	attrs := metric.WithAttributes(attribute.Bool("matched", matched))

	if matched {
		m.matches.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
	} else {
		m.misses.Add(ctx, 1)
	}
	m.routesTried.Record(ctx, int64(tried), attrs)
	m.matchLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordDispatch records an event dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, eventType string, handlers int, duration time.Duration, failed int) {
	attrs := metric.WithAttributes(attribute.String("event_type", eventType))

	m.dispatches.Add(ctx, 1, attrs)
	m.invocations.Add(ctx, int64(handlers), attrs)
	m.dispatchLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if failed > 0 {
		m.handlerErrors.Add(ctx, int64(failed), attrs)
	}
}

// RecordRouteCount records the route table size.
func (m *otelMetrics) RecordRouteCount(ctx context.Context, count int) {
	m.routeCount.Record(ctx, int64(count))
}
