// Package observability provides structured logging, metrics, and tracing
// for route matching and event dispatch.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds request context to a logger.
// Returns a new logger with method and path fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "GET", "/user/42")
//	enriched.Info("matching") // includes method, path
func EnrichLogger(logger *slog.Logger, method, path string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("method", method),
		slog.String("path", path),
	)
}

// LogRouteAdded logs a route registration.
func LogRouteAdded(logger *slog.Logger, name string, priority int) {
	if logger == nil {
		return
	}
	logger.Debug("route added",
		slog.String("route", name),
		slog.Int("priority", priority),
	)
}

// LogRouteRemoved logs a route removal.
func LogRouteRemoved(logger *slog.Logger, name string) {
	if logger == nil {
		return
	}
	logger.Debug("route removed",
		slog.String("route", name),
	)
}

// LogRouteMatch logs a successful match.
func LogRouteMatch(logger *slog.Logger, path, route string, tried int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("route matched",
		slog.String("path", path),
		slog.String("route", route),
		slog.Int("routes_tried", tried),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRouteMiss logs a request that no route matched.
func LogRouteMiss(logger *slog.Logger, path string, tried int) {
	if logger == nil {
		return
	}
	logger.Info("no route matched",
		slog.String("path", path),
		slog.Int("routes_tried", tried),
	)
}

// LogDispatch logs completion of an event dispatch.
func LogDispatch(logger *slog.Logger, eventType, eventID string, handlers int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("event_type", eventType),
		slog.String("event_id", eventID),
		slog.Int("handlers", handlers),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPropagationStopped logs a handler ending dispatch early.
func LogPropagationStopped(logger *slog.Logger, eventType, handler string) {
	if logger == nil {
		return
	}
	logger.Debug("event propagation stopped",
		slog.String("event_type", eventType),
		slog.String("handler", handler),
	)
}

// LogHandlerError logs a handler failure.
func LogHandlerError(logger *slog.Logger, eventType, handler string, err error) {
	if logger == nil {
		return
	}
	logger.Error("event handler failed",
		slog.String("event_type", eventType),
		slog.String("handler", handler),
		slog.String("error", err.Error()),
	)
}

// LogHandlerRetry logs a retry of a transiently failing handler.
func LogHandlerRetry(logger *slog.Logger, handler string, attempt int, err error, backoff time.Duration) {
	if logger == nil {
		return
	}
	logger.Warn("event handler retrying",
		slog.String("handler", handler),
		slog.Int("attempt", attempt),
		slog.String("error", err.Error()),
		slog.Duration("backoff", backoff),
	)
}

// LogDeadLetterError logs a failure to enqueue into the dead letter queue (non-fatal).
func LogDeadLetterError(logger *slog.Logger, eventID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("dead letter enqueue failed",
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
