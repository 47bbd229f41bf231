package routestack

import (
	"log/slog"
	"maps"

	"github.com/randalmurphal/routestack/pkg/routestack/observability"
)

// Option configures a Stack.
type Option func(*Stack)

// WithLogger sets the logger for route changes and match results.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stack) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(s *Stack) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithSpanManager sets the span manager for match tracing.
func WithSpanManager(sm observability.SpanManager) Option {
	return func(s *Stack) {
		if sm != nil {
			s.spans = sm
		}
	}
}

// WithDispatcher publishes a MatchedEventType event for every match.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Stack) {
		s.dispatcher = d
	}
}

// WithDefaultParams sets the stack-wide default parameters.
func WithDefaultParams(params map[string]string) Option {
	return func(s *Stack) {
		s.defaults = maps.Clone(params)
	}
}

// AddOption configures a single AddRoute call.
type AddOption func(*addOptions)

type addOptions struct {
	priority *int
}

// WithPriority sets the route priority. Higher priorities are tried first.
func WithPriority(p int) AddOption {
	return func(o *addOptions) {
		o.priority = &p
	}
}
