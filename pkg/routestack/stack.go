package routestack

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/randalmurphal/routestack/pkg/routestack/config"
	"github.com/randalmurphal/routestack/pkg/routestack/event"
	"github.com/randalmurphal/routestack/pkg/routestack/observability"
	"github.com/randalmurphal/routestack/pkg/routestack/prioritylist"
)

// MatchedEventType is the event type published for each successful match.
const MatchedEventType = "route.matched"

// MatchedPayload is the payload of a MatchedEventType event.
type MatchedPayload struct {
	Route  string            `json:"route"`
	Method string            `json:"method"`
	Path   string            `json:"path"`
	Params map[string]string `json:"params,omitempty"`
}

// Dispatcher receives match events. *event.Router implements it.
type Dispatcher interface {
	Route(ctx context.Context, evt event.Event) ([]event.Event, error)
}

// Stack is a priority-ordered table of named routes.
type Stack struct {
	routes *prioritylist.Synchronized[Route]

	mu       sync.RWMutex
	defaults map[string]string

	logger     *slog.Logger
	metrics    observability.MetricsRecorder
	spans      observability.SpanManager
	dispatcher Dispatcher
}

// New creates an empty route stack.
func New(opts ...Option) *Stack {
	s := &Stack{
		routes:   prioritylist.NewSynchronized[Route](),
		defaults: map[string]string{},
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaults == nil {
		s.defaults = map[string]string{}
	}
	return s
}

// AddRoute adds route under name, replacing any route with that name. The
// priority comes from WithPriority, then the route's Prioritizer, else 0.
// AddRoute panics if name is empty.
func (s *Stack) AddRoute(name string, route Route, opts ...AddOption) {
	p := resolvePriority(route, opts)
	s.routes.Insert(name, route, p)

	observability.LogRouteAdded(s.logger, name, p)
	s.metrics.RecordRouteCount(context.Background(), s.routes.Len())
}

func resolvePriority(route Route, opts []AddOption) int {
	var o addOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.priority != nil {
		return *o.priority
	}
	if pr, ok := route.(Prioritizer); ok {
		return pr.Priority()
	}
	return 0
}

// AddRoutes builds routes from specs and adds them in order. Either all
// specs are added or, on error, none are.
func (s *Stack) AddRoutes(specs []config.RouteSpec) error {
	built, err := buildRoutes(specs)
	if err != nil {
		return err
	}

	s.routes.Update(func(l *prioritylist.List[Route]) {
		for _, b := range built {
			l.Insert(b.name, b.route, b.priority)
		}
	})
	s.logAdded(built)
	return nil
}

// SetRoutes replaces every route with those built from specs. On error the
// stack is left unchanged.
func (s *Stack) SetRoutes(specs []config.RouteSpec) error {
	built, err := buildRoutes(specs)
	if err != nil {
		return err
	}

	s.routes.Update(func(l *prioritylist.List[Route]) {
		l.Clear()
		for _, b := range built {
			l.Insert(b.name, b.route, b.priority)
		}
	})
	s.logAdded(built)
	return nil
}

func (s *Stack) logAdded(built []builtRoute) {
	for _, b := range built {
		observability.LogRouteAdded(s.logger, b.name, b.priority)
	}
	s.metrics.RecordRouteCount(context.Background(), s.routes.Len())
}

type builtRoute struct {
	name     string
	route    Route
	priority int
}

func buildRoutes(specs []config.RouteSpec) ([]builtRoute, error) {
	built := make([]builtRoute, 0, len(specs))
	for _, spec := range specs {
		route, err := FromSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", spec.Name, err)
		}
		var opts []AddOption
		if spec.Priority != nil {
			opts = append(opts, WithPriority(*spec.Priority))
		}
		built = append(built, builtRoute{
			name:     spec.Name,
			route:    route,
			priority: resolvePriority(route, opts),
		})
	}
	return built, nil
}

// RemoveRoute removes the named route. Removing an unknown name is a no-op.
func (s *Stack) RemoveRoute(name string) {
	if !s.routes.Has(name) {
		return
	}
	s.routes.Remove(name)

	observability.LogRouteRemoved(s.logger, name)
	s.metrics.RecordRouteCount(context.Background(), s.routes.Len())
}

// Route returns the named route.
func (s *Stack) Route(name string) (Route, bool) {
	return s.routes.Get(name)
}

// HasRoute reports whether a route named name exists.
func (s *Stack) HasRoute(name string) bool {
	return s.routes.Has(name)
}

// Routes iterates over the routes in match order.
func (s *Stack) Routes() iter.Seq2[string, Route] {
	return s.routes.All()
}

// Len returns the number of routes.
func (s *Stack) Len() int {
	return s.routes.Len()
}

// SetDefaultParams replaces the stack-wide default parameters.
func (s *Stack) SetDefaultParams(params map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = maps.Clone(params)
	if s.defaults == nil {
		s.defaults = map[string]string{}
	}
}

// SetDefaultParam sets one stack-wide default parameter.
func (s *Stack) SetDefaultParam(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults[name] = value
}

// DefaultParams returns a copy of the stack-wide default parameters.
func (s *Stack) DefaultParams() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.defaults)
}

// Match returns the first route, in priority order, that matches req. The
// match params are the stack defaults overlaid by the route's params.
func (s *Stack) Match(ctx context.Context, req *http.Request) (*Match, bool) {
	ctx, span := s.spans.StartMatchSpan(ctx, req.Method, req.URL.Path)
	done := observability.TimedOperation()
	start := time.Now()

	tried := 0
	for name, route := range s.routes.All() {
		tried++
		m, ok := route.Match(req, 0)
		if !ok {
			continue
		}

		m.RouteName = name
		m.Params = s.withDefaults(m.Params)

		s.metrics.RecordMatch(ctx, name, tried, time.Since(start))
		observability.LogRouteMatch(s.logger, req.URL.Path, name, tried, done())
		s.spans.EndSpanWithError(span, nil)

		s.publish(ctx, req, m)
		return m, true
	}

	s.metrics.RecordMatch(ctx, "", tried, time.Since(start))
	observability.LogRouteMiss(s.logger, req.URL.Path, tried)
	s.spans.EndSpanWithError(span, nil)
	return nil, false
}

func (s *Stack) withDefaults(params map[string]string) map[string]string {
	s.mu.RLock()
	merged := maps.Clone(s.defaults)
	s.mu.RUnlock()

	maps.Copy(merged, params)
	return merged
}

func (s *Stack) publish(ctx context.Context, req *http.Request, m *Match) {
	if s.dispatcher == nil {
		return
	}
	evt := event.New(MatchedEventType, "routestack", MatchedPayload{
		Route:  m.RouteName,
		Method: req.Method,
		Path:   req.URL.Path,
		Params: maps.Clone(m.Params),
	})
	if _, err := s.dispatcher.Route(ctx, evt); err != nil && s.logger != nil {
		s.logger.Warn("match event dispatch failed",
			slog.String("route", m.RouteName),
			slog.String("error", err.Error()),
		)
	}
}

// Assemble builds the path for the named route. params are overlaid on the
// stack defaults.
func (s *Stack) Assemble(name string, params map[string]string) (string, error) {
	route, ok := s.routes.Get(name)
	if !ok {
		return "", &AssembleError{Route: name, Err: ErrRouteNotFound}
	}

	path, err := route.Assemble(s.withDefaults(params))
	if err != nil {
		var ae *AssembleError
		if errors.As(err, &ae) && ae.Route == "" {
			ae.Route = name
		}
		return "", err
	}
	return path, nil
}
