package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/routestack/pkg/routestack/config"
	rserrors "github.com/randalmurphal/routestack/pkg/routestack/errors"
	"github.com/randalmurphal/routestack/pkg/routestack/observability"
	"github.com/randalmurphal/routestack/pkg/routestack/prioritylist"
)

// RouterConfig configures router behavior.
type RouterConfig struct {
	// MaxDepth bounds nested Route calls made from within handlers.
	// Default: 10
	MaxDepth int

	// DLQ receives handler failures (optional).
	DLQ DeadLetterQueue

	// RetryConfig is the default per-handler retry policy.
	// Default: errors.DefaultRetry
	RetryConfig rserrors.RetryConfig

	// Logger for dispatch logging (optional).
	Logger *slog.Logger

	// Metrics records dispatch metrics. Default: observability.NoopMetrics.
	Metrics observability.MetricsRecorder

	// Spans creates dispatch spans. Default: observability.NoopSpanManager.
	Spans observability.SpanManager

	// OnError is called for each handler failure after retries.
	OnError func(evt Event, handler string, err error)
}

// DefaultRouterConfig provides reasonable defaults.
var DefaultRouterConfig = RouterConfig{
	MaxDepth:    10,
	RetryConfig: rserrors.DefaultRetry,
}

// handlerEntry stores a registered handler with its configuration.
type handlerEntry struct {
	name     string
	handler  Handler // with middleware applied
	types    []string
	priority int
	retry    rserrors.RetryConfig
	timeout  time.Duration
}

func (e *handlerEntry) accepts(eventType string) bool {
	return len(e.types) == 0 || slices.Contains(e.types, eventType)
}

// Router dispatches events to registered handlers in priority order.
type Router struct {
	config RouterConfig

	handlers *prioritylist.Synchronized[*handlerEntry]

	mu         sync.RWMutex
	middleware []MiddlewareFunc

	seq atomic.Uint64
}

// NewRouter creates a new event router.
func NewRouter(config RouterConfig) *Router {
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultRouterConfig.MaxDepth
	}
	if config.RetryConfig.MaxAttempts <= 0 {
		config.RetryConfig = DefaultRouterConfig.RetryConfig
	}
	if config.Metrics == nil {
		config.Metrics = observability.NoopMetrics{}
	}
	if config.Spans == nil {
		config.Spans = observability.NoopSpanManager{}
	}

	return &Router{
		config:   config,
		handlers: prioritylist.NewSynchronized[*handlerEntry](prioritylist.WithFIFO()),
	}
}

// HandlerOption configures handler registration.
type HandlerOption func(*handlerEntry)

// WithHandlerName names the handler. Registering a second handler under the
// same name replaces the first. Default: the handler's type plus a sequence number.
func WithHandlerName(name string) HandlerOption {
	return func(e *handlerEntry) {
		e.name = name
	}
}

// WithHandlerPriority sets the handler priority. Higher runs first.
func WithHandlerPriority(p int) HandlerOption {
	return func(e *handlerEntry) {
		e.priority = p
	}
}

// WithHandlerEvents overrides the event types reported by Handler.Handles.
// Called with no types it leaves the handler's own subscription in place.
func WithHandlerEvents(types ...string) HandlerOption {
	return func(e *handlerEntry) {
		if len(types) > 0 {
			e.types = types
		}
	}
}

// WithHandlerRetry sets a custom retry policy.
func WithHandlerRetry(cfg rserrors.RetryConfig) HandlerOption {
	return func(e *handlerEntry) {
		e.retry = cfg
	}
}

// WithHandlerTimeout bounds each handler invocation.
func WithHandlerTimeout(d time.Duration) HandlerOption {
	return func(e *handlerEntry) {
		e.timeout = d
	}
}

// WithListenerSpec applies a listener entry from configuration: its name,
// priority, events, timeout, and retry overrides. Unset fields keep the
// router defaults.
func WithListenerSpec(spec config.ListenerSpec) HandlerOption {
	return func(e *handlerEntry) {
		if spec.Name != "" {
			e.name = spec.Name
		}
		if spec.Priority != nil {
			e.priority = *spec.Priority
		}
		WithHandlerEvents(spec.Events...)(e)
		if spec.Timeout > 0 {
			e.timeout = spec.Timeout
		}
		if spec.Retry != nil {
			e.retry = e.retry.With(retryOptions(spec.Retry)...)
		}
	}
}

func retryOptions(spec *config.RetrySpec) []rserrors.RetryOption {
	var opts []rserrors.RetryOption
	if spec.MaxAttempts != nil {
		opts = append(opts, rserrors.WithMaxAttempts(*spec.MaxAttempts))
	}
	if spec.InitialBackoff != nil {
		opts = append(opts, rserrors.WithInitialBackoff(*spec.InitialBackoff))
	}
	if spec.MaxBackoff != nil {
		opts = append(opts, rserrors.WithMaxBackoff(*spec.MaxBackoff))
	}
	if spec.BackoffFactor != nil {
		opts = append(opts, rserrors.WithBackoffFactor(*spec.BackoffFactor))
	}
	if spec.Jitter != nil {
		opts = append(opts, rserrors.WithJitter(*spec.Jitter))
	}
	return opts
}

// RetryPolicy returns the retry policy of the named handler.
func (r *Router) RetryPolicy(name string) (rserrors.RetryConfig, bool) {
	entry, ok := r.handlers.Get(name)
	if !ok {
		return rserrors.RetryConfig{}, false
	}
	return entry.retry, true
}

// Register adds a handler and returns the name it was registered under.
// Middleware added with Use before this call wraps the handler.
func (r *Router) Register(handler Handler, opts ...HandlerOption) string {
	entry := &handlerEntry{
		types: handler.Handles(),
		retry: r.config.RetryConfig,
	}
	for _, opt := range opts {
		opt(entry)
	}
	if entry.name == "" {
		entry.name = fmt.Sprintf("%T#%d", handler, r.seq.Add(1))
	}

	r.mu.RLock()
	entry.handler = ChainMiddleware(handler, r.middleware...)
	r.mu.RUnlock()

	r.handlers.Insert(entry.name, entry, entry.priority)
	return entry.name
}

// Unregister removes a handler by name.
func (r *Router) Unregister(name string) {
	r.handlers.Remove(name)
}

// Use adds middleware that applies to subsequently registered handlers.
func (r *Router) Use(middleware MiddlewareFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middleware = append(r.middleware, middleware)
}

// Handlers returns the names of the handlers that receive eventType, in
// dispatch order.
func (r *Router) Handlers(eventType string) []string {
	var names []string
	for name, entry := range r.handlers.All() {
		if entry.accepts(eventType) {
			names = append(names, name)
		}
	}
	return names
}

// SetPriority changes a handler's priority without changing its position
// among handlers of equal priority.
func (r *Router) SetPriority(name string, priority int) error {
	if err := r.handlers.SetPriority(name, priority); err != nil {
		return fmt.Errorf("%w: %s", ErrHandlerNotFound, name)
	}
	return nil
}

// ApplyPriorities sets handler priorities from listener specs. A spec with
// no priority resets the handler to 0. Specs naming unknown handlers are
// reported together after the known ones are applied.
func (r *Router) ApplyPriorities(specs []config.ListenerSpec) error {
	var errs []error
	for _, spec := range specs {
		p := 0
		if spec.Priority != nil {
			p = *spec.Priority
		}
		if err := r.SetPriority(spec.Name, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Route dispatches an event to the matching handlers in priority order and
// returns the events they derived. Handler failures are logged and sent to
// the DLQ; they do not fail the dispatch.
func (r *Router) Route(ctx context.Context, evt Event) ([]Event, error) {
	depth := getEventDepth(ctx)
	if depth >= r.config.MaxDepth {
		return nil, &EventError{
			Event:   evt,
			Message: fmt.Sprintf("max event depth exceeded (%d)", r.config.MaxDepth),
		}
	}

	var entries []*handlerEntry
	for _, entry := range r.handlers.All() {
		if entry.accepts(evt.Type()) {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ctx, span := r.config.Spans.StartDispatchSpan(ctx, evt.Type(), evt.ID())
	ctx = withEventDepth(ctx, depth+1)
	done := observability.TimedOperation()
	start := time.Now()

	var derived []Event
	var invoked, failed int
	for _, entry := range entries {
		invoked++
		out, attempts, err := r.executeHandler(ctx, evt, entry)
		if errors.Is(err, ErrStopPropagation) {
			derived = append(derived, out...)
			observability.LogPropagationStopped(r.config.Logger, evt.Type(), entry.name)
			break
		}
		if err != nil {
			failed++
			r.handleFailure(ctx, evt, entry.name, attempts, err)
			continue
		}
		derived = append(derived, out...)
	}

	r.config.Metrics.RecordDispatch(ctx, evt.Type(), invoked, time.Since(start), failed)
	observability.LogDispatch(r.config.Logger, evt.Type(), evt.ID(), invoked, done())

	var spanErr error
	if failed > 0 {
		spanErr = fmt.Errorf("%d of %d handlers failed", failed, invoked)
	}
	r.config.Spans.EndSpanWithError(span, spanErr)

	return derived, nil
}

// Redrive re-runs up to limit queued failures against the handler that
// produced them. Failures that now succeed are acknowledged; the rest stay
// queued. Failures whose handler is no longer registered are skipped.
// It returns the number of acknowledged failures.
func (r *Router) Redrive(ctx context.Context, limit int) (int, error) {
	if r.config.DLQ == nil {
		return 0, nil
	}

	queued, err := r.config.DLQ.Dequeue(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("dequeue: %w", err)
	}

	recovered := 0
	for _, failed := range queued {
		entry, ok := r.handlers.Get(failed.Handler)
		if !ok {
			continue
		}

		evt := NewAny(failed.EventType, failed.EventSource, json.RawMessage(failed.EventData),
			WithEventID(failed.EventID),
			WithCorrelationID(failed.CorrelationID))

		_, attempts, err := r.executeHandler(withEventDepth(ctx, 1), evt, entry)
		if err != nil && !errors.Is(err, ErrStopPropagation) {
			failed.Attempts += attempts
			failed.ErrorMessage = err.Error()
			failed.FailedAt = time.Now().UTC()
			if qErr := r.config.DLQ.Enqueue(ctx, failed); qErr != nil {
				observability.LogDeadLetterError(r.config.Logger, failed.EventID, qErr)
			}
			continue
		}

		if err := r.config.DLQ.Acknowledge(ctx, failed.EventID, failed.Handler); err != nil {
			return recovered, fmt.Errorf("acknowledge %s: %w", failed.EventID, err)
		}
		recovered++
	}
	return recovered, nil
}

func (r *Router) handleFailure(ctx context.Context, evt Event, handler string, attempts int, err error) {
	observability.LogHandlerError(r.config.Logger, evt.Type(), handler, err)

	if r.config.DLQ != nil {
		failed := NewFailedEvent(evt, err, handler, attempts)
		if qErr := r.config.DLQ.Enqueue(ctx, failed); qErr != nil {
			observability.LogDeadLetterError(r.config.Logger, evt.ID(), qErr)
		}
	}

	if r.config.OnError != nil {
		r.config.OnError(evt, handler, err)
	}
}

// executeHandler runs a single handler with retry and timeout. It returns
// the derived events, the number of attempts made, and the final error.
func (r *Router) executeHandler(ctx context.Context, evt Event, entry *handlerEntry) ([]Event, int, error) {
	parent := ctx
	if entry.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, entry.timeout)
		defer cancel()
	}

	retry := entry.retry
	if retry.OnRetry == nil && r.config.Logger != nil {
		retry = retry.With(rserrors.WithOnRetry(func(attempt int, err error, backoff time.Duration) {
			observability.LogHandlerRetry(r.config.Logger, entry.name, attempt, err, backoff)
		}))
	}

	// Events derived before a stop are kept; the retry result drops them.
	var stopped []Event
	result := rserrors.Retry(ctx, retry, func(ctx context.Context) ([]Event, error) {
		out, err := entry.handler.Handle(ctx, evt)
		if errors.Is(err, ErrStopPropagation) {
			stopped = out
			return nil, rserrors.Permanent(err, "stop propagation")
		}
		return out, err
	})

	if result.Err != nil {
		if errors.Is(result.Err, ErrStopPropagation) {
			return stopped, result.Attempts, ErrStopPropagation
		}
		if entry.timeout > 0 && parent.Err() == nil && errors.Is(result.Err, context.DeadlineExceeded) {
			return nil, result.Attempts, &rserrors.TimeoutError{
				Handler: entry.name,
				After:   entry.timeout,
				Err:     result.Err,
			}
		}
		return nil, result.Attempts, result.Err
	}
	return result.Value, result.Attempts, nil
}

type contextKey string

const eventDepthKey contextKey = "event_depth"

func getEventDepth(ctx context.Context) int {
	if v, ok := ctx.Value(eventDepthKey).(int); ok {
		return v
	}
	return 0
}

func withEventDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, eventDepthKey, depth)
}

// RecoveryMiddleware turns handler panics into errors.
func RecoveryMiddleware() MiddlewareFunc {
	return func(next Handler) Handler {
		return middlewareHandler{next: next, fn: func(ctx context.Context, evt Event) (result []Event, err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = &EventError{
						Event:   evt,
						Message: fmt.Sprintf("handler panic: %v", rec),
					}
				}
			}()
			return next.Handle(ctx, evt)
		}}
	}
}

// LoggingMiddleware logs each handler invocation at debug level.
func LoggingMiddleware(logger *slog.Logger) MiddlewareFunc {
	return func(next Handler) Handler {
		return middlewareHandler{next: next, fn: func(ctx context.Context, evt Event) ([]Event, error) {
			done := observability.TimedOperation()
			out, err := next.Handle(ctx, evt)
			if logger != nil {
				attrs := []any{
					slog.String("event_type", evt.Type()),
					slog.String("event_id", evt.ID()),
					slog.Float64("duration_ms", done()),
				}
				if err != nil {
					attrs = append(attrs, slog.String("error", err.Error()))
				}
				logger.Debug("event handled", attrs...)
			}
			return out, err
		}}
	}
}

// middlewareHandler wraps a function while preserving the wrapped
// handler's event types.
type middlewareHandler struct {
	next Handler
	fn   HandlerFunc
}

func (m middlewareHandler) Handle(ctx context.Context, evt Event) ([]Event, error) {
	return m.fn(ctx, evt)
}

func (m middlewareHandler) Handles() []string {
	return m.next.Handles()
}
