// Package event dispatches events to handlers in priority order.
//
// # Overview
//
// A Router keeps its handlers in a priority list. Handlers registered with a
// higher priority run first; handlers sharing a priority run in registration
// order, the usual listener convention:
//
//	router := event.NewRouter(event.RouterConfig{Logger: logger})
//	router.Register(audit, event.WithHandlerName("audit"), event.WithHandlerPriority(10))
//	router.Register(metrics, event.WithHandlerName("metrics"))
//
//	evt := event.New("route.matched", "routestack", payload)
//	derived, err := router.Route(ctx, evt)
//
// A handler may end dispatch early by returning ErrStopPropagation. The
// remaining handlers are skipped and Route reports no error.
//
// # Correlation
//
// Events carry a correlation ID (shared by every event in a chain) and a
// causation ID (the event that directly produced this one):
//
//	child := event.NewFromParent(parent, "route.assembled", "routestack", payload)
//	// child.CorrelationID() == parent.CorrelationID()
//	// child.CausationID() == parent.ID()
//
// # Failures
//
// Each handler runs under its own retry policy and timeout. Errors that are
// still failing after retries are recorded in the configured DeadLetterQueue
// and dispatch continues with the next handler. InMemoryDLQ suits tests and
// single-process use; SQLiteDLQ persists failures across restarts.
//
// Router.Redrive re-runs queued failures against the handler that produced
// them and acknowledges the ones that now succeed.
//
// # Configuration
//
// Listener entries (priority, events, timeout, retry) can be kept in
// configuration and applied when a handler is registered:
//
//	specs, err := cfg.ListenerSpecs("listeners")
//	if err != nil { ... }
//	for _, spec := range specs {
//		router.Register(handlers[spec.Name], event.WithListenerSpec(spec))
//	}
//
// ApplyPriorities re-prioritizes already registered handlers from the same
// entries.
package event
