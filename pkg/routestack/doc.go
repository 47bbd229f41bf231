// Package routestack matches HTTP requests against a priority-ordered table
// of named routes.
//
// Routes are tried from highest priority to lowest; among routes sharing a
// priority the most recently added is tried first, so a later, more specific
// route can shadow an earlier catch-all without any priority bookkeeping:
//
//	stack := routestack.New(routestack.WithLogger(logger))
//	stack.AddRoute("catchall", routestack.NewLiteral("/", nil))
//	seg, err := routestack.NewSegment("/user/:id", map[string]string{"id": `\d+`}, nil)
//	if err != nil { ... }
//	stack.AddRoute("user", seg)
//	stack.AddRoute("admin", routestack.NewLiteral("/admin", nil), routestack.WithPriority(10))
//
//	m, ok := stack.Match(ctx, req)
//	// m.RouteName, m.Params
//
// Re-adding a route under an existing name replaces it and moves it to the
// front of its priority tier.
//
// Route tables can also come from configuration:
//
//	cfg, err := config.FromFile("routes.yaml")
//	specs, err := cfg.RouteSpecs("routes")
//	err = stack.AddRoutes(specs)
//
// Route types are built by factories registered with RegisterRouteType. The
// built-in types are "literal", "segment", and "method".
//
// A Stack is safe for concurrent use.
package routestack
