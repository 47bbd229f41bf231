package routestack

import (
	"errors"
	"fmt"
)

var (
	// ErrRouteNotFound is returned when a named route is not in the stack.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMissingParam is returned when assembling a route without a
	// required parameter.
	ErrMissingParam = errors.New("missing route parameter")

	// ErrInvalidParam is returned when a parameter fails its constraint.
	ErrInvalidParam = errors.New("invalid route parameter")

	// ErrUnknownRouteType is returned for a route spec whose type has no
	// registered factory.
	ErrUnknownRouteType = errors.New("unknown route type")

	// ErrInvalidRoute is returned when a route definition is malformed.
	ErrInvalidRoute = errors.New("invalid route")
)

// AssembleError reports a failure to assemble a route.
type AssembleError struct {
	Route string // Route name, when assembled through a Stack
	Param string // Offending parameter, if any
	Err   error
}

// Error implements error.
func (e *AssembleError) Error() string {
	msg := "assemble"
	if e.Route != "" {
		msg += " " + e.Route
	}
	if e.Param != "" {
		return fmt.Sprintf("%s: %v %q", msg, e.Err, e.Param)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying error.
func (e *AssembleError) Unwrap() error {
	return e.Err
}
