package routestack

import (
	"fmt"

	"github.com/randalmurphal/routestack/pkg/routestack/config"
	"github.com/randalmurphal/routestack/pkg/routestack/registry"
)

// Factory builds a route from its configuration.
type Factory func(spec config.RouteSpec) (Route, error)

var factories = registry.New(map[string]Factory{
	"literal": literalFactory,
	"segment": segmentFactory,
	"method":  methodFactory,
})

// RegisterRouteType registers the factory for a route type, replacing any
// earlier one, built-ins included.
func RegisterRouteType(typ string, f Factory) {
	factories.Register(typ, f)
}

// UnregisterRouteType removes a route type.
func UnregisterRouteType(typ string) {
	factories.Delete(typ)
}

// RouteTypes returns the registered route types in name order.
func RouteTypes() []string {
	return factories.Keys()
}

// FromSpec builds a route using the factory registered for spec.Type.
func FromSpec(spec config.RouteSpec) (Route, error) {
	f, ok := factories.Get(spec.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRouteType, spec.Type)
	}
	return f(spec)
}

func literalFactory(spec config.RouteSpec) (Route, error) {
	if spec.Path == "" {
		return nil, fmt.Errorf("%w: literal route needs a path", ErrInvalidRoute)
	}
	return NewLiteral(spec.Path, spec.Defaults), nil
}

func segmentFactory(spec config.RouteSpec) (Route, error) {
	return NewSegment(spec.Path, spec.Constraints, spec.Defaults)
}

func methodFactory(spec config.RouteSpec) (Route, error) {
	return NewMethod(spec.Methods, spec.Defaults)
}
