package routestack

import (
	"maps"
	"net/http"
)

// Route matches requests and builds URLs.
type Route interface {
	// Match tests the request path from pathOffset on. Routes that do not
	// look at the path ignore the offset.
	Match(req *http.Request, pathOffset int) (*Match, bool)

	// Assemble builds a path from params.
	Assemble(params map[string]string) (string, error)
}

// Prioritizer is implemented by routes that carry their own priority.
// An explicit WithPriority on AddRoute takes precedence.
type Prioritizer interface {
	Priority() int
}

// Match is the result of a successful route match.
type Match struct {
	// RouteName is the name the matching route was added under.
	RouteName string

	// Params holds the matched parameters merged over the defaults.
	Params map[string]string

	// Length is the number of path bytes the route consumed.
	Length int
}

// Param returns the named parameter or def when absent.
func (m *Match) Param(name, def string) string {
	if v, ok := m.Params[name]; ok {
		return v
	}
	return def
}

// newMatch builds a match whose params are defaults overlaid by params.
func newMatch(defaults, params map[string]string, length int) *Match {
	merged := make(map[string]string, len(defaults)+len(params))
	maps.Copy(merged, defaults)
	maps.Copy(merged, params)
	return &Match{Params: merged, Length: length}
}

// Prioritized wraps r so that it reports priority p.
func Prioritized(r Route, p int) Route {
	return prioritized{Route: r, priority: p}
}

type prioritized struct {
	Route
	priority int
}

func (p prioritized) Priority() int { return p.priority }
