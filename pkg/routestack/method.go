package routestack

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"
)

// Method matches requests by HTTP verb regardless of path.
type Method struct {
	verbs    []string
	defaults map[string]string
}

// NewMethod creates a route matching any of verbs (case-insensitive).
func NewMethod(verbs []string, defaults map[string]string) (*Method, error) {
	if len(verbs) == 0 {
		return nil, fmt.Errorf("%w: method route needs at least one verb", ErrInvalidRoute)
	}
	m := &Method{defaults: maps.Clone(defaults)}
	for _, v := range verbs {
		m.verbs = append(m.verbs, strings.ToUpper(strings.TrimSpace(v)))
	}
	return m, nil
}

// Match implements Route. The match consumes no path.
func (m *Method) Match(req *http.Request, _ int) (*Match, bool) {
	if !slices.Contains(m.verbs, strings.ToUpper(req.Method)) {
		return nil, false
	}
	return newMatch(m.defaults, nil, 0), true
}

// Assemble implements Route. A method route contributes no path.
func (m *Method) Assemble(map[string]string) (string, error) {
	return "", nil
}
