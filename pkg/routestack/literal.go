package routestack

import (
	"maps"
	"net/http"
)

// Literal matches one exact path.
type Literal struct {
	path     string
	defaults map[string]string
}

// NewLiteral creates a route matching path exactly. defaults are returned as
// the match params.
func NewLiteral(path string, defaults map[string]string) *Literal {
	return &Literal{path: path, defaults: maps.Clone(defaults)}
}

// Match implements Route.
func (l *Literal) Match(req *http.Request, pathOffset int) (*Match, bool) {
	path := req.URL.Path
	if pathOffset > len(path) {
		return nil, false
	}
	if path[pathOffset:] != l.path {
		return nil, false
	}
	return newMatch(l.defaults, nil, len(l.path)), true
}

// Assemble implements Route. Literal paths take no parameters.
func (l *Literal) Assemble(map[string]string) (string, error) {
	return l.path, nil
}

