package routestack

import (
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type segmentPart struct {
	text  string // literal text or parameter name
	param bool
}

// Segment matches slash-separated paths with named parameters, such as
// "/user/:id/:action". Trailing parameters that have a default are optional.
type Segment struct {
	pattern     string
	parts       []segmentPart
	required    int // parts that must be present in the path
	constraints map[string]*regexp.Regexp
	defaults    map[string]string
}

// NewSegment compiles a segment route. constraints maps parameter names to
// regular expressions the whole value must match.
func NewSegment(pattern string, constraints, defaults map[string]string) (*Segment, error) {
	if !strings.HasPrefix(pattern, "/") {
		return nil, fmt.Errorf("%w: segment pattern %q must start with /", ErrInvalidRoute, pattern)
	}

	s := &Segment{
		pattern:     pattern,
		constraints: make(map[string]*regexp.Regexp, len(constraints)),
		defaults:    maps.Clone(defaults),
	}
	if s.defaults == nil {
		s.defaults = map[string]string{}
	}

	seen := map[string]bool{}
	for _, raw := range strings.Split(pattern[1:], "/") {
		name, isParam := strings.CutPrefix(raw, ":")
		if !isParam {
			s.parts = append(s.parts, segmentPart{text: raw})
			continue
		}
		if !paramName.MatchString(name) {
			return nil, fmt.Errorf("%w: bad parameter name %q in %q", ErrInvalidRoute, name, pattern)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q in %q", ErrInvalidRoute, name, pattern)
		}
		seen[name] = true
		s.parts = append(s.parts, segmentPart{text: name, param: true})
	}

	for name, expr := range constraints {
		if !seen[name] {
			return nil, fmt.Errorf("%w: constraint for unknown parameter %q", ErrInvalidRoute, name)
		}
		re, err := regexp.Compile(`^(?:` + expr + `)$`)
		if err != nil {
			return nil, fmt.Errorf("%w: constraint for %q: %v", ErrInvalidRoute, name, err)
		}
		s.constraints[name] = re
	}

	s.required = len(s.parts)
	for s.required > 0 {
		p := s.parts[s.required-1]
		if _, ok := s.defaults[p.text]; !p.param || !ok {
			break
		}
		s.required--
	}

	return s, nil
}

// Pattern returns the pattern the route was compiled from.
func (s *Segment) Pattern() string {
	return s.pattern
}

// Match implements Route.
func (s *Segment) Match(req *http.Request, pathOffset int) (*Match, bool) {
	path := req.URL.Path
	if pathOffset > len(path) {
		return nil, false
	}
	path = path[pathOffset:]
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}

	segs := strings.Split(path[1:], "/")
	// A trailing slash stands in for omitted optional parameters.
	if last := len(segs) - 1; segs[last] == "" && last >= s.required && last < len(s.parts) {
		segs = segs[:last]
	}
	if len(segs) < s.required || len(segs) > len(s.parts) {
		return nil, false
	}

	params := make(map[string]string, len(segs))
	for i, seg := range segs {
		part := s.parts[i]
		if !part.param {
			if seg != part.text {
				return nil, false
			}
			continue
		}
		if seg == "" {
			return nil, false
		}
		value, err := url.PathUnescape(seg)
		if err != nil {
			return nil, false
		}
		if re := s.constraints[part.text]; re != nil && !re.MatchString(value) {
			return nil, false
		}
		params[part.text] = value
	}

	return newMatch(s.defaults, params, len(path)), true
}

// Assemble implements Route. Trailing optional parameters left at their
// default are omitted. Empty values are rejected since Match never yields
// them.
func (s *Segment) Assemble(params map[string]string) (string, error) {
	n := len(s.parts)
	for n > s.required {
		name := s.parts[n-1].text
		if v, ok := params[name]; ok && v != s.defaults[name] {
			break
		}
		n--
	}

	out := make([]string, n)
	for i, part := range s.parts[:n] {
		if !part.param {
			out[i] = part.text
			continue
		}
		v, ok := params[part.text]
		if !ok {
			v, ok = s.defaults[part.text]
		}
		if !ok {
			return "", &AssembleError{Param: part.text, Err: ErrMissingParam}
		}
		if v == "" {
			return "", &AssembleError{Param: part.text, Err: ErrInvalidParam}
		}
		if re := s.constraints[part.text]; re != nil && !re.MatchString(v) {
			return "", &AssembleError{Param: part.text, Err: ErrInvalidParam}
		}
		out[i] = url.PathEscape(v)
	}
	return "/" + strings.Join(out, "/"), nil
}
