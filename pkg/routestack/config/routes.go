package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidSpec indicates a route or listener table entry could not be decoded.
var ErrInvalidSpec = errors.New("invalid spec")

// RouteSpec describes one route in a route table.
type RouteSpec struct {
	// Name is the unique route name.
	Name string

	// Type selects the route factory (e.g. "literal", "segment", "method").
	Type string

	// Path is the literal path or segment pattern.
	Path string

	// Methods lists HTTP verbs for method routes.
	Methods []string

	// Priority is nil when the document does not set one.
	Priority *int

	// Defaults are parameters merged into every match.
	Defaults map[string]string

	// Constraints map segment parameter names to regular expressions.
	Constraints map[string]string
}

// ListenerSpec configures a named event listener.
type ListenerSpec struct {
	Name     string
	Priority *int
	Events   []string

	// Timeout bounds each invocation; zero means no bound.
	Timeout time.Duration

	// Retry is nil when the entry has no retry block.
	Retry *RetrySpec
}

// RetrySpec overrides parts of a listener's retry policy. Nil fields keep
// the router default.
//
//	listeners:
//	  - name: audit
//	    retry: {max_attempts: 5, initial_backoff: 50ms, jitter: 0}
type RetrySpec struct {
	MaxAttempts    *int
	InitialBackoff *time.Duration
	MaxBackoff     *time.Duration
	BackoffFactor  *float64
	Jitter         *float64
}

// RouteSpecs decodes the route table stored under key.
//
// Two shapes are accepted. A list keeps document order, which decides
// tie-breaks between routes of equal priority:
//
//	routes:
//	  - name: home
//	    type: literal
//	    path: /
//
// A mapping keyed by route name is decoded in name order, since mapping
// order is not preserved by the decoders:
//
//	routes:
//	  home: {type: literal, path: /}
//
// A missing key yields an empty table.
func (c Config) RouteSpecs(key string) ([]RouteSpec, error) {
	var specs []RouteSpec
	err := c.eachNamed(key, func(name string, entry Config) error {
		specs = append(specs, RouteSpec{
			Name:        name,
			Type:        entry.String("type", ""),
			Path:        entry.String("path", entry.String("route", "")),
			Methods:     entry.StringSlice("methods", entry.StringSlice("verb", nil)),
			Priority:    entry.IntPtr("priority"),
			Defaults:    entry.StringMap("defaults"),
			Constraints: entry.StringMap("constraints"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return specs, nil
}

// ListenerSpecs decodes the listener priority table stored under key.
// It accepts the same list and mapping shapes as RouteSpecs.
func (c Config) ListenerSpecs(key string) ([]ListenerSpec, error) {
	var specs []ListenerSpec
	err := c.eachNamed(key, func(name string, entry Config) error {
		spec := ListenerSpec{
			Name:     name,
			Priority: entry.IntPtr("priority"),
			Events:   entry.StringSlice("events", nil),
			Timeout:  entry.Duration("timeout", 0),
		}
		if v := entry.Any("retry", nil); v != nil {
			r, ok := asMap(v)
			if !ok {
				return fmt.Errorf("%s.%s.retry: expected mapping: %w", key, name, ErrInvalidSpec)
			}
			spec.Retry = retrySpec(New(r))
		}
		specs = append(specs, spec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return specs, nil
}

func (c Config) eachNamed(key string, fn func(name string, entry Config) error) error {
	v, ok := c.data[key]
	if !ok || v == nil {
		return nil
	}

	switch val := v.(type) {
	case []any:
		seen := make(map[string]struct{}, len(val))
		for i, item := range val {
			m, ok := asMap(item)
			if !ok {
				return fmt.Errorf("%s[%d]: expected mapping: %w", key, i, ErrInvalidSpec)
			}
			entry := New(m)
			name := entry.String("name", "")
			if name == "" {
				return fmt.Errorf("%s[%d]: missing name: %w", key, i, ErrInvalidSpec)
			}
			if _, dup := seen[name]; dup {
				return fmt.Errorf("%s[%d]: duplicate name %q: %w", key, i, name, ErrInvalidSpec)
			}
			seen[name] = struct{}{}
			if err := fn(name, entry); err != nil {
				return err
			}
		}
		return nil
	default:
		m, ok := asMap(v)
		if !ok {
			return fmt.Errorf("%s: expected list or mapping: %w", key, ErrInvalidSpec)
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			entry, ok := asMap(m[name])
			if !ok {
				return fmt.Errorf("%s.%s: expected mapping: %w", key, name, ErrInvalidSpec)
			}
			if err := fn(name, New(entry)); err != nil {
				return err
			}
		}
		return nil
	}
}

func retrySpec(c Config) *RetrySpec {
	return &RetrySpec{
		MaxAttempts:    c.IntPtr("max_attempts"),
		InitialBackoff: durationPtr(c, "initial_backoff"),
		MaxBackoff:     durationPtr(c, "max_backoff"),
		BackoffFactor:  c.FloatPtr("backoff_factor"),
		Jitter:         c.FloatPtr("jitter"),
	}
}

func durationPtr(c Config, key string) *time.Duration {
	if !c.Has(key) {
		return nil
	}
	const unset = time.Duration(-1)
	if d := c.Duration(key, unset); d != unset {
		return &d
	}
	return nil
}
