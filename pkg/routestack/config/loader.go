package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type loadOptions struct {
	expandEnv bool
	lookupEnv func(string) (string, bool)
}

// LoadOption configures FromFile, FromYAML and FromJSON.
type LoadOption func(*loadOptions)

// WithEnvExpansion replaces ${VAR} and $VAR references in the raw document
// with environment values before parsing. Unset variables expand to "".
func WithEnvExpansion() LoadOption {
	return func(o *loadOptions) {
		o.expandEnv = true
	}
}

// WithLookupEnv replaces os.LookupEnv for WithEnvExpansion, mainly in tests.
func WithLookupEnv(fn func(string) (string, bool)) LoadOption {
	return func(o *loadOptions) {
		o.expandEnv = true
		o.lookupEnv = fn
	}
}

func (o *loadOptions) prepare(data []byte) []byte {
	if !o.expandEnv {
		return data
	}
	lookup := o.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return []byte(os.Expand(string(data), func(name string) string {
		v, _ := lookup(name)
		return v
	}))
}

func buildLoadOptions(opts []LoadOption) *loadOptions {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FromFile loads configuration from a file, auto-detecting format by extension.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string, opts ...LoadOption) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data, opts...)
	case ".json":
		return FromJSON(data, opts...)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into a Config.
func FromYAML(data []byte, opts ...LoadOption) (Config, error) {
	var m map[string]any
	if err := yaml.Unmarshal(buildLoadOptions(opts).prepare(data), &m); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return New(m), nil
}

// FromJSON parses JSON data into a Config.
func FromJSON(data []byte, opts ...LoadOption) (Config, error) {
	var m map[string]any
	if err := json.Unmarshal(buildLoadOptions(opts).prepare(data), &m); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return New(m), nil
}

// Merge returns a new Config with the top-level keys of overlay applied on
// top of c. Neither input is modified.
func (c Config) Merge(overlay Config) Config {
	out := make(map[string]any, len(c.data)+len(overlay.data))
	maps.Copy(out, c.data)
	maps.Copy(out, overlay.data)
	return New(out)
}
