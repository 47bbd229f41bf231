/*
Package config provides type-safe configuration extraction from map[string]any
and decoding of route and listener tables.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
This is useful for extracting configuration values from YAML/JSON structures
without verbose type assertions and nil checks.

# Basic Usage

	cfg := config.New(map[string]any{
	    "timeout": "30s",
	    "retries": 3,
	})

	timeout := cfg.Duration("timeout", 10*time.Second) // 30s
	retries := cfg.Int("retries", 5)                   // 3
	priority := cfg.IntPtr("priority")                 // nil

# Route Tables

RouteSpecs and ListenerSpecs decode named tables. Priorities are optional:
a missing or null priority decodes to a nil *int and is treated as 0 by the
route stack and event router.

	cfg, err := config.FromFile("routes.yaml", config.WithEnvExpansion())
	specs, err := cfg.RouteSpecs("routes")

Use the list form when several routes share a priority, since list order
decides which one is tried first.

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation.
*/
package config
