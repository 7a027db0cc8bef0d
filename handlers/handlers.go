// Package handlers provides the built-in route handler factories:
// static file serving, reverse proxying (HTTP and WebSocket), and a
// diagnostic echo. Factories follow the registry convention: they decode
// a route's raw config value and return a middleware for the route's
// stack.
package handlers

import (
	"time"

	"github.com/dmitrymomot/relay/internal"
)

// RegisterBuiltins registers the built-in handlers on a server.
// The "app" handler is registered by the server itself.
func RegisterBuiltins(s *internal.Server) error {
	builtins := map[string]internal.HandlerFactory{
		"static": Static,
		"proxy":  Proxy,
		"echo":   Echo,
	}
	for name, f := range builtins {
		if err := s.RegisterHandler(name, f); err != nil {
			return err
		}
	}
	return nil
}

// Config value helpers. Route configs arrive as scalars or
// map[string]any; absent keys fall back to the given default.

func strVal(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}

func boolVal(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

func intVal(m map[string]any, key string, def int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func durationVal(m map[string]any, key string, def time.Duration) time.Duration {
	// Numeric values are milliseconds, matching route config conventions.
	switch v := m[key].(type) {
	case int:
		return time.Duration(v) * time.Millisecond
	case int64:
		return time.Duration(v) * time.Millisecond
	case float64:
		return time.Duration(v) * time.Millisecond
	case string:
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func strSlice(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}
