package middlewares

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/internal"
)

// AccessLogConfig configures the access log middleware.
type AccessLogConfig struct {
	// SkipPaths are exact request paths that never log (health probes).
	SkipPaths []string
}

// AccessLogOption configures AccessLogConfig.
type AccessLogOption func(*AccessLogConfig)

// WithAccessLogSkipPaths sets paths excluded from access logging.
func WithAccessLogSkipPaths(paths ...string) AccessLogOption {
	return func(cfg *AccessLogConfig) {
		cfg.SkipPaths = paths
	}
}

// AccessLog returns middleware that logs one line per request after the
// chain returns: method, host, path, matched site, status, bytes and
// duration. Requests whose handlers cleared the log-enabled flag stay
// silent.
func AccessLog(opts ...AccessLogOption) internal.Middleware {
	cfg := &AccessLogConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(c internal.Context, next internal.Next) error {
		path := c.Path()
		err := next()

		if !c.LogEnabled() {
			return err
		}
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				return err
			}
		}

		attrs := []any{
			slog.String("method", c.Method()),
			slog.String("host", c.Hostname()),
			slog.String("path", path),
			slog.Int("status", c.Status()),
			slog.Int64("bytes", c.Bytes()+c.Response().Size()),
			slog.Duration("duration", time.Since(c.Started())),
		}
		if site := c.Site(); site != "" {
			attrs = append(attrs, slog.String("site", site))
		}
		if handlerErr := c.LastError(); handlerErr != nil {
			attrs = append(attrs, slog.Any("error", handlerErr))
		}
		c.LogInfo("request", attrs...)
		return err
	}
}
