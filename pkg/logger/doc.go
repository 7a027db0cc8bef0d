// Package logger provides structured logging built on log/slog, with
// context-extracted attributes and optional Sentry mirroring.
//
// Context extractors pull request-scoped values (request IDs, matched
// sites) into every record without threading them through call sites:
//
//	reqID := func(ctx context.Context) (slog.Attr, bool) {
//	    if v, ok := ctx.Value(key{}).(string); ok && v != "" {
//	        return slog.String("request_id", v), true
//	    }
//	    return slog.Attr{}, false
//	}
//	log := logger.New(reqID)
//
// NewWithSentry mirrors records at or above the configured MinLevel to
// Sentry when a DSN is configured (only errors create Sentry issues), and
// degrades to stdout-only logging otherwise, so the
// same construction works in development and production.
package logger
