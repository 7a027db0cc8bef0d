package internal

import "log/slog"

// Option configures the server.
type Option func(*Server)

// WithLogger sets the server logger. Handlers reach it through the
// request context.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMiddleware adds global middleware that runs before host routing.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mw...)
	}
}

// WithHandler registers a named handler factory for route configs to
// resolve. Panics on duplicate names; handler registration is a startup
// concern.
func WithHandler(name string, f HandlerFactory) Option {
	return func(s *Server) {
		if err := s.registry.Register(name, f); err != nil {
			panic(err)
		}
	}
}

// WithApp registers a named mountable application.
// Panics on duplicate names.
func WithApp(name string, fn AppFunc) Option {
	return func(s *Server) {
		if err := s.RegisterApp(name, fn); err != nil {
			panic(err)
		}
	}
}

// WithVerbose enables per-route logging during Bind.
func WithVerbose(verbose bool) Option {
	return func(s *Server) {
		s.verbose = verbose
	}
}

// WithFsRoot sets the project root that anchors filesystem resolution
// for mounted handlers. Defaults to the working directory.
func WithFsRoot(dir string) Option {
	return func(s *Server) {
		if dir != "" {
			s.fsRoot = dir
		}
	}
}
