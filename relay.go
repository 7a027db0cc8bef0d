package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/config"
	"github.com/dmitrymomot/relay/handlers"
	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/logger"
)

// Type aliases - public API
type (
	// Server is the edge server core: ordered host routing over path
	// routers, served through the middleware chain.
	Server = internal.Server

	// Context provides request/response access and helper methods.
	Context = internal.Context

	// Middleware processes a request and may delegate downstream by
	// calling next at most once.
	Middleware = internal.Middleware

	// Next resumes the remainder of the middleware stack.
	Next = internal.Next

	// HandlerFactory builds a middleware from a route's handler config.
	HandlerFactory = internal.HandlerFactory

	// ExecContext is the registration surface handed to handler
	// factories and mounted applications.
	ExecContext = internal.ExecContext

	// AppFunc initializes a mounted application.
	AppFunc = internal.AppFunc

	// PathRouter maps URL paths to middleware stacks for one site.
	PathRouter = internal.PathRouter

	// ResponseWriter is the upgradable response target.
	ResponseWriter = internal.ResponseWriter

	// HTTPError carries an HTTP status with its user-facing message.
	HTTPError = internal.HTTPError

	// ConfigError reports an invalid route configuration at startup.
	ConfigError = internal.ConfigError

	// Option configures the server.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// Document is the parsed declarative route configuration.
	Document = config.Document

	// ContextExtractor extracts a slog attribute from context.
	// Used with logger.New to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Sentinel errors re-exported for errors.Is checks.
var (
	ErrHeadersSent         = internal.ErrHeadersSent
	ErrNextCalledTwice     = internal.ErrNextCalledTwice
	ErrUpstreamUnavailable = internal.ErrUpstreamUnavailable
	ErrUpgradeFailed       = internal.ErrUpgradeFailed
)

// New creates a server with the built-in handlers (static, proxy, echo,
// app) registered and the given options applied.
//
// Example:
//
//	srv := relay.New(
//	    relay.WithLogger(logger.New()),
//	    relay.WithMiddleware(middlewares.AccessLog()),
//	)
func New(opts ...Option) *Server {
	s := internal.New(opts...)
	if err := handlers.RegisterBuiltins(s); err != nil {
		panic(err)
	}
	return s
}

// Load creates a server and binds a parsed route document to it.
//
// Example:
//
//	doc, err := config.Load("relay.yaml")
//	...
//	srv, err := relay.Load(doc, relay.WithLogger(log))
//	...
//	err = srv.Run(":8080")
func Load(doc *Document, opts ...Option) (*Server, error) {
	s := New(opts...)
	if err := internal.Bind(s, doc); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFile reads, parses and binds a route configuration file.
func LoadFile(path string, opts ...Option) (*Server, error) {
	doc, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return Load(doc, opts...)
}

// Compose flattens an ordered list of middlewares into one, with the
// single-shot next discipline enforced.
func Compose(mws ...Middleware) Middleware {
	return internal.Compose(mws...)
}

// Server options

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithMiddleware adds global middleware that runs before host routing.
// Middleware is applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandler registers a named handler factory for route configs to
// resolve.
func WithHandler(name string, f HandlerFactory) Option {
	return internal.WithHandler(name, f)
}

// WithApp registers a named mountable application.
//
// Example:
//
//	relay.WithApp("chat", func(ec *relay.ExecContext, cfg map[string]any) error {
//	    ec.GET("/", chat.Index)
//	    ec.POST("/send", chat.Send)
//	    return nil
//	})
func WithApp(name string, fn AppFunc) Option {
	return internal.WithApp(name, fn)
}

// WithVerbose enables per-route logging while binding.
func WithVerbose(verbose bool) Option {
	return internal.WithVerbose(verbose)
}

// WithFsRoot sets the project root for filesystem resolution in mounted
// handlers.
func WithFsRoot(dir string) Option {
	return internal.WithFsRoot(dir)
}

// Run options

// RunLogger sets the runtime logger. Defaults to the server's logger.
func RunLogger(l *slog.Logger) RunOption {
	return internal.RunLogger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
// Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook registers a function to run after the port is bound but
// before serving requests.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function to run during shutdown.
// Hooks are called in the order they were registered.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a custom base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Error helpers

// NewHTTPError creates an HTTPError with the given status code and
// message.
func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

// AsHTTPError extracts the HTTPError from an error chain, or nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}
