package internal

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/relay/pkg/hostrouter"
	"github.com/dmitrymomot/relay/pkg/logger"
)

// Server is the edge server core: an ordered host table whose entries are
// path routers, served through the middleware chain. It is assembled via
// options and Bind, and immutable once serving.
type Server struct {
	hosts       hostrouter.Table[*PathRouter]
	byHost      map[string]*PathRouter
	registry    *Registry
	apps        map[string]AppFunc
	logger      *slog.Logger
	middlewares []Middleware
	fsRoot      string
	verbose     bool
	routeCount  int
}

// New creates a server with the given options.
//
// Example:
//
//	srv := relay.New(
//	    relay.WithLogger(log),
//	    relay.WithHandler("echo", handlers.Echo),
//	)
func New(opts ...Option) *Server {
	s := &Server{
		byHost:   make(map[string]*PathRouter),
		registry: NewRegistry(),
		apps:     make(map[string]AppFunc),
		logger:   logger.NewNope(),
		fsRoot:   ".",
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.registry.Register("app", s.appFactory); err != nil {
		panic(err)
	}
	return s
}

// RegisterHandler adds a named handler factory.
func (s *Server) RegisterHandler(name string, f HandlerFactory) error {
	return s.registry.Register(name, f)
}

// RegisterApp adds a named mountable application.
func (s *Server) RegisterApp(name string, fn AppFunc) error {
	if name == "" || fn == nil {
		return NewConfigError("", "", "app registration requires a name and an init function")
	}
	if _, exists := s.apps[name]; exists {
		return NewConfigError("", "", "app %q already registered", name)
	}
	s.apps[name] = fn
	return nil
}

// Host returns the path router for a host pattern key, creating and
// appending it to the table on first use. Repeated keys share one router.
func (s *Server) Host(key string) (*PathRouter, error) {
	if pr, ok := s.byHost[key]; ok {
		return pr, nil
	}
	pattern, err := hostrouter.Parse(key)
	if err != nil {
		return nil, NewConfigError(key, "", "%v", err)
	}
	pr := NewPathRouter(s.registry, s.fsRoot)
	s.hosts.Add(pattern, pr)
	s.byHost[key] = pr
	return pr, nil
}

// ServeHTTP runs one request through the global middlewares and the
// two-level router, then flushes the context's response.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := newContext(w, r, s.logger)

	chain := make([]Middleware, 0, len(s.middlewares)+1)
	chain = append(chain, s.middlewares...)
	chain = append(chain, s.route)

	err := Compose(chain...)(c, nil)
	s.finalize(c, err)
}

// route is the host-dispatch middleware: the first pattern matching the
// request hostname handles it; otherwise the request escapes the routing
// layer through next.
func (s *Server) route(c Context, next Next) error {
	if pr, pattern, ok := s.hosts.Match(c.Hostname()); ok {
		c.SetSite(pattern.String())
		return pr.Process(c, next)
	}
	return next()
}

// finalize writes the buffered response, maps errors to statuses, and
// closes upgraded WebSocket sessions.
func (s *Server) finalize(c *reqContext, err error) {
	rw := c.rw

	if rw.Upgraded() {
		if err != nil {
			c.LogError("websocket session failed", slog.Any("error", err))
			_ = rw.CloseUpgraded(http.StatusInternalServerError)
			return
		}
		_ = rw.CloseUpgraded(c.Status())
		return
	}

	if err != nil {
		s.writeError(c, err)
		return
	}
	if rw.Committed() {
		return
	}

	status := c.Status()
	if status == 0 {
		if c.HasBody() {
			status = http.StatusOK
		} else {
			status = http.StatusNotFound
			c.SetBody([]byte("404 Not Found"))
			_ = c.SetType("text/plain; charset=utf-8")
		}
	}

	if c.bodyBytes != nil && rw.Header().Get("Content-Length") == "" {
		rw.Header().Set("Content-Length", strconv.Itoa(len(c.bodyBytes)))
	}
	if c.bodyStream != nil && c.bodySize >= 0 && rw.Header().Get("Content-Length") == "" {
		rw.Header().Set("Content-Length", strconv.FormatInt(c.bodySize, 10))
	}

	rw.WriteHeader(status)

	if c.Method() == http.MethodHead {
		if c.bodyStream != nil {
			_ = c.bodyStream.Close()
		}
		return
	}

	switch {
	case c.bodyBytes != nil:
		_, _ = rw.Write(c.bodyBytes)
	case c.bodyStream != nil:
		n, copyErr := io.Copy(rw, c.bodyStream)
		c.AddBytes(n)
		if copyErr != nil {
			c.LogError("response stream interrupted", slog.Any("error", copyErr))
		}
		_ = c.bodyStream.Close()
	}
}

// writeError maps a chain error to an HTTP response. Programming errors
// in the chain discipline surface as 500s.
func (s *Server) writeError(c *reqContext, err error) {
	status := http.StatusInternalServerError
	message := "Internal Server Error"

	if httpErr := AsHTTPError(err); httpErr != nil {
		status = httpErr.Code
		message = httpErr.Error()
		c.LogDebug("request failed",
			slog.Int("status", status),
			slog.Any("error", err),
		)
	} else {
		c.LogError("handler error", slog.Any("error", err))
	}

	if c.rw.Committed() {
		return
	}
	c.rw.Header().Set("Content-Type", "text/plain; charset=utf-8")
	body := []byte(strconv.Itoa(status) + " " + message)
	c.rw.Header().Set("Content-Length", strconv.Itoa(len(body)))
	c.rw.WriteHeader(status)
	if c.Method() != http.MethodHead {
		_, _ = c.rw.Write(body)
	}
}

// appFactory is the built-in "app" handler: it resolves a registered
// application by name, lets it register sub-routes through an execution
// context scoped to the mount base, and contributes no middleware of its
// own, so the app's routes are the only ones installed at the mount path.
func (s *Server) appFactory(ec *ExecContext, cfg any) (Middleware, error) {
	var name string
	var options map[string]any

	switch v := cfg.(type) {
	case string:
		name = v
	case map[string]any:
		name, _ = v["name"].(string)
		options = v
	default:
		return nil, NewConfigError("", ec.Base(), "app config must be a name or a mapping with a name")
	}
	if name == "" {
		return nil, NewConfigError("", ec.Base(), "app config missing name")
	}

	fn, ok := s.apps[name]
	if !ok {
		return nil, NewConfigError("", ec.Base(), "unknown app %q", name)
	}
	if err := fn(ec.named(name), options); err != nil {
		return nil, err
	}

	return nil, nil
}

// RouteCount returns the number of routes installed by Bind.
func (s *Server) RouteCount() int { return s.routeCount }
