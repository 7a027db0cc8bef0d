package internal

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/relay/pkg/hostrouter"
)

// Context carries one request through the middleware chain. It exposes the
// parsed request, a response builder that is flushed once the chain
// returns, and the scratch attributes handlers coordinate through
// (handler name, matched site, byte counter, error holder).
//
// A Context is owned by exactly one request; no synchronization is needed
// around its accessors.
type Context interface {
	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the upgradable response writer.
	Response() *ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Method returns the request method.
	Method() string

	// Host returns the raw Host header, port included.
	Host() string

	// Hostname returns the request hostname in IDN unicode form,
	// lowercased and with the port stripped.
	Hostname() string

	// Path returns the current request path. Rewrites edit this value;
	// the request URL itself is never mutated.
	Path() string

	// SetPath replaces the current request path.
	SetPath(p string)

	// Querystring returns the raw query string without the leading "?".
	Querystring() string

	// Param returns the URL parameter value by name.
	// Returns empty string if the parameter doesn't exist.
	Param(name string) string

	// Header returns the request header value by name.
	Header(name string) string

	// Headers returns the incoming request headers.
	Headers() http.Header

	// IP returns the client address, preferring X-Forwarded-For.
	IP() string

	// Secure reports whether the request arrived over TLS, directly or as
	// declared by X-Forwarded-Proto.
	Secure() bool

	// IsWebSocket reports whether the request asked for a WebSocket
	// upgrade and no handler has cleared the flag.
	IsWebSocket() bool

	// ClearWebSocket clears the upgrade flag so later handlers respond
	// over plain HTTP.
	ClearWebSocket()

	// Upgrade completes the client WebSocket handshake and hands the
	// connection to the caller. Only valid while the response is still
	// buffering; afterwards it returns ErrHeadersSent.
	Upgrade() (*websocket.Conn, error)

	// Status returns the response status set so far. Zero means unset.
	Status() int

	// SetStatus sets the response status code.
	SetStatus(code int)

	// SetHeader sets a response header. Returns ErrHeadersSent after the
	// response has been committed.
	SetHeader(name string, values ...string) error

	// DelHeader removes a response header. Returns ErrHeadersSent after
	// the response has been committed.
	DelHeader(name string) error

	// SetType sets the response Content-Type.
	SetType(contentType string) error

	// SetBody sets the response body to a byte slice.
	SetBody(b []byte)

	// SetBodyStream sets the response body to a stream. Size -1 means
	// unknown; the stream is closed after flushing.
	SetBodyStream(r io.ReadCloser, size int64)

	// Body returns the buffered response body, nil when the body is a
	// stream or absent.
	Body() []byte

	// HasBody reports whether a body (bytes or stream) has been set.
	HasBody() bool

	// Redirect sets Location and the redirect status code. Terminal: the
	// caller should not invoke next afterwards.
	Redirect(code int, url string) error

	// Throw returns an *HTTPError for the handler to propagate.
	Throw(code int, message string) error

	// Set stores a request-scoped value. The value can be retrieved with
	// Get or from Context().Value(key), so logger context extractors can
	// pick it up.
	Set(key, value any)

	// Get retrieves a request-scoped value. Returns nil if absent.
	Get(key any) any

	// Handler returns the name of the handler currently executing, for
	// logging. Empty outside mounted handlers.
	Handler() string

	// SetHandler records the executing handler's name.
	SetHandler(name string)

	// Site returns the host pattern that matched this request.
	Site() string

	// SetSite records the matched host pattern.
	SetSite(pattern string)

	// Session returns the session reference attached by outer middleware,
	// or nil.
	Session() any

	// SetSession attaches a session reference.
	SetSession(s any)

	// SetError records a handler failure without aborting the chain.
	SetError(err error)

	// LastError returns the recorded failure, or nil.
	LastError() error

	// AddBytes adds to the transfer counter (WebSocket frames, streamed
	// bodies).
	AddBytes(n int64)

	// Bytes returns the transfer counter.
	Bytes() int64

	// Started returns the time the context was created.
	Started() time.Time

	// LogEnabled reports whether request logging is still enabled.
	LogEnabled() bool

	// DisableLogging clears the log-enabled flag for this request.
	DisableLogging()

	// Logger returns the request logger for advanced usage.
	Logger() *slog.Logger

	// Log logs an info message when logging is enabled for this request.
	Log(msg string, attrs ...any)

	// LogDebug logs a debug message with optional attributes.
	LogDebug(msg string, attrs ...any)

	// LogInfo logs an info message with optional attributes.
	LogInfo(msg string, attrs ...any)

	// LogWarn logs a warning message with optional attributes.
	LogWarn(msg string, attrs ...any)

	// LogError logs an error message with optional attributes.
	LogError(msg string, attrs ...any)
}

// reqContext is the request-scoped Context implementation.
type reqContext struct {
	req      *http.Request
	rw       *ResponseWriter
	logger   *slog.Logger
	values   map[any]any
	started  time.Time
	path     string
	hostname string
	handler  string
	site     string
	session  any
	lastErr  error

	status     int
	bodyBytes  []byte
	bodyStream io.ReadCloser
	bodySize   int64
	hasBody    bool

	bytes      atomic.Int64
	ws         bool
	logEnabled bool
}

// NewContext creates a Context for one request. The serve loop builds
// its own; this constructor exists for middleware and handler tests.
func NewContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger) Context {
	return newContext(w, r, logger)
}

// newContext creates a Context for one request.
func newContext(w http.ResponseWriter, r *http.Request, logger *slog.Logger) *reqContext {
	return &reqContext{
		req:        r,
		rw:         NewResponseWriter(w),
		logger:     logger,
		started:    time.Now(),
		path:       r.URL.Path,
		bodySize:   -1,
		ws:         isUpgradeRequest(r),
		logEnabled: true,
	}
}

// isUpgradeRequest reports whether the request carries a WebSocket
// handshake.
func isUpgradeRequest(r *http.Request) bool {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	for _, v := range r.Header.Values("Connection") {
		for tok := range strings.SplitSeq(v, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), "upgrade") {
				return true
			}
		}
	}
	return false
}

func (c *reqContext) Request() *http.Request    { return c.req }
func (c *reqContext) Response() *ResponseWriter { return c.rw }
func (c *reqContext) Context() context.Context  { return c.req.Context() }
func (c *reqContext) Method() string            { return c.req.Method }
func (c *reqContext) Host() string              { return c.req.Host }
func (c *reqContext) Path() string              { return c.path }
func (c *reqContext) SetPath(p string)          { c.path = p }
func (c *reqContext) Querystring() string       { return c.req.URL.RawQuery }
func (c *reqContext) Header(name string) string { return c.req.Header.Get(name) }
func (c *reqContext) Headers() http.Header      { return c.req.Header }
func (c *reqContext) Started() time.Time        { return c.started }

func (c *reqContext) Hostname() string {
	if c.hostname == "" {
		c.hostname = hostrouter.Unicode(c.req.Host)
	}
	return c.hostname
}

func (c *reqContext) Param(name string) string {
	if rctx := chi.RouteContext(c.req.Context()); rctx != nil {
		return rctx.URLParam(name)
	}
	return ""
}

// setRouteContext attaches the matched route's parameters so Param can
// resolve them.
func (c *reqContext) setRouteContext(rctx *chi.Context) {
	c.req = c.req.WithContext(context.WithValue(c.req.Context(), chi.RouteCtxKey, rctx))
}

func (c *reqContext) IP() string {
	if fwd := c.req.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(c.req.RemoteAddr); err == nil {
		return host
	}
	return c.req.RemoteAddr
}

func (c *reqContext) Secure() bool {
	if c.req.TLS != nil {
		return true
	}
	return strings.EqualFold(c.req.Header.Get("X-Forwarded-Proto"), "https")
}

func (c *reqContext) IsWebSocket() bool { return c.ws }
func (c *reqContext) ClearWebSocket()   { c.ws = false }

func (c *reqContext) Upgrade() (*websocket.Conn, error) {
	return c.rw.Upgrade(c.req)
}

func (c *reqContext) Status() int        { return c.status }
func (c *reqContext) SetStatus(code int) { c.status = code }

func (c *reqContext) SetHeader(name string, values ...string) error {
	if c.rw.Committed() {
		return ErrHeadersSent
	}
	h := c.rw.Header()
	h.Del(name)
	for _, v := range values {
		h.Add(name, v)
	}
	return nil
}

func (c *reqContext) DelHeader(name string) error {
	if c.rw.Committed() {
		return ErrHeadersSent
	}
	c.rw.Header().Del(name)
	return nil
}

func (c *reqContext) SetType(contentType string) error {
	return c.SetHeader("Content-Type", contentType)
}

func (c *reqContext) SetBody(b []byte) {
	c.bodyBytes = b
	c.bodyStream = nil
	c.bodySize = int64(len(b))
	c.hasBody = true
}

func (c *reqContext) SetBodyStream(r io.ReadCloser, size int64) {
	c.bodyBytes = nil
	c.bodyStream = r
	c.bodySize = size
	c.hasBody = true
}

func (c *reqContext) Body() []byte  { return c.bodyBytes }
func (c *reqContext) HasBody() bool { return c.hasBody }

func (c *reqContext) Redirect(code int, url string) error {
	if code == 0 {
		code = http.StatusMovedPermanently
	}
	if err := c.SetHeader("Location", url); err != nil {
		return err
	}
	c.SetStatus(code)
	return nil
}

func (c *reqContext) Throw(code int, message string) error {
	return NewHTTPError(code, message)
}

func (c *reqContext) Set(key, value any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
	// Also store in the request context so logger context extractors see
	// the value on every Log* call.
	c.req = c.req.WithContext(context.WithValue(c.req.Context(), key, value))
}

func (c *reqContext) Get(key any) any {
	if c.values == nil {
		return nil
	}
	return c.values[key]
}

func (c *reqContext) Handler() string        { return c.handler }
func (c *reqContext) SetHandler(name string) { c.handler = name }
func (c *reqContext) Site() string           { return c.site }
func (c *reqContext) SetSite(pattern string) { c.site = pattern }
func (c *reqContext) Session() any           { return c.session }
func (c *reqContext) SetSession(s any)       { c.session = s }
func (c *reqContext) SetError(err error)     { c.lastErr = err }
func (c *reqContext) LastError() error       { return c.lastErr }
func (c *reqContext) AddBytes(n int64)       { c.bytes.Add(n) }
func (c *reqContext) Bytes() int64           { return c.bytes.Load() }

func (c *reqContext) LogEnabled() bool { return c.logEnabled }
func (c *reqContext) DisableLogging()  { c.logEnabled = false }

func (c *reqContext) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

func (c *reqContext) Log(msg string, attrs ...any) {
	if !c.logEnabled {
		return
	}
	if c.handler != "" {
		attrs = append(attrs, slog.String("handler", c.handler))
	}
	c.Logger().InfoContext(c.req.Context(), msg, attrs...)
}

func (c *reqContext) LogDebug(msg string, attrs ...any) {
	c.Logger().DebugContext(c.req.Context(), msg, attrs...)
}

func (c *reqContext) LogInfo(msg string, attrs ...any) {
	c.Logger().InfoContext(c.req.Context(), msg, attrs...)
}

func (c *reqContext) LogWarn(msg string, attrs ...any) {
	c.Logger().WarnContext(c.req.Context(), msg, attrs...)
}

func (c *reqContext) LogError(msg string, attrs ...any) {
	c.Logger().ErrorContext(c.req.Context(), msg, attrs...)
}
