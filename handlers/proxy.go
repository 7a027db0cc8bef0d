package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay/internal"
)

// defaultProxyTimeout bounds one upstream HTTP exchange.
const defaultProxyTimeout = 3000 * time.Millisecond

// closeWriteWait bounds the close-frame write when tearing down a bridge.
const closeWriteWait = 5 * time.Second

// Default header filters. Hop-by-hop and HTTP/2 pseudo headers never
// cross the proxy.
var (
	defaultReqHeadersFilter = []string{"host"}
	defaultResHeadersFilter = []string{"connection", "transfer-encoding"}
)

// proxyConfig holds the decoded proxy route options.
type proxyConfig struct {
	upstream         *url.URL
	client           *http.Client
	reqHeadersFilter []string
	resHeadersFilter []string
	timeout          time.Duration
	websocket        bool
	nolog            bool
}

// Proxy builds the reverse-proxy handler. Config is either the upstream
// URL as a string or a mapping with upstream, websocket, timeout, nolog,
// reqHeadersFilter and resHeadersFilter.
func Proxy(ec *internal.ExecContext, cfg any) (internal.Middleware, error) {
	pc := proxyConfig{
		timeout:          defaultProxyTimeout,
		reqHeadersFilter: defaultReqHeadersFilter,
		resHeadersFilter: defaultResHeadersFilter,
	}

	var rawUpstream string
	switch v := cfg.(type) {
	case string:
		rawUpstream = v
	case map[string]any:
		rawUpstream = strVal(v, "upstream", "")
		pc.websocket = boolVal(v, "websocket", false)
		pc.nolog = boolVal(v, "nolog", false)
		pc.timeout = durationVal(v, "timeout", defaultProxyTimeout)
		if f := strSlice(v, "reqHeadersFilter"); f != nil {
			pc.reqHeadersFilter = f
		}
		if f := strSlice(v, "resHeadersFilter"); f != nil {
			pc.resHeadersFilter = f
		}
	default:
		return nil, internal.NewConfigError("", "", "proxy config must be an upstream string or a mapping")
	}

	if rawUpstream == "" {
		return nil, internal.NewConfigError("", "", "proxy handler requires an upstream")
	}
	upstream, err := url.Parse(rawUpstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, internal.NewConfigError("", "", "proxy upstream %q is not an absolute URL", rawUpstream)
	}
	pc.upstream = upstream

	pc.client = &http.Client{
		// Redirects pass through to the client untouched.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return pc.middleware, nil
}

func (pc proxyConfig) middleware(c internal.Context, next internal.Next) error {
	if pc.nolog {
		c.DisableLogging()
	}
	if c.IsWebSocket() && pc.websocket {
		return pc.bridgeWebSocket(c, next)
	}
	return pc.forwardHTTP(c, next)
}

// forwardHTTP sends the request upstream with the configured scheme and
// host overlaid onto the current (possibly rewritten) path and query,
// buffers the upstream response into the context, and delegates
// downstream. Client aborts and the timeout both cancel the upstream
// exchange.
func (pc proxyConfig) forwardHTTP(c internal.Context, next internal.Next) error {
	target := *pc.upstream
	target.Path = c.Path()
	target.RawQuery = c.Querystring()

	ctx, cancel := context.WithTimeout(c.Context(), pc.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, c.Method(), target.String(), c.Request().Body)
	if err != nil {
		return internal.ErrServiceUnavailable("bad upstream request").Wrap(err)
	}
	copyFiltered(req.Header, c.Headers(), pc.reqHeadersFilter)

	resp, err := pc.client.Do(req)
	if err != nil {
		c.SetError(fmt.Errorf("%w: %v", internal.ErrUpstreamUnavailable, err))
		return internal.ErrServiceUnavailable("upstream unavailable").Wrap(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.SetError(fmt.Errorf("%w: %v", internal.ErrUpstreamUnavailable, err))
		return internal.ErrServiceUnavailable("upstream read failed").Wrap(err)
	}

	for name, values := range resp.Header {
		if filtered(name, pc.resHeadersFilter) {
			continue
		}
		_ = c.SetHeader(name, values...)
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusServiceUnavailable
	}
	c.SetStatus(status)
	c.SetBody(body)
	c.Log("proxy",
		slog.String("upstream", target.String()),
		slog.Int("status", status),
		slog.Int("bytes", len(body)),
	)
	return next()
}

// bridgeWebSocket dials the upstream WebSocket and, once it opens,
// completes the client handshake and forwards frames in both directions
// until either side closes. An upstream failure before open falls
// through the chain so a later handler can respond over plain HTTP.
func (pc proxyConfig) bridgeWebSocket(c internal.Context, next internal.Next) error {
	target := *pc.upstream
	switch target.Scheme {
	case "http":
		target.Scheme = "ws"
	case "https":
		target.Scheme = "wss"
	}
	target.Path = c.Path()
	target.RawQuery = c.Querystring()

	dialer := websocket.Dialer{HandshakeTimeout: pc.timeout}
	header := make(http.Header)
	copyFiltered(header, c.Headers(), pc.reqHeadersFilter)
	stripHandshakeHeaders(header)

	upstream, resp, err := dialer.DialContext(c.Context(), target.String(), header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		c.ClearWebSocket()
		c.SetStatus(http.StatusOK)
		c.SetBody(nil)
		c.SetError(fmt.Errorf("%w: %v", internal.ErrUpgradeFailed, err))
		c.Log("ProxyWS-Failed",
			slog.String("upstream", target.String()),
			slog.Any("error", err),
		)
		return next()
	}

	client, err := c.Upgrade()
	if err != nil {
		_ = upstream.Close()
		return err
	}

	session := uuid.NewString()
	c.Log("ProxyWS-Open",
		slog.String("session", session),
		slog.String("upstream", target.String()),
	)

	var sent, received int64
	var once sync.Once
	closeBoth := func() {
		_ = client.Close()
		_ = upstream.Close()
	}

	g := new(errgroup.Group)
	g.Go(pump(client, upstream, &sent, &once, closeBoth))
	g.Go(pump(upstream, client, &received, &once, closeBoth))
	err = g.Wait()

	c.AddBytes(sent + received)
	c.Log("ProxyWS-Close",
		slog.String("session", session),
		slog.Int64("bytes", sent+received),
	)
	if err != nil {
		c.SetError(err)
	}
	return nil
}

// pump forwards frames from src to dst until src closes or errors. A
// close frame propagates with its code; any other failure tears down
// both peers.
func pump(src, dst *websocket.Conn, bytes *int64, once *sync.Once, closeBoth func()) func() error {
	return func() error {
		defer once.Do(closeBoth)
		for {
			mt, msg, err := src.ReadMessage()
			if err != nil {
				var closeErr *websocket.CloseError
				if errors.As(err, &closeErr) {
					deadline := time.Now().Add(closeWriteWait)
					_ = dst.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(closeErr.Code, closeErr.Text), deadline)
					return nil
				}
				return err
			}
			*bytes += int64(len(msg))
			if err := dst.WriteMessage(mt, msg); err != nil {
				return err
			}
		}
	}
}

// copyFiltered copies headers, dropping filtered names and HTTP/2
// pseudo-headers.
func copyFiltered(dst, src http.Header, filter []string) {
	for name, values := range src {
		if filtered(name, filter) {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func filtered(name string, filter []string) bool {
	if strings.HasPrefix(name, ":") {
		return true
	}
	for _, f := range filter {
		if strings.EqualFold(name, f) {
			return true
		}
	}
	return false
}

// stripHandshakeHeaders removes the client's handshake headers; the
// dialer generates its own.
func stripHandshakeHeaders(h http.Header) {
	for _, name := range []string{
		"Upgrade", "Connection",
		"Sec-Websocket-Key", "Sec-Websocket-Version",
		"Sec-Websocket-Extensions", "Sec-Websocket-Protocol",
	} {
		h.Del(name)
	}
}
