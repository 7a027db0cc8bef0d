package internal

import (
	"bufio"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Response states. The writer starts buffering; the first body byte
// commits it to responding, and a successful WebSocket handshake moves it
// to upgraded.
const (
	stateBuffering = iota
	stateResponding
	stateUpgraded
)

// defaultUpgrader performs the server side of the WebSocket handshake.
// Origin checking belongs to outer middleware; the edge accepts and lets
// configuration decide which routes carry WebSocket traffic.
var defaultUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// ResponseWriter wraps http.ResponseWriter as a state machine over one
// response. While buffering, status and headers may still change. The
// first write serializes them and moves to responding. Upgrade hands the
// underlying connection to a WebSocket handshake instead; after that,
// plain writes are no-ops and the connection belongs to the returned
// *websocket.Conn.
type ResponseWriter struct {
	http.ResponseWriter
	conn   *websocket.Conn
	status int
	size   int64
	state  int
	mu     sync.Mutex
}

// NewResponseWriter creates a buffering ResponseWriter.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{
		ResponseWriter: w,
		status:         http.StatusOK,
	}
}

// WriteHeader serializes the response status and headers.
// Repeated calls after commit are ignored.
func (w *ResponseWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != stateBuffering {
		return
	}
	w.state = stateResponding
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Write appends body bytes, committing status and headers first if the
// response is still buffering. Writes after an upgrade are dropped.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	if w.state == stateUpgraded {
		w.mu.Unlock()
		return len(b), nil
	}
	if w.state == stateBuffering {
		w.state = stateResponding
		w.ResponseWriter.WriteHeader(w.status)
	}
	w.mu.Unlock()

	n, err := w.ResponseWriter.Write(b)
	w.size += int64(n)
	return n, err
}

// Upgrade relinquishes the connection to a WebSocket handshake and
// returns the resulting client connection. Valid only while buffering;
// once the response is committed (or already upgraded) it returns
// ErrHeadersSent.
func (w *ResponseWriter) Upgrade(r *http.Request) (*websocket.Conn, error) {
	w.mu.Lock()
	if w.state != stateBuffering {
		w.mu.Unlock()
		return nil, ErrHeadersSent
	}
	// Mark upgraded before the handshake so a concurrent write cannot
	// race the hijacked connection.
	w.state = stateUpgraded
	w.mu.Unlock()

	conn, err := defaultUpgrader.Upgrade(w.ResponseWriter, r, nil)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.conn = conn
	w.status = http.StatusSwitchingProtocols
	w.mu.Unlock()
	return conn, nil
}

// CloseUpgraded closes the upgraded WebSocket with a close code derived
// from the response status: 1011 for a 500, 1000 otherwise. No-op when the
// response was never upgraded.
func (w *ResponseWriter) CloseUpgraded(status int) error {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()
	if conn == nil {
		return nil
	}
	code := websocket.CloseNormalClosure
	if status == http.StatusInternalServerError {
		code = websocket.CloseInternalServerErr
	}
	msg := websocket.FormatCloseMessage(code, "")
	_ = conn.WriteMessage(websocket.CloseMessage, msg)
	return conn.Close()
}

// Status returns the HTTP status code of the response.
func (w *ResponseWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Size returns the number of body bytes written.
func (w *ResponseWriter) Size() int64 {
	return w.size
}

// Committed reports whether the response has left the buffering state.
func (w *ResponseWriter) Committed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state != stateBuffering
}

// Upgraded reports whether the connection was handed to a WebSocket
// handshake.
func (w *ResponseWriter) Upgraded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state == stateUpgraded
}

// Flush implements the http.Flusher interface.
func (w *ResponseWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements the http.Hijacker interface.
func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap returns the underlying ResponseWriter.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
