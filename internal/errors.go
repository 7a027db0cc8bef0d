package internal

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for programming and transport failures.
var (
	// ErrHeadersSent is returned when response headers or the upgrade path
	// are touched after the response has been committed to the wire.
	ErrHeadersSent = errors.New("relay: headers already sent")

	// ErrNextCalledTwice is returned when a middleware calls its
	// continuation more than once in the same stack frame.
	ErrNextCalledTwice = errors.New("relay: next called twice in middleware chain")

	// ErrUpstreamUnavailable is returned when a proxy upstream cannot be
	// reached, times out, or is aborted.
	ErrUpstreamUnavailable = errors.New("relay: upstream unavailable")

	// ErrUpgradeFailed is returned when a WebSocket handshake fails before
	// the upstream connection opens.
	ErrUpgradeFailed = errors.New("relay: websocket upgrade failed")
)

// HTTPError represents an HTTP error with the data needed for rendering.
// It implements the error interface and carries the underlying cause for
// logging without exposing it to clients.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// Convenience constructors for common HTTP errors.

func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

func ErrForbidden(message string) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message)
}

func ErrNotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

func ErrRangeNotSatisfiable(message string) *HTTPError {
	return NewHTTPError(http.StatusRequestedRangeNotSatisfiable, message)
}

func ErrInternal(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message)
}

func ErrServiceUnavailable(message string) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message)
}

// AsHTTPError extracts the HTTPError from an error chain.
// Returns nil if none is present.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// ConfigError reports an invalid route configuration at startup.
// Binding stops at the first one.
type ConfigError struct {
	Host   string
	Path   string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Host != "" && e.Path != "":
		return fmt.Sprintf("relay: route %q %q: %s", e.Host, e.Path, e.Reason)
	case e.Host != "":
		return fmt.Sprintf("relay: host %q: %s", e.Host, e.Reason)
	default:
		return "relay: " + e.Reason
	}
}

// NewConfigError creates a ConfigError scoped to a host/path pair.
// Either scope component may be empty.
func NewConfigError(host, path, format string, args ...any) *ConfigError {
	return &ConfigError{Host: host, Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Wrap attaches the underlying cause and returns the error, for
// call-site chaining.
func (e *HTTPError) Wrap(err error) *HTTPError {
	e.Err = err
	return e
}
