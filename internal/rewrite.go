package internal

import (
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// Rewrite returns a middleware that replaces the first occurrence of src
// in the current request path with dest, normalizes the result, and
// delegates downstream. The original path is restored when the stack
// returns, so fall-through observers see the pre-rewrite value; the
// request URL itself is never touched.
func Rewrite(src, dest string) Middleware {
	return func(c Context, next Next) error {
		orig := c.Path()
		rewritten := normalizePath(strings.Replace(orig, src, dest, 1))
		c.SetPath(rewritten)
		c.Log("rewrite",
			slog.String("from", orig),
			slog.String("to", rewritten),
		)
		defer c.SetPath(orig)
		return next()
	}
}

// Redirect returns a terminal middleware that sets Location and the
// redirect status code. It does not call next.
func Redirect(dest string, code int) Middleware {
	if code == 0 {
		code = http.StatusMovedPermanently
	}
	return func(c Context, next Next) error {
		return c.Redirect(code, dest)
	}
}

// normalizePath cleans a rewritten path while preserving a trailing
// slash, which is significant for index resolution.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	trailing := strings.HasSuffix(p, "/") && p != "/"
	p = path.Clean(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if trailing && p != "/" {
		p += "/"
	}
	return p
}
