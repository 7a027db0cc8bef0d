package internal

import (
	"path"
	"path/filepath"
	"strings"
)

// AppFunc initializes a mounted application. It receives an execution
// context scoped to the mount's base path and the app's configuration,
// and registers the app's routes through the context.
type AppFunc func(ec *ExecContext, cfg map[string]any) error

// ExecContext is the build-time capability surface handed to handler
// factories and mounted applications. It is a narrowed view of one path
// router bound to a base path and a handler name: routes registered
// through it live under the base, and the middlewares it installs run
// with the handler name set and the path rebased.
type ExecContext struct {
	router *PathRouter
	name   string
	base   string
	fsRoot string
}

func newExecContext(router *PathRouter, name, base, fsRoot string) *ExecContext {
	return &ExecContext{router: router, name: name, base: base, fsRoot: fsRoot}
}

// Name returns the handler name this context is bound to.
func (ec *ExecContext) Name() string { return ec.name }

// Base returns the mount base path.
func (ec *ExecContext) Base() string { return ec.base }

// named returns a copy of the context bound to a different handler name.
func (ec *ExecContext) named(name string) *ExecContext {
	cp := *ec
	cp.name = name
	return &cp
}

// Use registers a middleware for any method at the base-relative path.
func (ec *ExecContext) Use(rel string, mw Middleware) {
	ec.router.Use(ec.ResolveReqPath(rel), ec.Mount(mw))
}

// GET registers a middleware for GET requests at the base-relative path.
func (ec *ExecContext) GET(rel string, mw Middleware) {
	ec.router.GET(ec.ResolveReqPath(rel), ec.Mount(mw))
}

// POST registers a middleware for POST requests at the base-relative path.
func (ec *ExecContext) POST(rel string, mw Middleware) {
	ec.router.POST(ec.ResolveReqPath(rel), ec.Mount(mw))
}

// AddModule resolves and mounts a named handler at the base-relative path.
func (ec *ExecContext) AddModule(rel, name string, cfg any) error {
	return ec.router.AddModule(ec.ResolveReqPath(rel), name, cfg)
}

// AddRewrite installs a rewrite at the base-relative path.
func (ec *ExecContext) AddRewrite(rel, src, dest string) {
	ec.router.AddRewrite(ec.ResolveReqPath(rel), src, dest)
}

// AddRedirect installs a redirect at the base-relative path.
func (ec *ExecContext) AddRedirect(rel, dest string, code int) {
	ec.router.AddRedirect(ec.ResolveReqPath(rel), dest, code)
}

// ResolveReqPath converts a base-relative route path to an absolute one.
// A leading "^" wildcard marker survives the resolution, and "/" resolves
// to the base itself.
func (ec *ExecContext) ResolveReqPath(rel string) string {
	marker := ""
	if strings.HasPrefix(rel, "^") {
		marker = "^"
		rel = rel[1:]
	}
	if ec.base == "/" || ec.base == "" {
		if rel == "" {
			rel = "/"
		}
		return marker + rel
	}
	joined := path.Join(ec.base, rel)
	if rel != "/" && strings.HasSuffix(rel, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return marker + joined
}

// ResolveFsPath converts a base-relative name to a filesystem path under
// the project root.
func (ec *ExecContext) ResolveFsPath(rel string) string {
	return filepath.Join(ec.fsRoot, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

// Send sets a byte body and status on the context. Convenience for
// terminal app handlers.
func (ec *ExecContext) Send(c Context, code int, body []byte) error {
	c.SetStatus(code)
	c.SetBody(body)
	return nil
}

// Mount wraps a middleware so it runs with the handler name set and the
// request path rebased: the base prefix is stripped on entry and restored
// on exit, so fall-through observers see the original path.
func (ec *ExecContext) Mount(mw Middleware) Middleware {
	return func(c Context, next Next) error {
		prevHandler := c.Handler()
		orig := c.Path()
		c.SetHandler(ec.name)
		if ec.base != "/" && ec.base != "" && strings.HasPrefix(orig, ec.base) {
			rebased := strings.TrimPrefix(orig, ec.base)
			if rebased == "" {
				rebased = "/"
			}
			c.SetPath(rebased)
		}
		defer func() {
			c.SetPath(orig)
			c.SetHandler(prevHandler)
		}()
		return mw(c, next)
	}
}

// wrap runs a module middleware with the handler name set, without
// rebasing the path: mounted modules such as static and proxy consume
// the full request path and apply their own base handling.
func (ec *ExecContext) wrap(mw Middleware) Middleware {
	return func(c Context, next Next) error {
		prev := c.Handler()
		c.SetHandler(ec.name)
		defer c.SetHandler(prev)
		return mw(c, next)
	}
}
