package internal

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// PathRouter is the second routing level: it maps URL paths to middleware
// stacks for one site. It is backed by a chi mux for pattern matching and
// URL parameters, while dispatch stays on the Context/Next discipline.
//
// Routers are assembled at startup and immutable afterwards.
type PathRouter struct {
	mux      *chi.Mux
	stacks   map[string]*stack
	registry *Registry
	fsRoot   string
}

// stack is the ordered list of middlewares attached to one method/path
// pair. Successive AddModule calls on the same path extend the same
// stack; the composed middleware is installed on the mux only once.
type stack struct {
	mws []Middleware
}

// invoke composes the stack at call time so pushes that arrive after the
// first installation are still honored. Composition of the same ordered
// list is idempotent.
func (s *stack) invoke(c Context, next Next) error {
	return Compose(s.mws...)(c, next)
}

// NewPathRouter creates an empty path router. The registry resolves
// handler names for AddModule; fsRoot anchors ExecContext.ResolveFsPath.
func NewPathRouter(registry *Registry, fsRoot string) *PathRouter {
	pr := &PathRouter{
		mux:      chi.NewRouter(),
		stacks:   make(map[string]*stack),
		registry: registry,
		fsRoot:   fsRoot,
	}
	pr.mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if d := dispatchFrom(r); d != nil {
			d.matched = false
		}
	})
	pr.mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		if d := dispatchFrom(r); d != nil {
			d.matched = false
		}
	})
	return pr
}

// Use registers a middleware for any method at path.
func (pr *PathRouter) Use(path string, mw Middleware) {
	pr.push(methodAll, path, mw)
}

// GET registers a middleware for GET requests at path.
func (pr *PathRouter) GET(path string, mw Middleware) {
	pr.push(http.MethodGet, path, mw)
}

// POST registers a middleware for POST requests at path.
func (pr *PathRouter) POST(path string, mw Middleware) {
	pr.push(http.MethodPost, path, mw)
}

// AddRewrite installs a middleware at path that substitutes src with dest
// in the current request path and delegates downstream.
func (pr *PathRouter) AddRewrite(path, src, dest string) {
	pr.Use(path, Rewrite(src, dest))
}

// AddRedirect installs a terminal middleware at path that redirects to
// dest with the given status code (301 when zero).
func (pr *PathRouter) AddRedirect(path, dest string, code int) {
	pr.Use(path, Redirect(dest, code))
}

// AddModule resolves the named handler from the registry, instantiates it
// with cfg under an execution context bound to this router and path, and
// pushes the result onto the path's stack.
func (pr *PathRouter) AddModule(path, name string, cfg any) error {
	factory, err := pr.registry.Resolve(name)
	if err != nil {
		return err
	}
	ec := newExecContext(pr, name, mountBase(path), pr.fsRoot)
	mw, err := factory(ec, cfg)
	if err != nil {
		return err
	}
	if mw != nil {
		pr.push(methodAll, path, ec.wrap(mw))
	}
	return nil
}

// Process routes the context's current path through this router. When a
// pattern matches, its stack runs with next as the outer continuation;
// when nothing matches, next is invoked directly and the request escapes
// the routing layer.
func (pr *PathRouter) Process(c Context, next Next) error {
	d := &dispatch{c: c, next: next}

	rctx := chi.NewRouteContext()
	ctx := context.WithValue(context.Background(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, dispatchKey{}, d)

	r := (&http.Request{
		Method: c.Method(),
		URL:    &url.URL{Path: c.Path()},
	}).WithContext(ctx)

	pr.mux.ServeHTTP(discardWriter{}, r)

	if !d.matched {
		return next()
	}
	return d.err
}

// methodAll keys stacks that serve every method.
const methodAll = "*"

// push appends mw to the stack for (method, path), installing the stack
// on the mux the first time the pair is seen.
func (pr *PathRouter) push(method, path string, mw Middleware) {
	pattern := translatePattern(path)
	key := method + " " + pattern

	st, ok := pr.stacks[key]
	if !ok {
		st = &stack{}
		pr.stacks[key] = st
		h := pr.adapt(st)
		for _, p := range expandPattern(pattern) {
			if method == methodAll {
				pr.mux.Handle(p, h)
			} else {
				pr.mux.Method(method, p, h)
			}
		}
	}
	st.mws = append(st.mws, mw)
}

// adapt bridges a stack into a chi handler. The live Context and Next
// travel through the synthetic request's context; chi only decides which
// stack runs and supplies URL parameters.
func (pr *PathRouter) adapt(st *stack) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d := dispatchFrom(r)
		if d == nil {
			return
		}
		d.matched = true
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			d.c.(*reqContext).setRouteContext(rctx)
		}
		d.err = st.invoke(d.c, d.next)
	}
}

// dispatch carries one Process call through the mux.
type dispatch struct {
	c       Context
	next    Next
	err     error
	matched bool
}

type dispatchKey struct{}

func dispatchFrom(r *http.Request) *dispatch {
	d, _ := r.Context().Value(dispatchKey{}).(*dispatch)
	return d
}

// discardWriter satisfies http.ResponseWriter for the synthetic dispatch
// request; the real response goes through the Context.
type discardWriter struct{}

func (discardWriter) Header() http.Header         { return http.Header{} }
func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (discardWriter) WriteHeader(int)             {}

// translatePattern converts the route path grammar to chi syntax:
// "^/prefix" becomes a wildcard subtree and ":name" segments become
// "{name}" parameters. Paths already in chi syntax pass through.
func translatePattern(p string) string {
	wildcard := false
	if strings.HasPrefix(p, "^/") {
		p = strings.TrimPrefix(p, "^")
		wildcard = true
	}
	if strings.Contains(p, ":") {
		segs := strings.Split(p, "/")
		for i, s := range segs {
			if strings.HasPrefix(s, ":") {
				segs[i] = "{" + s[1:] + "}"
			}
		}
		p = strings.Join(segs, "/")
	}
	if wildcard && !strings.HasSuffix(p, "*") {
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		p += "*"
	}
	return p
}

// expandPattern returns the mux patterns to register for one route path.
// A wildcard subtree "/prefix/*" also answers at "/prefix" itself.
func expandPattern(pattern string) []string {
	base, ok := strings.CutSuffix(pattern, "/*")
	if !ok || base == "" {
		return []string{pattern}
	}
	return []string{pattern, base}
}

// mountBase derives the execution context base from a route path:
// the wildcard and parameter tail is trimmed, "^/chat" mounts at "/chat".
func mountBase(path string) string {
	path = strings.TrimPrefix(path, "^")
	if i := strings.IndexAny(path, ":*{"); i >= 0 {
		path = path[:i]
	}
	if path != "/" {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "" {
		path = "/"
	}
	return path
}
