package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/config"
	"github.com/dmitrymomot/relay/internal"
)

// registerMark registers a handler that appends its name to trace and
// falls through.
func registerMark(t *testing.T, s *internal.Server, name string, trace *[]string, terminal bool) {
	t.Helper()
	err := s.RegisterHandler(name, func(ec *internal.ExecContext, cfg any) (internal.Middleware, error) {
		return func(c internal.Context, next internal.Next) error {
			*trace = append(*trace, name)
			if terminal {
				c.SetStatus(http.StatusOK)
				return nil
			}
			return next()
		}, nil
	})
	require.NoError(t, err)
}

func serve(t *testing.T, s *internal.Server, method, target, host string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if host != "" {
		req.Host = host
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestBind_SingleStackInDeclaredOrder(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    "*":
      ^/:
        path1:
        path2:
`))
	require.NoError(t, err)

	var trace []string
	s := internal.New()
	registerMark(t, s, "path1", &trace, false)
	registerMark(t, s, "path2", &trace, true)
	require.NoError(t, internal.Bind(s, doc))
	require.Equal(t, 2, s.RouteCount())

	rec := serve(t, s, http.MethodGet, "/x", "anything.example")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"path1", "path2"}, trace)
}

func TestBind_HostOrder(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    /^www\.example\.com$/:
      ^/: first
    www.example.com:
      ^/: second
    "*":
      ^/: fallback
`))
	require.NoError(t, err)

	var trace []string
	s := internal.New()
	registerMark(t, s, "first", &trace, true)
	registerMark(t, s, "second", &trace, true)
	registerMark(t, s, "fallback", &trace, true)
	require.NoError(t, internal.Bind(s, doc))

	serve(t, s, http.MethodGet, "/", "www.example.com")
	require.Equal(t, []string{"first"}, trace, "first matching pattern wins; later patterns see nothing")

	trace = nil
	serve(t, s, http.MethodGet, "/", "other.example.com")
	require.Equal(t, []string{"fallback"}, trace)
}

func TestBind_ListHostPattern(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    a.example.com,b.example.com:
      ^/: hit
`))
	require.NoError(t, err)

	var trace []string
	s := internal.New()
	registerMark(t, s, "hit", &trace, true)
	require.NoError(t, internal.Bind(s, doc))

	require.Equal(t, http.StatusOK, serve(t, s, http.MethodGet, "/", "b.example.com").Code)
	require.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/", "c.example.com").Code)
}

func TestBind_Redirect(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    "*":
      /old:
        redirect: https://example.com/new
        code: 302
`))
	require.NoError(t, err)

	s := internal.New()
	require.NoError(t, internal.Bind(s, doc))

	rec := serve(t, s, http.MethodGet, "/old", "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "https://example.com/new", rec.Header().Get("Location"))
}

func TestBind_RewriteThenHandler(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    "*":
      ^/api:
        rewrite: [["/api", ""]]
        record:
`))
	require.NoError(t, err)

	var sawPath string
	s := internal.New()
	err = s.RegisterHandler("record", func(ec *internal.ExecContext, cfg any) (internal.Middleware, error) {
		return func(c internal.Context, next internal.Next) error {
			sawPath = c.Path()
			c.SetStatus(http.StatusNoContent)
			return nil
		}, nil
	})
	require.NoError(t, err)
	require.NoError(t, internal.Bind(s, doc))

	serve(t, s, http.MethodGet, "/api/users", "")
	require.Equal(t, "/users", sawPath)
}

func TestBind_UnknownHandler(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    "*":
      ^/: bogus
`))
	require.NoError(t, err)

	s := internal.New()
	err = internal.Bind(s, doc)
	var cfgErr *internal.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "*", cfgErr.Host)
	require.Equal(t, "^/", cfgErr.Path)
}

func TestBind_BadRegexHost(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    /^(unclosed/:
      ^/: echoish
`))
	require.NoError(t, err)

	s := internal.New()
	var trace []string
	registerMark(t, s, "echoish", &trace, true)
	require.Error(t, internal.Bind(s, doc))
}

func TestBind_EmptyRoute(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    "*":
      /nothing: {}
`))
	require.NoError(t, err)

	s := internal.New()
	err = internal.Bind(s, doc)
	var cfgErr *internal.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
