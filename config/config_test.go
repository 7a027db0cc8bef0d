package config_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/config"
)

func TestParse_PreservesOrder(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  verbose: true
  routes:
    zeta.example.com:
      ^/: echo
    alpha.example.com:
      ^/: echo
    "*":
      ^/: echo
`))
	require.NoError(t, err)
	require.True(t, doc.Router.Verbose)
	require.Len(t, doc.Router.Routes, 3)
	require.Equal(t, "zeta.example.com", doc.Router.Routes[0].Host)
	require.Equal(t, "alpha.example.com", doc.Router.Routes[1].Host)
	require.Equal(t, "*", doc.Router.Routes[2].Host)
}

func TestParse_HandlerForms(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    example.com:
      ^/static:
        static: /var/www
      ^/api:
        proxy:
          upstream: http://127.0.0.1:8080
          websocket: true
          timeout: 5000
      ^/echo: echo
`))
	require.NoError(t, err)
	require.Len(t, doc.Router.Routes, 1)
	paths := doc.Router.Routes[0].Paths
	require.Len(t, paths, 3)

	require.Equal(t, "^/static", paths[0].Path)
	require.Len(t, paths[0].Handlers, 1)
	require.Equal(t, "static", paths[0].Handlers[0].Name)
	require.Equal(t, "/var/www", paths[0].Handlers[0].Config)

	require.Equal(t, "proxy", paths[1].Handlers[0].Name)
	cfg, ok := paths[1].Handlers[0].Config.(map[string]any)
	require.True(t, ok)
	require.Equal(t, "http://127.0.0.1:8080", cfg["upstream"])
	require.Equal(t, true, cfg["websocket"])
	require.Equal(t, 5000, cfg["timeout"])

	// Bare string shorthand names a handler with no config.
	require.Equal(t, "echo", paths[2].Handlers[0].Name)
	require.Nil(t, paths[2].Handlers[0].Config)
}

func TestParse_RouteFields(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    example.com:
      /old:
        redirect: /new
        code: 308
      ^/blog:
        rewrite: [["/blog", "/articles"], ["//", "/"]]
        static: www
`))
	require.NoError(t, err)
	paths := doc.Router.Routes[0].Paths

	require.Equal(t, "/new", paths[0].Redirect)
	require.Equal(t, 308, paths[0].Code)
	require.Empty(t, paths[0].Handlers)

	require.Equal(t, [][2]string{{"/blog", "/articles"}, {"//", "/"}}, paths[1].Rewrites)
	require.Len(t, paths[1].Handlers, 1)
}

func TestParse_MultipleHandlersKeepOrder(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    "*":
      ^/:
        static: www
        proxy: http://127.0.0.1:3000
`))
	require.NoError(t, err)
	handlers := doc.Router.Routes[0].Paths[0].Handlers
	require.Len(t, handlers, 2)
	require.Equal(t, "static", handlers[0].Name)
	require.Equal(t, "proxy", handlers[1].Name)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse(nil)
	require.NoError(t, err)
	require.Empty(t, doc.Router.Routes)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("router: [not, a, mapping]"))
	require.Error(t, err)

	_, err = config.Parse([]byte("\t: bad"))
	require.Error(t, err)
}
