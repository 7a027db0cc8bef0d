package handlers_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/config"
)

// loadServer builds a bound server from a YAML route document.
func loadServer(t *testing.T, yaml string, opts ...relay.Option) *relay.Server {
	t.Helper()
	doc, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	srv, err := relay.Load(doc, opts...)
	require.NoError(t, err)
	return srv
}

func doReq(srv *relay.Server, method, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func staticServer(t *testing.T, root string, extra string) *relay.Server {
	t.Helper()
	return loadServer(t, fmt.Sprintf(`
router:
  routes:
    "*":
      ^/static:
        static: {root: %q, base: /static%s}
`, root, extra))
}

func TestStatic_ServeFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi\n"), 0o644))
	srv := staticServer(t, root, "")

	rec := doReq(srv, http.MethodGet, "/static/hello.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get("Content-Length"))
	require.Equal(t, "hi\n", rec.Body.String())
	require.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	require.NotEmpty(t, rec.Header().Get("Last-Modified"))
	require.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
}

func TestStatic_PrecompressedPrecedence(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt.br"), []byte("BRDATA"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt.gz"), []byte("GZDATA"), 0o644))
	srv := staticServer(t, root, "")

	rec := doReq(srv, http.MethodGet, "/static/hello.txt", http.Header{
		"Accept-Encoding": {"gzip, br"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "br", rec.Header().Get("Content-Encoding"))
	require.Equal(t, "BRDATA", rec.Body.String())
}

func TestStatic_TraversalBlocked(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.txt"), []byte("x"), 0o644))
	srv := staticServer(t, root, "")

	rec := doReq(srv, http.MethodGet, "/static/../etc/passwd", nil)
	require.Contains(t, []int{http.StatusForbidden, http.StatusNotFound}, rec.Code)
	require.NotContains(t, rec.Body.String(), "root:")
}

func TestStatic_BadPercentEncoding(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	srv := staticServer(t, root, "")

	// Invalid escapes never survive url.Parse, so inject the raw path the
	// way a misbehaving client would present it after transport decoding.
	req := httptest.NewRequest(http.MethodGet, "/static/x", nil)
	req.URL.Path = "/static/bad%zz"
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatic_RangeRoundTrip(t *testing.T) {
	t.Parallel()

	content := []byte("The quick brown fox jumps over the lazy dog")
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "fox.txt"), content, 0o644))
	srv := staticServer(t, root, "")

	n := len(content) / 2

	first := doReq(srv, http.MethodGet, "/static/fox.txt", http.Header{
		"Range": {fmt.Sprintf("bytes=0-%d", n-1)},
	})
	require.Equal(t, http.StatusPartialContent, first.Code)
	require.Equal(t, fmt.Sprintf("bytes 0-%d/%d", n-1, len(content)), first.Header().Get("Content-Range"))

	second := doReq(srv, http.MethodGet, "/static/fox.txt", http.Header{
		"Range": {fmt.Sprintf("bytes=%d-", n)},
	})
	require.Equal(t, http.StatusPartialContent, second.Code)

	// The concatenation of both ranges is the whole file.
	require.Equal(t, string(content), first.Body.String()+second.Body.String())
}

func TestStatic_UnsatisfiableRange(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("0123456789"), 0o644))
	srv := staticServer(t, root, "")

	rec := doReq(srv, http.MethodGet, "/static/f.txt", http.Header{
		"Range": {"bytes=99-"},
	})
	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	require.Equal(t, "bytes */10", rec.Header().Get("Content-Range"))
	// The whole file streams as a courtesy body.
	require.Equal(t, "0123456789", rec.Body.String())
}

func TestStatic_Head(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc.txt"), []byte("abcdef"), 0o644))
	srv := staticServer(t, root, "")

	rec := doReq(srv, http.MethodHead, "/static/doc.txt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "6", rec.Header().Get("Content-Length"))
	require.Empty(t, rec.Body.String())
}

func TestStatic_CacheHeaders(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "v.css"), []byte("a{}"), 0o644))
	srv := staticServer(t, root, ", maxage: 3600000, immutable: true")

	rec := doReq(srv, http.MethodGet, "/static/v.css", nil)
	require.Equal(t, "max-age=3600, immutable", rec.Header().Get("Cache-Control"))
}

func TestStatic_IndexAndBrowse(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "dir", "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>home</h1>"), 0o644))

	t.Run("index on trailing slash", func(t *testing.T) {
		t.Parallel()
		srv := staticServer(t, root, `, index: index.html`)
		rec := doReq(srv, http.MethodGet, "/static/", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "<h1>home</h1>", rec.Body.String())
	})

	t.Run("browse listing", func(t *testing.T) {
		t.Parallel()
		srv := staticServer(t, root, `, browse: true`)
		rec := doReq(srv, http.MethodGet, "/static/dir", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		require.Contains(t, rec.Body.String(), "a.txt")
	})

	t.Run("directory falls through without browse", func(t *testing.T) {
		t.Parallel()
		srv := staticServer(t, root, "")
		rec := doReq(srv, http.MethodGet, "/static/dir", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestStatic_MissingRoot(t *testing.T) {
	t.Parallel()

	doc, err := config.Parse([]byte(`
router:
  routes:
    "*":
      ^/: static
`))
	require.NoError(t, err)
	_, err = relay.Load(doc)
	var cfgErr *relay.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestStatic_NonGetFallsThrough(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.txt"), []byte("x"), 0o644))
	srv := staticServer(t, root, "")

	rec := doReq(srv, http.MethodPost, "/static/f.txt", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
