package static_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/static"
)

func TestListing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))

	html, err := static.Listing(root, "/files/")
	require.NoError(t, err)

	out := string(html)
	require.Contains(t, out, "Index of /files/")
	require.Contains(t, out, `<a href="/files/a.txt">a.txt</a>`)
	require.Contains(t, out, `<a href="/files/b.txt">b.txt</a>`)
	// Directories are classified with a trailing slash.
	require.Contains(t, out, `<a href="/files/sub/">sub/</a>`)
	// Parent link present below the root.
	require.Contains(t, out, `<a href="/">../</a>`)
}

func TestListing_RootHasNoParentLink(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "x.txt"), []byte("x"), 0o644))

	html, err := static.Listing(root, "/")
	require.NoError(t, err)
	require.NotContains(t, string(html), "../")
}

func TestListing_EscapesNames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "<b>.txt"), []byte("x"), 0o644))

	html, err := static.Listing(root, "/")
	require.NoError(t, err)
	require.Contains(t, string(html), "&lt;b&gt;.txt")
	require.NotContains(t, string(html), "<b>.txt</a>")
}

func TestListing_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := static.Listing(filepath.Join(t.TempDir(), "nope"), "/nope/")
	require.ErrorIs(t, err, fs.ErrNotExist)
}
