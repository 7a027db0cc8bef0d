package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/static"
)

// SetHeadersFunc customizes response headers just before a static file
// streams. It receives the resolved file so callers can branch on path,
// size or modification time.
type SetHeadersFunc func(c internal.Context, file *static.File)

// staticConfig holds the decoded static route options.
type staticConfig struct {
	resolve    static.Options
	setHeaders SetHeadersFunc
	base       string
	maxAge     int
	immutable  bool
	browse     bool
	nolog      bool
}

// Static builds the static file handler. Config is either the root
// directory as a string or a mapping with root, base, browse, nolog,
// index, hidden, gzip, brotli, maxage, immutable, format, extensions and
// setHeaders.
func Static(ec *internal.ExecContext, cfg any) (internal.Middleware, error) {
	sc := staticConfig{
		resolve: static.Options{Brotli: true, Gzip: true},
	}

	switch v := cfg.(type) {
	case string:
		sc.resolve.Root = v
	case map[string]any:
		sc.resolve.Root = strVal(v, "root", "")
		sc.resolve.Index = strVal(v, "index", "")
		sc.resolve.Hidden = boolVal(v, "hidden", false)
		sc.resolve.Brotli = boolVal(v, "brotli", true)
		sc.resolve.Gzip = boolVal(v, "gzip", true)
		sc.resolve.Format = boolVal(v, "format", false)
		sc.resolve.Extensions = strSlice(v, "extensions")
		sc.base = strVal(v, "base", "")
		sc.maxAge = intVal(v, "maxage", 0)
		sc.immutable = boolVal(v, "immutable", false)
		sc.browse = boolVal(v, "browse", false)
		sc.nolog = boolVal(v, "nolog", false)
		if raw, ok := v["setHeaders"]; ok {
			fn, ok := raw.(SetHeadersFunc)
			if !ok {
				if plain, k := raw.(func(internal.Context, *static.File)); k {
					fn = plain
				} else {
					return nil, internal.NewConfigError("", "", "static setHeaders must be callable")
				}
			}
			sc.setHeaders = fn
		}
	default:
		return nil, internal.NewConfigError("", "", "static config must be a root string or a mapping")
	}

	if sc.resolve.Root == "" {
		return nil, internal.NewConfigError("", "", "static handler requires a root")
	}
	if !filepath.IsAbs(sc.resolve.Root) {
		sc.resolve.Root = ec.ResolveFsPath(sc.resolve.Root)
	}

	return sc.middleware, nil
}

func (sc staticConfig) middleware(c internal.Context, next internal.Next) error {
	if c.Method() != http.MethodGet && c.Method() != http.MethodHead {
		return next()
	}
	if sc.nolog {
		c.DisableLogging()
	}

	reqPath := c.Path()
	if sc.base != "" {
		if !strings.HasPrefix(reqPath, sc.base) {
			return next()
		}
		reqPath = strings.TrimPrefix(reqPath, sc.base)
		if reqPath == "" {
			reqPath = "/"
		}
	}

	decoded, err := url.PathUnescape(reqPath)
	if err != nil {
		return internal.ErrBadRequest("malformed path encoding")
	}

	file, err := static.Resolve(decoded, c.Header("Accept-Encoding"), sc.resolve)
	switch {
	case errors.Is(err, static.ErrHidden):
		return next()
	case errors.Is(err, static.ErrTraversal):
		return internal.ErrForbidden("path outside root")
	case errors.Is(err, fs.ErrNotExist):
		return internal.ErrNotFound("file not found")
	case err != nil:
		return internal.ErrInternal("stat failed").Wrap(err)
	}

	if file.IsDir {
		if !sc.browse {
			return next()
		}
		return sc.serveListing(c, file)
	}
	return sc.serveFile(c, file)
}

func (sc staticConfig) serveListing(c internal.Context, file *static.File) error {
	html, err := static.Listing(file.Path, c.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return internal.ErrNotFound("directory not found")
	}
	if err != nil {
		return internal.ErrInternal("listing failed").Wrap(err)
	}
	c.SetStatus(http.StatusOK)
	_ = c.SetType("text/html; charset=utf-8")
	c.SetBody(html)
	c.Log("static browse", slog.String("dir", file.Path))
	return nil
}

func (sc staticConfig) serveFile(c internal.Context, file *static.File) error {
	if err := sc.setFileHeaders(c, file); err != nil {
		return err
	}
	if sc.setHeaders != nil {
		sc.setHeaders(c, file)
	}

	if rangeHeader := c.Header("Range"); rangeHeader != "" {
		return sc.serveRange(c, file, rangeHeader)
	}

	_ = c.SetHeader("Content-Length", strconv.FormatInt(file.Size, 10))
	c.SetStatus(http.StatusOK)
	if c.Method() == http.MethodHead {
		return nil
	}

	f, err := os.Open(file.Path)
	if err != nil {
		return internal.ErrInternal("open failed").Wrap(err)
	}
	c.SetBodyStream(f, file.Size)
	c.Log("static",
		slog.String("file", file.Path),
		slog.Int64("size", file.Size),
	)
	return nil
}

// serveRange answers 206 for a satisfiable range and 416 with the whole
// file as a courtesy body otherwise.
func (sc staticConfig) serveRange(c internal.Context, file *static.File, header string) error {
	rng, err := static.ParseRange(header, file.Size)
	if err != nil {
		_ = c.SetHeader("Content-Range", fmt.Sprintf("bytes */%d", file.Size))
		_ = c.SetHeader("Content-Length", strconv.FormatInt(file.Size, 10))
		c.SetStatus(http.StatusRequestedRangeNotSatisfiable)
		if c.Method() == http.MethodHead {
			return nil
		}
		f, openErr := os.Open(file.Path)
		if openErr != nil {
			return internal.ErrInternal("open failed").Wrap(openErr)
		}
		c.SetBodyStream(f, file.Size)
		return nil
	}

	_ = c.SetHeader("Content-Range", fmt.Sprintf("bytes %d-%d/%d", rng.Start, rng.End, file.Size))
	_ = c.SetHeader("Content-Length", strconv.FormatInt(rng.Length(), 10))
	c.SetStatus(http.StatusPartialContent)
	if c.Method() == http.MethodHead {
		return nil
	}

	f, err := os.Open(file.Path)
	if err != nil {
		return internal.ErrInternal("open failed").Wrap(err)
	}
	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		_ = f.Close()
		return internal.ErrInternal("seek failed").Wrap(err)
	}
	c.SetBodyStream(newSliceReader(f, rng.Length()), rng.Length())
	c.Log("static range",
		slog.String("file", file.Path),
		slog.String("range", fmt.Sprintf("%d-%d", rng.Start, rng.End)),
	)
	return nil
}

// setFileHeaders applies the negotiated entity headers, leaving validator
// and cache headers alone when outer middleware already set them.
func (sc staticConfig) setFileHeaders(c internal.Context, file *static.File) error {
	if err := c.SetHeader("Accept-Ranges", "bytes"); err != nil {
		return err
	}
	if file.Encoding != "" {
		_ = c.DelHeader("Content-Length")
		if err := c.SetHeader("Content-Encoding", file.Encoding); err != nil {
			return err
		}
	}
	if file.ContentType != "" {
		_ = c.SetType(file.ContentType)
	}
	h := c.Response().Header()
	if h.Get("Last-Modified") == "" {
		_ = c.SetHeader("Last-Modified", file.ModTime.UTC().Format(http.TimeFormat))
	}
	if h.Get("Cache-Control") == "" {
		cache := "max-age=" + strconv.Itoa(sc.maxAge/1000)
		if sc.immutable {
			cache += ", immutable"
		}
		_ = c.SetHeader("Cache-Control", cache)
	}
	return nil
}

// sliceReader limits a file stream to a byte range and closes the
// underlying file.
type sliceReader struct {
	io.Reader
	f *os.File
}

func newSliceReader(f *os.File, n int64) *sliceReader {
	return &sliceReader{Reader: io.LimitReader(f, n), f: f}
}

func (s *sliceReader) Close() error { return s.f.Close() }
