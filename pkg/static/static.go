package static

import (
	"errors"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Resolution failures the caller maps to HTTP statuses.
var (
	// ErrTraversal marks a path that attempts to escape the root.
	ErrTraversal = errors.New("static: path escapes root")

	// ErrHidden marks a path with a dot-prefixed segment while hidden
	// files are disabled. Callers fall through.
	ErrHidden = errors.New("static: hidden path segment")
)

// Options control resolution under a root.
type Options struct {
	// Root is the directory files are served from. Required.
	Root string

	// Index is appended to directory requests ("index.html" style).
	Index string

	// Extensions are tried in order when the request basename has none.
	Extensions []string

	// Hidden allows dot-prefixed path segments.
	Hidden bool

	// Brotli and Gzip enable precompressed sibling lookup
	// (<path>.br, <path>.gz).
	Brotli bool
	Gzip   bool

	// Format appends "/<Index>" when the resolved path is a directory.
	Format bool
}

// File is a resolved response source.
type File struct {
	// Path is the filesystem path to stream.
	Path string

	// Size and ModTime come from the stat.
	Size    int64
	ModTime time.Time

	// Encoding is "br", "gzip", or empty when the original file was
	// chosen.
	Encoding string

	// ContentType is derived from the extension, ignoring the encoding
	// suffix.
	ContentType string

	// IsDir marks a directory hit that neither Format nor Index resolved;
	// the caller may render a listing.
	IsDir bool
}

// Resolve maps a decoded URL path to a file under root, negotiating
// precompressed variants against the Accept-Encoding header and applying
// index and extension fallbacks.
//
// Errors: ErrTraversal for escape attempts, ErrHidden for dot segments,
// fs.ErrNotExist (wrapped) for the not-found class (no entry, name too
// long, not a directory); anything else is an I/O failure.
func Resolve(urlPath, acceptEncoding string, o Options) (*File, error) {
	if containsDotDot(urlPath) {
		return nil, ErrTraversal
	}
	if strings.HasSuffix(urlPath, "/") && o.Index != "" {
		urlPath += o.Index
	}
	if !o.Hidden && hasHiddenSegment(urlPath) {
		return nil, ErrHidden
	}

	fsPath, err := contain(o.Root, urlPath)
	if err != nil {
		return nil, err
	}

	// Precompressed negotiation: br wins over gzip when both exist and
	// the client accepts both.
	encoding := ""
	if o.Brotli && Accepts(acceptEncoding, "br") && regularFileExists(fsPath+".br") {
		fsPath += ".br"
		encoding = "br"
	} else if o.Gzip && Accepts(acceptEncoding, "gzip") && regularFileExists(fsPath+".gz") {
		fsPath += ".gz"
		encoding = "gzip"
	}

	if encoding == "" && filepath.Ext(fsPath) == "" && len(o.Extensions) > 0 && !regularFileExists(fsPath) {
		for _, ext := range o.Extensions {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			if regularFileExists(fsPath + ext) {
				fsPath += ext
				break
			}
		}
	}

	fi, err := os.Stat(fsPath)
	if err != nil {
		return nil, classifyStatError(err)
	}

	if fi.IsDir() {
		if o.Format && o.Index != "" {
			fsPath = filepath.Join(fsPath, o.Index)
			fi, err = os.Stat(fsPath)
			if err != nil {
				return nil, classifyStatError(err)
			}
		} else {
			return &File{Path: fsPath, IsDir: true}, nil
		}
	}

	return &File{
		Path:        fsPath,
		Size:        fi.Size(),
		ModTime:     fi.ModTime(),
		Encoding:    encoding,
		ContentType: contentType(fsPath, encoding),
	}, nil
}

// contain resolves urlPath under root, guaranteeing the result stays
// lexically inside it.
func contain(root, urlPath string) (string, error) {
	cleaned := path.Clean("/" + urlPath)
	fsPath := filepath.Join(root, filepath.FromSlash(cleaned))

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(fsPath)
	if err != nil {
		return "", err
	}
	if abs != absRoot && !strings.HasPrefix(abs, absRoot+string(filepath.Separator)) {
		return "", ErrTraversal
	}
	return fsPath, nil
}

func containsDotDot(p string) bool {
	for seg := range strings.SplitSeq(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func hasHiddenSegment(p string) bool {
	for seg := range strings.SplitSeq(p, "/") {
		if len(seg) > 1 && seg[0] == '.' && seg != ".." {
			return true
		}
	}
	return false
}

func regularFileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}

// classifyStatError folds the not-found class (no entry, name too long,
// not a directory) into fs.ErrNotExist; everything else stays an I/O
// error for the caller's 500 mapping.
func classifyStatError(err error) error {
	if errors.Is(err, fs.ErrNotExist) || isNameTooLong(err) || isNotDir(err) {
		return errors.Join(fs.ErrNotExist, err)
	}
	return err
}

// contentType resolves the MIME type from the extension, skipping the
// encoding suffix when a precompressed variant was chosen.
func contentType(fsPath, encoding string) string {
	if encoding != "" {
		fsPath = strings.TrimSuffix(strings.TrimSuffix(fsPath, ".br"), ".gz")
	}
	ext := filepath.Ext(fsPath)
	if ext == "" {
		return ""
	}
	return mime.TypeByExtension(ext)
}
