package static

import (
	"fmt"
	"html"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
)

// Listing renders a minimal HTML index for a directory. Entries are
// classified with a trailing "/" for subdirectories; a parent link is
// included except at the site root. Per-entry stat failures are
// classified the same way as file resolution.
func Listing(dir, urlPath string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, classifyStatError(err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		info, err := e.Info()
		if err != nil {
			return nil, classifyStatError(err)
		}
		if info.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if !strings.HasSuffix(urlPath, "/") {
		urlPath += "/"
	}

	var b strings.Builder
	title := html.EscapeString(urlPath)
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html>\n<head><title>Index of %s</title></head>\n<body>\n", title)
	fmt.Fprintf(&b, "<h1>Index of %s</h1>\n<ul>\n", title)

	if urlPath != "/" {
		parent := path.Dir(strings.TrimSuffix(urlPath, "/"))
		if parent != "/" {
			parent += "/"
		}
		fmt.Fprintf(&b, "<li><a href=%q>../</a></li>\n", parent)
	}

	for _, name := range names {
		href := urlPath + url.PathEscape(strings.TrimSuffix(name, "/"))
		if strings.HasSuffix(name, "/") {
			href += "/"
		}
		fmt.Fprintf(&b, "<li><a href=%q>%s</a></li>\n", href, html.EscapeString(name))
	}

	b.WriteString("</ul>\n</body>\n</html>\n")
	return []byte(b.String()), nil
}
