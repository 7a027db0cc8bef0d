package internal

import (
	"log/slog"

	"github.com/dmitrymomot/relay/config"
)

// Bind walks the declarative route document in declaration order and
// installs its redirects, rewrites and handlers on the server's routers.
// The first invalid entry aborts binding with a ConfigError.
func Bind(s *Server, doc *config.Document) error {
	if doc.Router.Verbose {
		s.verbose = true
	}

	for _, host := range doc.Router.Routes {
		pr, err := s.Host(host.Host)
		if err != nil {
			return err
		}
		for _, entry := range host.Paths {
			if err := bindPath(s, pr, host.Host, entry); err != nil {
				return err
			}
		}
	}

	if s.verbose {
		s.logger.Info("routes bound", slog.Int("count", s.routeCount))
	}
	return nil
}

func bindPath(s *Server, pr *PathRouter, host string, entry config.PathEntry) error {
	path := entry.Path
	if path == "" {
		return NewConfigError(host, path, "empty path pattern")
	}

	// Rewrites are consumed first so handlers on the same stack observe
	// the substituted path.
	for _, rw := range entry.Rewrites {
		pr.AddRewrite(path, rw[0], rw[1])
		s.installed(host, path, "rewrite", rw[0]+" -> "+rw[1])
	}

	if entry.Redirect != "" {
		pr.AddRedirect(path, entry.Redirect, entry.Code)
		s.installed(host, path, "redirect", entry.Redirect)
		return nil
	}

	for _, h := range entry.Handlers {
		if err := pr.AddModule(path, h.Name, h.Config); err != nil {
			if cfgErr, ok := err.(*ConfigError); ok && cfgErr.Host == "" {
				cfgErr.Host, cfgErr.Path = host, path
			}
			return err
		}
		s.installed(host, path, h.Name, "")
	}

	if len(entry.Handlers) == 0 && len(entry.Rewrites) == 0 {
		return NewConfigError(host, path, "route has no redirect, rewrite or handler")
	}
	return nil
}

// installed counts a bound route and logs it when verbose.
func (s *Server) installed(host, path, kind, detail string) {
	s.routeCount++
	if !s.verbose {
		return
	}
	attrs := []any{
		slog.String("host", host),
		slog.String("path", path),
		slog.String("handler", kind),
	}
	if detail != "" {
		attrs = append(attrs, slog.String("detail", detail))
	}
	s.logger.Info("route installed", attrs...)
}

// Load builds a server from a parsed document in one call.
func Load(doc *config.Document, opts ...Option) (*Server, error) {
	s := New(opts...)
	if err := Bind(s, doc); err != nil {
		return nil, err
	}
	return s, nil
}
