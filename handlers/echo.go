package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrymomot/relay/internal"
)

// Echo builds a diagnostic handler that reflects the request line,
// hostname and client address as plain text. Config is ignored.
func Echo(ec *internal.ExecContext, cfg any) (internal.Middleware, error) {
	return func(c internal.Context, next internal.Next) error {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s", c.Method(), c.Path())
		if qs := c.Querystring(); qs != "" {
			fmt.Fprintf(&b, "?%s", qs)
		}
		fmt.Fprintf(&b, "\nhost: %s\nhostname: %s\nip: %s\nsecure: %t\n",
			c.Host(), c.Hostname(), c.IP(), c.Secure())
		if site := c.Site(); site != "" {
			fmt.Fprintf(&b, "site: %s\n", site)
		}

		c.SetStatus(http.StatusOK)
		_ = c.SetType("text/plain; charset=utf-8")
		c.SetBody([]byte(b.String()))
		return nil
	}, nil
}
