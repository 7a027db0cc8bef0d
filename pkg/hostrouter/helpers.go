package hostrouter

import (
	"strings"

	"golang.org/x/net/idna"
)

// Normalize extracts the hostname from a Host header value.
// Strips the port, preserves IPv6 brackets, and lowercases.
//
// Examples:
//
//	"example.com:8080" -> "example.com"
//	"[::1]:8080" -> "[::1]"
//	"Example.COM" -> "example.com"
func Normalize(host string) string {
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		// Keep the colon when it belongs to an IPv6 literal.
		if !strings.Contains(host[idx:], "]") {
			host = host[:idx]
		}
	}
	return strings.ToLower(host)
}

// Unicode normalizes a Host header value and converts punycode labels to
// their IDN unicode form, so patterns written against unicode hostnames
// match requests sent as xn-- labels. Falls back to the normalized form
// when the conversion fails.
func Unicode(host string) string {
	host = Normalize(host)
	if !strings.Contains(host, "xn--") {
		return host
	}
	u, err := idna.ToUnicode(host)
	if err != nil {
		return host
	}
	return u
}
