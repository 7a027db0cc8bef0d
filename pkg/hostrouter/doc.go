// Package hostrouter provides ordered host-based routing patterns.
//
// A routing table pairs host patterns with arbitrary values; lookup walks
// the table in declaration order and returns the first match. Pattern
// variants form a closed set:
//
//   - Exact: "api.example.com" matches only that host
//   - List: "a.example.com,b.example.com" matches membership
//   - Regexp: "/^www\.example\.(com|org)$/" matches the expression,
//     with optional trailing flags ("/expr/i")
//   - Any: "*" matches everything; placed last it is the default site
//
// Matching is case-insensitive and ports are stripped before matching.
// Punycode hostnames are converted to their IDN unicode form, so regex
// patterns written against unicode labels match either spelling.
//
// # Usage
//
//	var table hostrouter.Table[http.Handler]
//	p, _ := hostrouter.Parse("api.example.com")
//	table.Add(p, apiHandler)
//	p, _ = hostrouter.Parse("*")
//	table.Add(p, defaultHandler)
//
//	if h, pattern, ok := table.Match(hostrouter.Unicode(req.Host)); ok {
//	    ...
//	}
//
// Tables are built at startup and immutable afterwards; Match is safe for
// concurrent use.
package hostrouter
