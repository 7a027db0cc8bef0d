// Package relay is a configurable HTTP(S) edge server: it routes each
// request by virtual host and URL path to a composable chain of
// handlers (static files, reverse proxy, redirects, rewrites, mounted
// applications) and assembles the response, with WebSocket proxying
// flowing through the same middleware stack.
//
// # Routing
//
// Dispatch is two-level. An ordered host table matches the request
// hostname against exact, list, regex or wildcard patterns; the first
// hit selects a path router, whose patterns ("/users/{id}", "^/static")
// map to middleware stacks. Stacks run in declaration order with a
// cooperative, single-shot next discipline; a request nothing matches
// escapes the routing layer and yields a 404.
//
// # Configuration
//
// Operators drive behavior through a declarative YAML document:
//
//	router:
//	  verbose: true
//	  routes:
//	    /^www\.example\.com$/:
//	      ^/static:
//	        static: {root: public, index: index.html}
//	      ^/api:
//	        proxy: http://127.0.0.1:8080
//	    "*":
//	      ^/:
//	        echo:
//
// relay.LoadFile parses and binds the document; relay.New plus the
// programmatic options covers embedded use. Handlers resolve by name
// from a registry, so custom handlers plug in next to the built-ins.
//
// # WebSocket
//
// The response writer is a state machine that either serializes an HTTP
// response or relinquishes the connection to a WebSocket handshake.
// Only the handler that chooses to upgrade calls Context.Upgrade; the
// rest of the chain is oblivious, so the same routes, rewrites and logs
// apply to WebSocket traffic.
package relay
