// Package middlewares provides cross-cutting middleware for the edge
// server: request IDs, panic recovery and access logging.
//
// Middleware here runs on the server's global chain, before host
// routing. Each constructor takes functional options and returns an
// internal.Middleware:
//
//	srv := relay.New(
//	    relay.WithMiddleware(
//	        middlewares.RequestID(),
//	        middlewares.Recover(),
//	        middlewares.AccessLog(),
//	    ),
//	)
//
// Order matters: RequestID should run first so recovery and access logs
// carry the ID; Recover should wrap everything that can panic.
package middlewares
