// Package config parses the declarative route document.
//
// The document maps host patterns to path entries and path entries to
// handler configs. Order is semantic: hosts match first-hit in
// declaration order and handlers stack in declaration order, so parsing
// preserves YAML mapping order instead of decoding into Go maps.
//
//	router:
//	  verbose: bool
//	  routes:
//	    <host-pattern>:
//	      <path-pattern>:
//	        redirect: <url>            # optional; terminal
//	        code: <int>                # optional; default 301
//	        rewrite: [[src, dst], ...] # optional; applied first
//	        <handler-name>: <config>   # zero or more, in order
//
// Host keys surrounded by "/" are regular expressions; path keys
// starting with "^/" are wildcard prefixes. A path entry that is a bare
// string names a single handler with no config.
package config
