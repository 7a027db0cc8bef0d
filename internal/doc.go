// Package internal implements the edge server core: the request
// context, the middleware chain composer, the two-level router, the
// upgradable response writer, the handler registry, execution contexts
// for mounted applications, and config binding.
//
// The public API is exposed through the root relay package via type
// aliases. Code in this package is not importable by users.
package internal
