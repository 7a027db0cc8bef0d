// Package static resolves URL paths to files under a root directory.
//
// Resolution guarantees containment: the returned path is always lexically
// inside the configured root, and escape attempts fail with ErrTraversal
// before any filesystem access. On top of that it layers the usual static
// server negotiations:
//
//   - precompressed variants: when the client accepts br or gzip and a
//     sibling <path>.br or <path>.gz exists, the variant is chosen; br
//     takes precedence over gzip
//   - index files for directory requests, with optional Format mode that
//     re-resolves directories hit without a trailing slash
//   - extension fallback for extensionless request paths
//   - dot-file policy (hidden segments fall through unless enabled)
//
// The package also provides the Range header parser used for 206/416
// handling and a minimal HTML directory listing renderer.
//
// Resolution is purely filesystem-level; mapping outcomes to HTTP
// statuses and streaming the bytes stays with the caller.
package static
