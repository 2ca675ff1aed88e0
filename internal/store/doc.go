// Package store provides SQLite-backed durable storage for posts.
//
// The store is the single source of truth on the device. It owns one table,
// posts, whose columns mirror the remote protocol's field names.
//
// # Critical Patterns
//
// Lazy, idempotent initialization
//   - Open only connects; the schema is created by Init
//   - Every operation calls Init first; Init is guarded by a mutex and becomes
//     a no-op once it has succeeded, so concurrent first use is safe
//
// Ordering
//   - FetchAll orders by timestamp DESC, id DESC (newest first)
//   - timestamp is fixed-width ISO-8601 UTC text, so lexical order is
//     chronological order; id breaks ties deterministically
//
// Opaque blobs
//   - comments and reactions are stored as the JSON text they arrived as and
//     returned verbatim; the store never parses them
//
// Errors
//   - Every failure is a *post.StorageError naming the operation; a missing
//     id on Insert is a *post.ValidationError
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - One open connection: SQLite has a single writer
package store
