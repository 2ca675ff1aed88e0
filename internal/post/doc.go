// Package post provides the record model shared by every postsync component.
//
// This package contains the Post type, its defaults, the error taxonomy and the
// canonical JSON encoding used for snapshots and digests. All other internal
// packages import post; post imports nothing internal.
//
// Key design constraints:
//   - ID is caller-assigned and never rewritten by the store
//   - Comments and Reactions are opaque Blobs, persisted and returned verbatim
//   - JSON tags use the remote protocol's camelCase names (userId, imageUrl, ...)
//   - SyncState is Pending until a successful reconciliation marks it Synced
package post
