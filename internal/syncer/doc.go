// Package syncer reconciles the local record store with the remote
// authoritative store.
//
// A Client speaks the remote protocol: one POST of the full local collection,
// answered with the authoritative collection. A Coordinator strings the
// steps of one reconciliation together: read every local post, push them,
// and return what the remote answered with defaults applied and every record
// marked Synced. The Coordinator never writes back; landing the result in the
// store is the caller's job (see projector.SynchronizeAll).
//
// Nothing here retries. A failed sync returns a *post.SyncError and leaves
// local state as it was.
package syncer
