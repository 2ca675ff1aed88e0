// Package projector owns the in-memory, UI-facing view of the post collection
// and sequences every asynchronous operation against the store and the
// remote.
//
// # Single writer
//
// All state changes happen in the Run loop. Each operation moves through up
// to three phases (requested, fulfilled, rejected), and every phase is an
// event on a FIFO queue that the loop applies atomically:
//
//	LoadAll() ──► requested ──► loop: status=Loading
//	    │
//	    └─ goroutine: store.FetchAll ──► fulfilled ──► loop: posts replaced
//
// I/O runs on its own goroutine, so two operations issued back to back may
// complete in either order. Effects land in completion order, not issue
// order: when a LoadAll and a SynchronizeAll race, whichever finishes last
// wins.
//
// # Tasks
//
// Every operation returns a *Task that resolves after its final phase has
// been applied, so a Snapshot taken after Wait returns observes the effect.
// Tasks cannot be cancelled. The caller's context is detached from its
// cancellation before the I/O starts.
//
// # Failures
//
// Read-driven operations (LoadAll, PullRemote) set Status to Failed and
// record LastError. Write operations (Create, Modify, Remove, SynchronizeAll)
// record LastError and leave the posts and status untouched. Nothing is
// retried.
package projector
