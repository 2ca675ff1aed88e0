// Package harness runs YAML scenarios against a live projector.
//
// Each scenario gets a fresh in-memory store, a stepped clock, a fixed sync
// token and an HTTP remote that either answers with a canned response or
// serves a reference remote over its own store. The flow steps are dispatched
// to the projector one at a time and awaited, so the final state is
// deterministic and can be compared against golden files.
//
// # Scenario Format
//
//	name: sync_replace
//	description: "A sync swaps the local collection for the remote's"
//	sync_token: test-sync-001
//	seed:
//	  - { id: 1, caption: one }
//	remote:
//	  status: 200
//	  posts:
//	    - { id: 2, caption: two, timestamp: "2024-02-01T00:00:00Z" }
//	flow:
//	  - op: load
//	  - op: sync
//	assertions:
//	  - type: ids
//	    ids: [2]
//
// # Flow Operations
//
//   - load, sync, pull: no arguments
//   - create: post
//   - submit: image, caption
//   - modify: id plus any of image, caption, likes
//   - remove, like, dislike: id
//
// A step that sets expect_error must fail with an error containing that text;
// any other step must succeed.
//
// # Assertion Types
//
//   - ids: projection ids in display order
//   - stored_ids: store ids in FetchAll order
//   - status: projection status (idle, loading, succeeded, failed)
//   - last_error: projection error contains the given text
//   - no_error: projection error is empty
//   - liked, likes, sync_state: per-post checks on the projection
//   - unchanged: the store digest equals the digest right after seeding
//   - requests: number of requests the remote received
//   - pushed_ids: ids in the body of the last POST
package harness
