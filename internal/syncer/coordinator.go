package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/postsync/internal/post"
)

// Source is the local side of a sync.
type Source interface {
	FetchAll(ctx context.Context) ([]post.Post, error)
}

// Remote is the remote side of a sync. *Client implements it.
type Remote interface {
	Push(ctx context.Context, posts []post.Post) ([]post.Post, error)
	Pull(ctx context.Context) ([]post.Post, error)
}

// Coordinator runs reconciliations between a Source and a Remote.
type Coordinator struct {
	source Source
	remote Remote
}

// NewCoordinator creates a coordinator.
func NewCoordinator(source Source, remote Remote) *Coordinator {
	return &Coordinator{source: source, remote: remote}
}

// Synchronize reads every local post, pushes the collection, and returns the
// remote's collection with defaults applied and every record marked Synced.
//
// Storage failures are returned as they come from the source
// (*post.StorageError); remote failures as *post.SyncError. Local state is
// never modified here.
func (c *Coordinator) Synchronize(ctx context.Context) ([]post.Post, error) {
	local, err := c.source.FetchAll(ctx)
	if err != nil {
		return nil, asStorageError("fetch all", err)
	}

	remote, err := c.remote.Push(ctx, local)
	if err != nil {
		return nil, asSyncError(err)
	}

	synced, err := markSynced(remote)
	if err != nil {
		return nil, err
	}

	slog.Info("sync completed", "pushed", len(local), "received", len(remote), "kept", len(synced))
	return synced, nil
}

// Pull returns the remote collection, defaulted and marked Synced, without
// reading or pushing local posts.
func (c *Coordinator) Pull(ctx context.Context) ([]post.Post, error) {
	remote, err := c.remote.Pull(ctx)
	if err != nil {
		return nil, asSyncError(err)
	}
	return markSynced(remote)
}

// markSynced applies defaults and marks every record Synced. A record without
// an id rejects the whole answer. Repeated ids collapse to one record at the
// first position, holding the last occurrence, which is what the store keeps
// after writing them in order.
func markSynced(posts []post.Post) ([]post.Post, error) {
	out := make([]post.Post, 0, len(posts))
	seen := make(map[int64]int, len(posts))
	for i, p := range posts {
		if p.ID == 0 {
			return nil, &post.SyncError{Err: fmt.Errorf("remote record %d has no id", i)}
		}
		p = p.WithDefaults()
		p.SyncState = post.Synced

		if j, ok := seen[p.ID]; ok {
			out[j] = p
			continue
		}
		seen[p.ID] = len(out)
		out = append(out, p)
	}
	return out, nil
}

func asStorageError(op string, err error) error {
	if post.IsStorageError(err) {
		return err
	}
	return &post.StorageError{Op: op, Err: err}
}

func asSyncError(err error) error {
	if post.IsSyncError(err) {
		return err
	}
	return &post.SyncError{Err: err}
}
