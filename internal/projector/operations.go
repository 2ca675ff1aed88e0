package projector

import (
	"context"

	"github.com/roach88/postsync/internal/post"
)

// LoadAll replaces the projection with the store's collection.
func (p *Projector) LoadAll(ctx context.Context) *Task {
	return p.dispatch(ctx, newTask(OpLoadAll), 0, func(ctx context.Context) ([]post.Post, error) {
		return p.store.FetchAll(ctx)
	})
}

// Create persists rec and, on success, prepends the stored record to the
// projection. rec must pass schema validation first; a rejected record
// touches neither the store nor the projection.
func (p *Projector) Create(ctx context.Context, rec post.Post) *Task {
	task := newTask(OpCreate)
	if err := p.validate(rec); err != nil {
		task.resolve(nil, err)
		return task
	}

	rec = rec.Clone()
	return p.dispatch(ctx, task, rec.ID, func(ctx context.Context) ([]post.Post, error) {
		stored, err := p.store.Insert(ctx, rec)
		if err != nil {
			return nil, err
		}
		return []post.Post{stored}, nil
	})
}

// Submit builds a post from a draft and the current identity, then creates
// it.
func (p *Projector) Submit(ctx context.Context, d post.Draft) *Task {
	rec, err := post.FromDraft(d, p.identity.Current(), p.now())
	if err != nil {
		task := newTask(OpCreate)
		task.resolve(nil, err)
		return task
	}
	return p.Create(ctx, rec)
}

// Modify persists the mutable fields of rec and updates the matching entry
// in place. An id missing from the projection leaves it unchanged.
func (p *Projector) Modify(ctx context.Context, rec post.Post) *Task {
	task := newTask(OpModify)
	if err := p.validate(rec); err != nil {
		task.resolve(nil, err)
		return task
	}

	rec = rec.Clone()
	return p.dispatch(ctx, task, rec.ID, func(ctx context.Context) ([]post.Post, error) {
		if err := p.store.Update(ctx, rec); err != nil {
			return nil, err
		}
		return []post.Post{rec}, nil
	})
}

// Remove deletes the post and drops it from the projection.
func (p *Projector) Remove(ctx context.Context, id int64) *Task {
	return p.dispatch(ctx, newTask(OpRemove), id, func(ctx context.Context) ([]post.Post, error) {
		return nil, p.store.Delete(ctx, id)
	})
}

// Like increments the shown like count and marks the post liked.
// The change is never written to the store; the next LoadAll or
// SynchronizeAll discards it.
func (p *Projector) Like(ctx context.Context, id int64) *Task {
	return p.dispatch(ctx, newTask(OpLike), id, nil)
}

// Dislike decrements the shown like count, not below zero, and clears the
// liked flag. Like Like, it only affects the projection.
func (p *Projector) Dislike(ctx context.Context, id int64) *Task {
	return p.dispatch(ctx, newTask(OpDislike), id, nil)
}

// SynchronizeAll pushes the local collection to the remote, writes the
// remote's answer to the store and replaces the projection with it.
//
// This is a full-collection replace: a local post the remote does not echo
// back is gone from both the store and the projection afterwards.
func (p *Projector) SynchronizeAll(ctx context.Context) *Task {
	return p.dispatch(ctx, newTask(OpSynchronize), 0, func(ctx context.Context) ([]post.Post, error) {
		remote, err := p.syncer.Synchronize(ctx)
		if err != nil {
			return nil, err
		}
		if err := p.store.ReplaceAll(ctx, remote); err != nil {
			return nil, err
		}
		return remote, nil
	})
}

// PullRemote replaces the projection with the remote collection without
// pushing or touching the store.
func (p *Projector) PullRemote(ctx context.Context) *Task {
	return p.dispatch(ctx, newTask(OpPull), 0, func(ctx context.Context) ([]post.Post, error) {
		return p.syncer.Pull(ctx)
	})
}
