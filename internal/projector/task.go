package projector

import (
	"context"
	"errors"
	"sync"

	"github.com/roach88/postsync/internal/post"
)

// ErrStopped is returned by tasks whose events could not be applied because
// the projector stopped.
var ErrStopped = errors.New("projector: stopped")

// Op names a projector operation.
type Op string

const (
	OpLoadAll     Op = "loadAll"
	OpCreate      Op = "create"
	OpModify      Op = "modify"
	OpRemove      Op = "remove"
	OpLike        Op = "like"
	OpDislike     Op = "dislike"
	OpSynchronize Op = "synchronizeAll"
	OpPull        Op = "pullRemote"
)

// Task is the handle for one dispatched operation.
//
// A task resolves exactly once, after its fulfilled or rejected phase has
// been applied to the projection.
type Task struct {
	op   Op
	done chan struct{}
	once sync.Once

	err   error
	posts []post.Post
}

func newTask(op Op) *Task {
	return &Task{op: op, done: make(chan struct{})}
}

// Op returns the operation this task runs.
func (t *Task) Op() Op {
	return t.op
}

// Done is closed when the task resolves.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task resolves or ctx is done. A ctx error only stops
// the wait; the operation itself keeps running.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return t.err
	}
}

// Err returns the task's failure, or nil if it succeeded or has not resolved.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Posts returns what the operation produced: the collection for LoadAll,
// SynchronizeAll and PullRemote, the stored record for Create and Modify.
// Nil until the task resolves.
func (t *Task) Posts() []post.Post {
	select {
	case <-t.done:
		return post.CloneAll(t.posts)
	default:
		return nil
	}
}

func (t *Task) resolve(posts []post.Post, err error) {
	t.once.Do(func() {
		t.posts = posts
		t.err = err
		close(t.done)
	})
}
