package projector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/postsync/internal/post"
)

// fakeStore is an in-memory Store. FetchAll captures the collection before
// waiting on fetchGate, so a gated read returns what was stored when it was
// issued.
type fakeStore struct {
	mu        sync.Mutex
	posts     []post.Post
	fetchGate chan struct{}
	fetching  chan struct{} // receives once a FetchAll has captured its result
	fetchErr  error
	writeErr  error
	writes    int
}

func (f *fakeStore) FetchAll(ctx context.Context) ([]post.Post, error) {
	f.mu.Lock()
	snapshot := post.CloneAll(f.posts)
	gate := f.fetchGate
	err := f.fetchErr
	started := f.fetching
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (f *fakeStore) Insert(ctx context.Context, p post.Post) (post.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return post.Post{}, f.writeErr
	}
	f.writes++
	rec := p.WithDefaults()
	f.posts = append([]post.Post{rec}, f.posts...)
	return rec, nil
}

func (f *fakeStore) Update(ctx context.Context, p post.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	for i := range f.posts {
		if f.posts[i].ID == p.ID {
			f.posts[i].Caption = p.Caption
		}
	}
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeStore) ReplaceAll(ctx context.Context, posts []post.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.posts = post.CloneAll(posts)
	return nil
}

func (f *fakeStore) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// fakeSyncer answers Synchronize and Pull with a fixed collection.
type fakeSyncer struct {
	mu       sync.Mutex
	remote   []post.Post
	err      error
	syncGate chan struct{}
	syncs    int
}

func (f *fakeSyncer) Synchronize(ctx context.Context) ([]post.Post, error) {
	f.mu.Lock()
	f.syncs++
	gate := f.syncGate
	remote, err := post.CloneAll(f.remote), f.err
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return remote, nil
}

func (f *fakeSyncer) Pull(ctx context.Context) ([]post.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return post.CloneAll(f.remote), nil
}

// startProjector runs p until the test ends.
func startProjector(t *testing.T, p *Projector) *Projector {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p
}

// acceptAll skips schema validation for tests that exercise the loop only.
func acceptAll(post.Post) error { return nil }

func await(t *testing.T, task *Task) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := task.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "task %s did not resolve", task.Op())
	return err
}

func ids(s State) []int64 {
	return post.IDs(s.Records())
}
