package projector

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/postsync/internal/post"
	"github.com/roach88/postsync/internal/schema"
)

// Store is the durable side of the projection. *store.Store implements it.
type Store interface {
	FetchAll(ctx context.Context) ([]post.Post, error)
	Insert(ctx context.Context, p post.Post) (post.Post, error)
	Update(ctx context.Context, p post.Post) error
	Delete(ctx context.Context, id int64) error
	ReplaceAll(ctx context.Context, posts []post.Post) error
}

// Syncer reconciles with the remote. *syncer.Coordinator implements it.
type Syncer interface {
	Synchronize(ctx context.Context) ([]post.Post, error)
	Pull(ctx context.Context) ([]post.Post, error)
}

// Projector is the single-writer owner of the in-memory projection.
//
// Thread-safety model:
//   - operations, Snapshot and Subscribe: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//
// Operations only enqueue events; if Run is not running their tasks do not
// resolve until it starts.
type Projector struct {
	store  Store
	syncer Syncer
	queue  *eventQueue
	clock  *Clock

	identity post.IdentityProvider
	now      func() time.Time
	validate func(post.Post) error

	mu    sync.RWMutex
	state State

	subMu sync.Mutex
	subs  map[int]chan State
	subID int
}

// Option configures a Projector.
type Option func(*Projector)

// WithIdentity sets the identity used by Submit.
func WithIdentity(ip post.IdentityProvider) Option {
	return func(p *Projector) {
		p.identity = ip
	}
}

// WithNow sets the wall clock used by Submit to mint ids.
func WithNow(now func() time.Time) Option {
	return func(p *Projector) {
		p.now = now
	}
}

// WithValidator replaces the schema check run before Create and Modify.
func WithValidator(fn func(post.Post) error) Option {
	return func(p *Projector) {
		p.validate = fn
	}
}

// New creates a projector over the given store and syncer. The projection
// starts Idle and empty; call LoadAll to populate it.
func New(s Store, sy Syncer, opts ...Option) *Projector {
	p := &Projector{
		store:    s,
		syncer:   sy,
		queue:    newEventQueue(),
		clock:    NewClock(),
		identity: post.StaticIdentity(post.Identity{ID: post.DefaultOwnerID, Username: post.DefaultAuthorName}),
		now:      time.Now,
		validate: schema.Validate,
		state:    State{Status: Idle, Posts: []Entry{}},
		subs:     make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run applies events until ctx is cancelled or Stop is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
func (p *Projector) Run(ctx context.Context) error {
	slog.Debug("projector starting")
	defer p.drain()

	for {
		if ev, ok := p.queue.TryDequeue(); ok {
			p.apply(ev)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("projector stopping: context cancelled")
			p.queue.Close()
			return ctx.Err()

		case _, open := <-p.queue.Wait():
			if !open && p.queue.Len() == 0 {
				slog.Debug("projector stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the event queue. Run applies what is already queued and
// returns; operations issued afterwards fail with ErrStopped.
func (p *Projector) Stop() {
	p.queue.Close()
}

// drain resolves the tasks of events left behind when Run exits.
func (p *Projector) drain() {
	for {
		ev, ok := p.queue.TryDequeue()
		if !ok {
			return
		}
		if ev.phase != phaseRequested {
			ev.task.resolve(nil, ErrStopped)
		}
	}
}

// Snapshot returns a deep copy of the current projection.
func (p *Projector) Snapshot() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Clone()
}

// Subscribe returns a channel that receives the latest snapshot after each
// applied event, and a function that ends the subscription.
//
// The channel holds one snapshot; a slow reader skips intermediate states
// and always sees the newest.
func (p *Projector) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	p.subMu.Lock()
	id := p.subID
	p.subID++
	p.subs[id] = ch
	p.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, id)
			p.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (p *Projector) publish(s State) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	for _, ch := range p.subs {
		// Drop the stale snapshot, if any, then offer the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.Clone():
		default:
		}
	}
}

// dispatch enqueues the requested phase and runs io on its own goroutine.
// io's result is enqueued as the fulfilled or rejected phase. A nil io
// fulfills immediately with no payload.
func (p *Projector) dispatch(ctx context.Context, task *Task, id int64, io func(ctx context.Context) ([]post.Post, error)) *Task {
	if !p.queue.Enqueue(event{phase: phaseRequested, op: task.op, task: task, id: id}) {
		task.resolve(nil, ErrStopped)
		return task
	}

	if io == nil {
		if !p.queue.Enqueue(event{phase: phaseFulfilled, op: task.op, task: task, id: id}) {
			task.resolve(nil, ErrStopped)
		}
		return task
	}

	ioCtx := context.WithoutCancel(ctx)
	go func() {
		posts, err := io(ioCtx)
		ev := event{phase: phaseFulfilled, op: task.op, task: task, id: id, posts: posts}
		if err != nil {
			ev = event{phase: phaseRejected, op: task.op, task: task, id: id, err: err}
		}
		if !p.queue.Enqueue(ev) {
			task.resolve(nil, ErrStopped)
		}
	}()
	return task
}

// apply runs one event against the projection.
// CRITICAL: Called only from the Run goroutine.
func (p *Projector) apply(ev event) {
	p.mu.Lock()
	reduce(&p.state, ev)
	p.state.Version = p.clock.Next()
	snap := p.state.Clone()
	p.mu.Unlock()

	slog.Debug("projector event applied",
		"op", ev.op,
		"phase", ev.phase.String(),
		"version", snap.Version,
	)
	if ev.phase == phaseRejected {
		slog.Warn("projector operation failed", "op", ev.op, "error", ev.err)
	}

	p.publish(snap)
	if ev.phase != phaseRequested {
		ev.task.resolve(ev.posts, ev.err)
	}
}
