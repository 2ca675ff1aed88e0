package projector

import (
	"sync"

	"github.com/roach88/postsync/internal/post"
)

// phase is the stage of an operation an event reports.
type phase int

const (
	phaseRequested phase = iota + 1
	phaseFulfilled
	phaseRejected
)

func (p phase) String() string {
	switch p {
	case phaseRequested:
		return "requested"
	case phaseFulfilled:
		return "fulfilled"
	case phaseRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// event is one phase of one operation.
type event struct {
	phase phase
	op    Op
	task  *Task

	// posts carries a whole collection (LoadAll, SynchronizeAll, PullRemote)
	// or the single stored record (Create, Modify).
	posts []post.Post

	// id targets Remove, Like and Dislike.
	id  int64
	err error
}

// eventQueue is a thread-safe, unbounded FIFO queue for events.
//
// Operations enqueue from caller goroutines and I/O goroutines while the
// Run loop dequeues. The signal channel lets the loop wait with a context.
type eventQueue struct {
	mu     sync.Mutex
	events []event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: the buffer of 1 coalesces signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front event without blocking.
func (q *eventQueue) TryDequeue() (event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return event{}, false
	}

	e := q.events[0]
	q.events[0] = event{} // release the posts for GC

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that receives when events may be available and is
// closed when the queue is closed.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops further enqueues and wakes the waiter.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
