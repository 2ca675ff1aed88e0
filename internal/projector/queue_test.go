package projector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_FIFO(t *testing.T) {
	q := newEventQueue()

	for i := int64(1); i <= 3; i++ {
		require.True(t, q.Enqueue(event{phase: phaseRequested, op: OpRemove, id: i}))
	}

	for want := int64(1); want <= 3; want++ {
		got, ok := q.TryDequeue()
		require.True(t, ok)
		assert.Equal(t, want, got.id)
	}
}

func TestEventQueue_TryDequeue_Empty(t *testing.T) {
	q := newEventQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestEventQueue_SignalCoalesces(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(event{id: 1})
	q.Enqueue(event{id: 2})

	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("expected a single coalesced signal")
	default:
	}
	assert.Equal(t, 2, q.Len())
}

func TestEventQueue_Close(t *testing.T) {
	q := newEventQueue()
	q.Enqueue(event{id: 1})
	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Enqueue(event{id: 2}), "enqueue after close should fail")

	_, open := <-q.Wait()
	assert.False(t, open)

	got, ok := q.TryDequeue()
	require.True(t, ok, "events queued before close remain")
	assert.Equal(t, int64(1), got.id)
}

func TestEventQueue_ConcurrentEnqueue(t *testing.T) {
	q := newEventQueue()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q.Enqueue(event{id: int64(i)})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, q.Len())
}

func TestClock(t *testing.T) {
	c := NewClock()
	assert.Zero(t, c.Current())
	assert.EqualValues(t, 1, c.Next())
	assert.EqualValues(t, 2, c.Next())
	assert.EqualValues(t, 2, c.Current())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "requested", phaseRequested.String())
	assert.Equal(t, "fulfilled", phaseFulfilled.String())
	assert.Equal(t, "rejected", phaseRejected.String())
}
