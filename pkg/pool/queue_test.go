package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBWQPushPopOrder(t *testing.T) {
	q := newBWQ()

	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, q.push(func() { got = append(got, i) }))
	}

	for i := 0; i < 5; i++ {
		th, err := q.pop()
		require.NoError(t, err)
		th()
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got, "BWQ must preserve push order")
}

func TestBWQPopBlocksUntilPush(t *testing.T) {
	q := newBWQ()

	done := make(chan struct{})
	var popped bool
	go func() {
		_, err := q.pop()
		popped = err == nil
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("pop returned before any push")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, q.push(func() {}))

	select {
	case <-done:
		assert.True(t, popped)
	case <-time.After(time.Second):
		t.Fatal("pop never woke after push")
	}
}

func TestBWQCloseIsIdempotent(t *testing.T) {
	q := newBWQ()
	q.close()
	assert.NotPanics(t, func() { q.close() })

	assert.False(t, q.isActive())

	_, err := q.pop()
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestBWQPushAfterCloseFails(t *testing.T) {
	q := newBWQ()
	q.close()

	err := q.push(func() {})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestBWQDrainsExistingItemsBeforeClosedError(t *testing.T) {
	q := newBWQ()
	require.NoError(t, q.push(func() {}))
	q.close()

	_, err := q.pop()
	assert.NoError(t, err, "an item pushed before close must still be delivered")

	_, err = q.pop()
	assert.ErrorIs(t, err, ErrQueueClosed)
}

// TestBWQConcurrentProducerConsumers is scenario S4 from the spec: one
// producer pushes 0..99, five consumers pop concurrently; every value is
// popped exactly once.
func TestBWQConcurrentProducerConsumers(t *testing.T) {
	q := newBWQ()
	const n = 100
	const consumers = 5

	var mu sync.Mutex
	seen := make(map[int]int)

	var wg sync.WaitGroup
	wg.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer wg.Done()
			for {
				th, err := q.pop()
				if err != nil {
					return
				}
				th()
			}
		}()
	}

	go func() {
		for i := 0; i < n; i++ {
			i := i
			_ = q.push(func() {
				mu.Lock()
				seen[i]++
				mu.Unlock()
			})
			time.Sleep(time.Millisecond)
		}
		time.Sleep(20 * time.Millisecond)
		q.close()
	}()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, 1, seen[i], "value %d should be popped exactly once", i)
	}
}
