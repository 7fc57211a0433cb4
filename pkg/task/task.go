// Package task is the public submission surface for package pool: it adapts
// arbitrary callables into the opaque, callable-once Thunk the pool core
// expects, and hands the caller back a typed Future in return. This
// adaptation is explicitly out of scope of the pool core's own
// specification (it's "type-plumbing"), but it's the only door through which
// a caller ever reaches the core, so it lives here as its own package rather
// than bolted onto pool.Pool itself.
//
// Package: pkg/task
// File: task.go
//
// Grounded on the job lifecycle in the reference repository's job manager
// (Pending → InFlight → Completed/Dead), collapsed from a persisted
// multi-job store down to one in-process Future per submission: this core
// has no persistence (see the pool's own Non-goals), so there is nothing
// left to snapshot or restore.
package task

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ChuLiYu/dynapool/pkg/pool"
)

// ErrAborted is reported by a Future whose task was still pending, never
// dispatched to a worker, at the moment the pool was stopped, and by Submit
// (and its Future) once the pool has been stopped. A Future whose fn
// panicked is also resolved to ErrAborted, once the stopped pool has drained.
var ErrAborted = errors.New("task: aborted, pool stopped before dispatch")

// Future is the completion handle handed back by Submit. Wait blocks until
// the underlying thunk has run (or the task was aborted by a pool Stop).
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Wait blocks until the task completes (normally or by abort) and returns
// its result.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.value, f.err
}

// Done returns a channel closed exactly when the future becomes ready,
// useful for selecting over several futures at once.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[T]) complete(v T, err error) {
	f.value = v
	f.err = err
	close(f.done)
}

func (f *Future[T]) abort() {
	var zero T
	f.complete(zero, ErrAborted)
}

// Pool wraps a *pool.Pool with the bookkeeping Submit needs to honor the
// abort contract: a task still pending when Stop is called must have its
// Future resolved to ErrAborted rather than left blocked forever, even
// though the core itself drops unpopped tasks silently (see the core's own
// DESIGN.md Open Question #1).
type Pool struct {
	core *pool.Pool

	mu       sync.Mutex
	nextID   uint64
	inflight map[uint64]func() // id -> abort callback; nil map means swept
}

// New wraps an already-constructed pool.Pool for submission through Submit.
func New(core *pool.Pool) *Pool {
	p := &Pool{
		core:     core,
		inflight: make(map[uint64]func()),
	}

	go p.sweepOnStop()

	return p
}

// Core returns the underlying pool, for callers that also need Stop/Join/
// resize operations directly.
func (p *Pool) Core() *pool.Pool {
	return p.core
}

// sweepOnStop waits for the core pool to fully drain (which only happens
// after Stop) and then resolves every still-pending Future to ErrAborted.
// By the time Join returns, every dispatched thunk has already returned or
// panicked: a worker is only destroyed once idle, and a worker only becomes
// idle again after its current thunk returns. A thunk that returned has
// removed itself from inflight, so anything left in the map at that point
// was either never dispatched or belongs to an fn that panicked.
func (p *Pool) sweepOnStop() {
	p.core.Join()

	p.mu.Lock()
	pending := p.inflight
	p.inflight = nil
	p.mu.Unlock()

	for _, abort := range pending {
		abort()
	}
}

// Submit adapts fn into a pool.Thunk, submits it to the core pool, and
// returns a Future for its result.
func Submit[T any](p *Pool, fn func() (T, error)) (*Future[T], error) {
	fut := newFuture[T]()

	p.mu.Lock()
	if p.inflight == nil {
		p.mu.Unlock()
		fut.abort()
		return fut, ErrAborted
	}
	id := p.nextID
	p.nextID++
	p.inflight[id] = fut.abort
	p.mu.Unlock()

	thunk := func() {
		v, err := fn()

		p.mu.Lock()
		if p.inflight != nil {
			delete(p.inflight, id)
		}
		p.mu.Unlock()

		fut.complete(v, err)
	}

	if err := p.core.Submit(pool.Thunk(thunk)); err != nil {
		p.mu.Lock()
		if p.inflight != nil {
			delete(p.inflight, id)
		}
		p.mu.Unlock()

		// The core rejects only after Stop; report it as ErrAborted, the same
		// as once sweepOnStop has run, while keeping the core's error visible.
		err = fmt.Errorf("%w: %w", ErrAborted, err)
		var zero T
		fut.complete(zero, err)
		return fut, err
	}

	return fut, nil
}
