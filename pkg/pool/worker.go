package pool

// ============================================================================
// Dynapool Worker
// ============================================================================
//
// Package: pkg/pool
// File: worker.go
// Function: A single execution context with a one-slot mailbox, an
//           after-completion callback, and a stop flag
//
// Execution Model:
//   Each worker is a goroutine running a loop transliterated from the
//   reference implementation's WorkerThread (see
//   original_source/examples/workerThreadTest.cpp):
//     1. wait until halt is set or the mailbox holds a thunk
//     2. if halt, exit the loop
//     3. else move the thunk out of the mailbox, invoke it, call
//        after_completion on normal return; on an abnormal return from the
//        thunk, set halt and exit without calling after_completion
//
// State Machine:
//
//   Stopped ──construct──▶ Running ──stop()──▶ Running (flagged halt)
//                                 │
//                                 └──body returns──▶ terminal (joinable)
//
// after_completion semantics:
//   Invoked exactly once per successfully completed thunk, from the worker's
//   own goroutine, with computing=false and the mailbox empty. It must not
//   call join on this worker.
//
// ============================================================================

import (
	"log/slog"
	"sync"
)

// Thunk is an opaque, callable-once unit of work: no arguments, no return
// value. Any return channel a caller needs is encapsulated outside the core,
// in package task.
type Thunk func()

// WorkerPhase is the worker's lifecycle phase.
type WorkerPhase int

const (
	// WorkerRunning means the worker's body goroutine is alive.
	WorkerRunning WorkerPhase = iota
	// WorkerStopped means the worker's body goroutine has returned.
	WorkerStopped
)

// Worker is a single execution context owned, at any moment, either by the
// pool's idle list or by an in-flight handoff; it carries no back-pointer to
// its owner.
type Worker struct {
	id int

	mu        sync.Mutex
	cond      *sync.Cond
	mailbox   Thunk
	halt      bool
	computing bool
	phase     WorkerPhase

	afterCompletion func(*Worker)
	onTerminal      func(*Worker)
	done            chan struct{}
	log             *slog.Logger
}

// newWorker constructs a worker and immediately spawns its body goroutine.
// afterCompletion is invoked on every normal thunk return (the worker
// returns to idle); onTerminal is invoked once, instead, if a thunk
// surfaces an abnormal failure and the worker self-terminates; it must
// not place the worker back on any idle list, only account for its loss.
// Neither callback is a back-pointer to the pool: both are plain closures
// over whatever bookkeeping the caller needs updated.
func newWorker(id int, afterCompletion, onTerminal func(*Worker), log *slog.Logger) *Worker {
	w := &Worker{
		id:              id,
		phase:           WorkerRunning,
		afterCompletion: afterCompletion,
		onTerminal:      onTerminal,
		done:            make(chan struct{}),
		log:             log,
	}
	w.cond = sync.NewCond(&w.mu)

	go w.run()

	return w
}

func (w *Worker) run() {
	defer func() {
		w.mu.Lock()
		w.phase = WorkerStopped
		w.mu.Unlock()
		close(w.done)
	}()

	for {
		w.mu.Lock()
		for !w.halt && w.mailbox == nil {
			w.cond.Wait()
		}

		if w.halt {
			w.mu.Unlock()
			return
		}

		t := w.mailbox
		w.mailbox = nil
		w.computing = true
		w.mu.Unlock()

		if !invokeSafely(t) {
			w.mu.Lock()
			w.computing = false
			w.halt = true
			w.mu.Unlock()

			if w.log != nil {
				w.log.Warn("worker self-terminated on abnormal thunk return", "worker_id", w.id)
			}
			if w.onTerminal != nil {
				w.onTerminal(w)
			}
			return
		}

		w.mu.Lock()
		w.computing = false
		w.mu.Unlock()

		w.afterCompletion(w)
	}
}

// invokeSafely runs t, converting a panic into a false return so the caller
// can treat it as the "abnormal surfacing" described in the data model: the
// thunk is expected to route its own user-visible failures into its
// completion handle and never panic past its own boundary; one that does is
// recovered here, and the worker then self-terminates.
func invokeSafely(t Thunk) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	t()
	return true
}

// assign stores t into the mailbox and wakes the body. Precondition: mailbox
// is empty; the caller (the pool manager) guarantees handoff uniqueness by
// dequeuing the worker from idleWorkers before assigning.
func (w *Worker) assign(t Thunk) {
	w.mu.Lock()
	w.mailbox = t
	w.mu.Unlock()

	w.cond.Signal()
}

// stop sets halt and wakes the body. Idempotent; safe before or after join.
func (w *Worker) stop() {
	w.mu.Lock()
	w.halt = true
	w.mu.Unlock()

	w.cond.Broadcast()
}

// join blocks until the body goroutine has returned. Idempotent.
func (w *Worker) join() {
	<-w.done
}

// isComputing is a snapshot observer.
func (w *Worker) isComputing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.computing
}

// getPhase is a snapshot observer.
func (w *Worker) getPhase() WorkerPhase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}
