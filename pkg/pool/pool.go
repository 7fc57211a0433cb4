package pool

// ============================================================================
// Dynapool Pool Manager
// ============================================================================
//
// Package: pkg/pool
// File: pool.go
// Function: Owns the worker set, the pending-task queue, the size bounds,
//           and the two reactive control loops (tasks-loop and
//           workers-loop) that implement dispatch and resize.
//
// Design Pattern:
//   Transliterated from the reference implementation's DynamicThreadPool
//   (original_source/include/dynamicThreadPool.h), split per this spec's
//   redesign note into two condition variables guarding one mutex instead of
//   one combined predicate, to avoid a thundering herd on every wakeup:
//
//   ┌──────────────┐  Submit()   ┌───────────────┐
//   │  producers   │────────────▶│ pendingTasks   │
//   └──────────────┘             └───────┬────────┘
//                                         │
//                        ┌────────────────┴────────────────┐
//                        │      M (mutex) + C_tasks,        │
//                        │      C_workers (conditions)      │
//                        └────────────────┬────────────────┘
//                                         │
//                      ┌──────────────────┼──────────────────┐
//                      │                  │                   │
//                 tasksLoop          workersLoop          idleWorkers
//               (assign/create)   (assign/shrink/drain)   (stack, front =
//                                                          most recently
//                                                          freed)
//
// Dispatch invariant (§4.3.1): a pending task may be combined with a free
// worker iff both are available; otherwise, if tasks exist but no free
// worker does and the upper bound permits, a new worker must be created.
//
// Shared-resource policy: a single mutex M (Pool.mu) protects idleWorkers,
// pendingTasks, upper, lower, and phase transitions during signaling. Each
// worker guards its own mailbox with its own lock; workers never acquire M
// from within the user thunk's critical section, only the after-completion
// callback does, after the thunk has returned. This is what rules out the
// canonical deadlock (worker blocked on M while the manager holds M and
// awaits the worker).
//
// ============================================================================

import (
	"log/slog"
	"sync"
	"time"
)

// Phase is the pool's lifecycle phase.
type Phase int

const (
	// Running accepts submissions and dispatches tasks.
	Running Phase = iota
	// Stopped rejects new submissions and is draining toward zero workers.
	Stopped
)

// Observer receives best-effort notifications of pool activity. All methods
// must return promptly and must never call back into the Pool they observe:
// they run on a manager goroutine or a worker goroutine, so Join or Close
// from inside one of them would wait on the very goroutine that is calling
// it. Implementations are expected to be cheap
// instrumentation (counters, gauges), not user business logic.
type Observer interface {
	OnSubmit()
	OnDispatch()
	OnComplete(latency time.Duration)
	OnWorkerFailed()
	OnResize(active, idle, pending int)
}

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithLogger attaches a structured logger. Worker self-termination (the only
// thing the core itself logs) is reported at Warn level. A nil logger (the
// default) disables all core logging.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// WithObserver attaches an Observer for instrumentation.
func WithObserver(obs Observer) Option {
	return func(p *Pool) { p.observer = obs }
}

// Pool is a dynamic worker pool: a set of workers, bounded between Lower and
// Upper, that drains an unbounded stream of submitted Thunks.
type Pool struct {
	mu          sync.Mutex
	condTasks   *sync.Cond
	condWorkers *sync.Cond

	idleWorkers []*Worker // front = most recently freed
	pendingTasks *bwq

	activeWorkerCount int
	lower             int
	upper             int // -1 means unbounded
	phase             Phase

	dispatchedAt map[*Worker]time.Time

	wg       sync.WaitGroup
	log      *slog.Logger
	observer Observer
}

// New constructs a Pool, eagerly creating initialSize workers, and spawns its
// two manager goroutines. upper starts unbounded (-1), lower starts at 0.
func New(initialSize int, opts ...Option) *Pool {
	p := &Pool{
		pendingTasks: newBWQ(),
		upper:        -1,
		lower:        0,
		phase:        Running,
		dispatchedAt: make(map[*Worker]time.Time),
	}
	p.condTasks = sync.NewCond(&p.mu)
	p.condWorkers = sync.NewCond(&p.mu)

	for _, opt := range opts {
		opt(p)
	}

	p.mu.Lock()
	for i := 0; i < initialSize; i++ {
		p.createFreeWorkerLocked()
	}
	p.mu.Unlock()

	p.wg.Add(2)
	go p.tasksLoop()
	go p.workersLoop()

	return p
}

// Submit enqueues t for execution. It returns ErrPoolStopped if the pool is
// no longer Running. It never blocks on worker availability; it returns as
// soon as t is enqueued and the tasks-loop has been signaled.
func (p *Pool) Submit(t Thunk) error {
	p.mu.Lock()
	if p.phase == Stopped {
		p.mu.Unlock()
		return ErrPoolStopped
	}
	_ = p.pendingTasks.push(t)
	p.mu.Unlock()

	p.condTasks.Signal()

	if p.observer != nil {
		p.observer.OnSubmit()
	}
	return nil
}

// Stop transitions the pool to Stopped. Idempotent. Tasks already dispatched
// run to completion; tasks still pending at the moment of stop are dropped
// without execution.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.phase == Stopped {
		p.mu.Unlock()
		return
	}
	p.phase = Stopped
	p.mu.Unlock()

	p.condTasks.Broadcast()
	p.condWorkers.Broadcast()
}

// Join blocks until both manager goroutines have exited, which happens once
// the pool has drained to zero active workers after Stop. Calling Join
// before Stop blocks indefinitely.
func (p *Pool) Join() {
	p.wg.Wait()
}

// Close implements the pool's destructor contract: if still Running, behave
// as Stop then Join; otherwise just Join.
func (p *Pool) Close() error {
	p.mu.Lock()
	running := p.phase == Running
	p.mu.Unlock()

	if running {
		p.Stop()
	}
	p.Join()
	return nil
}

// SetUpperLimit sets the upper bound. Fails with ErrBoundViolation if
// n < lower. Synchronously destroys any idle workers now in excess of n.
func (p *Pool) SetUpperLimit(n int) error {
	p.mu.Lock()
	if n < p.lower {
		p.mu.Unlock()
		return ErrBoundViolation
	}
	p.upper = n
	p.resizeLocked()
	p.mu.Unlock()

	// Raising the bound can unblock tasksLoop's createPredicateLocked;
	// lowering it can unblock workersLoop's shrinkPredicateLocked. Both loops
	// re-check their own predicate on wake, so an unneeded signal is harmless.
	p.condTasks.Signal()
	p.condWorkers.Signal()
	return nil
}

// UnsetUpperLimit removes the upper bound (sets it unbounded).
func (p *Pool) UnsetUpperLimit() {
	p.mu.Lock()
	p.upper = -1
	p.mu.Unlock()

	p.condTasks.Signal()
	p.condWorkers.Signal()
}

// SetLowerLimit sets the lower bound. Fails with ErrBoundViolation if an
// upper bound is set and n exceeds it. Synchronously creates workers up to n.
func (p *Pool) SetLowerLimit(n int) error {
	p.mu.Lock()
	if p.upper != -1 && n > p.upper {
		p.mu.Unlock()
		return ErrBoundViolation
	}
	p.lower = n
	p.resizeLocked()
	p.mu.Unlock()

	// resizeLocked may have created idle workers that can now take pending
	// tasks; wake tasksLoop to notice.
	p.condTasks.Signal()
	return nil
}

// UnsetLowerLimit removes the lower bound (sets it to 0).
func (p *Pool) UnsetLowerLimit() {
	p.mu.Lock()
	p.lower = 0
	p.mu.Unlock()
}

// WorkersCount returns the current active worker count (idle + computing).
func (p *Pool) WorkersCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeWorkerCount
}

// FreeWorkersCount returns the current idle worker count.
func (p *Pool) FreeWorkersCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idleWorkers)
}

// TasksCount returns the current pending task count.
func (p *Pool) TasksCount() int {
	return p.pendingTasks.len()
}

// ----------------------------------------------------------------------------
// Manager loops
// ----------------------------------------------------------------------------

// tasksLoop implements §4.3.2: it either combines a pending task with an idle
// worker, or, when tasks exist but no worker is free and the upper bound
// still permits growth, creates a new worker. It never destroys workers.
func (p *Pool) tasksLoop() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.shouldWakeTasksLocked() {
			p.condTasks.Wait()
		}

		if p.phase == Stopped {
			p.mu.Unlock()
			return
		}

		var worker *Worker
		var task Thunk
		assign := false

		if p.assignPredicateLocked() {
			task, _ = p.pendingTasks.tryPop()
			worker = p.popFrontIdleLocked()
			assign = true
			p.dispatchedAt[worker] = nowFunc()
		} else if p.createPredicateLocked() {
			p.createFreeWorkerLocked()
		}

		active, idle, pending := p.activeWorkerCount, len(p.idleWorkers), p.pendingTasks.len()
		p.mu.Unlock()

		if p.observer != nil {
			p.observer.OnResize(active, idle, pending)
		}

		if assign {
			worker.assign(task)
			if p.observer != nil {
				p.observer.OnDispatch()
			}
		}
	}
}

// workersLoop implements §4.3.3: it shrinks the pool when idle workers exist
// in excess of the upper bound, otherwise performs the same assign combine as
// tasksLoop when there is work and a free worker. On transition to Stopped,
// it drains every worker to zero.
func (p *Pool) workersLoop() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.shouldWakeWorkersLocked() {
			p.condWorkers.Wait()
		}

		if p.phase == Stopped {
			p.mu.Unlock()
			break
		}

		var worker *Worker
		var task Thunk
		assign := false

		if p.shrinkPredicateLocked() {
			p.destroyFirstIdleWorkerLocked()
		} else if p.assignPredicateLocked() {
			task, _ = p.pendingTasks.tryPop()
			worker = p.popFrontIdleLocked()
			assign = true
			p.dispatchedAt[worker] = nowFunc()
		}

		active, idle, pending := p.activeWorkerCount, len(p.idleWorkers), p.pendingTasks.len()
		p.mu.Unlock()

		if p.observer != nil {
			p.observer.OnResize(active, idle, pending)
		}

		if assign {
			worker.assign(task)
			if p.observer != nil {
				p.observer.OnDispatch()
			}
		}
	}

	p.drain()
}

// drain destroys every idle worker until active_worker_count reaches zero.
// Workers still computing at the moment of Stop return to idle via their
// after-completion callback, which signals condWorkers so this loop wakes
// and reaps them too. A worker can also leave the active set by
// self-terminating instead of going idle (onWorkerTerminal); the inner wait
// re-checks activeWorkerCount, not just idleWorkers, so drain still notices
// that case and returns instead of waiting on a signal that will never come.
func (p *Pool) drain() {
	for {
		p.mu.Lock()
		if p.activeWorkerCount == 0 {
			p.mu.Unlock()
			return
		}

		for len(p.idleWorkers) == 0 && p.activeWorkerCount > 0 {
			p.condWorkers.Wait()
		}

		if p.activeWorkerCount == 0 {
			p.mu.Unlock()
			return
		}

		p.destroyFirstIdleWorkerLocked()
		active, idle, pending := p.activeWorkerCount, len(p.idleWorkers), p.pendingTasks.len()
		p.mu.Unlock()

		if p.observer != nil {
			p.observer.OnResize(active, idle, pending)
		}
	}
}

// ----------------------------------------------------------------------------
// Predicates (caller must hold p.mu)
// ----------------------------------------------------------------------------

func (p *Pool) assignPredicateLocked() bool {
	return p.pendingTasks.len() > 0 && len(p.idleWorkers) > 0
}

func (p *Pool) createPredicateLocked() bool {
	return p.pendingTasks.len() > 0 && len(p.idleWorkers) == 0 &&
		(p.upper == -1 || p.activeWorkerCount < p.upper)
}

func (p *Pool) shrinkPredicateLocked() bool {
	return len(p.idleWorkers) > 0 && p.upper != -1 && p.activeWorkerCount > p.upper
}

func (p *Pool) shouldWakeTasksLocked() bool {
	return p.phase == Stopped || p.createPredicateLocked() || p.assignPredicateLocked()
}

func (p *Pool) shouldWakeWorkersLocked() bool {
	return p.phase == Stopped ||
		(len(p.idleWorkers) > 0 && p.pendingTasks.len() > 0) ||
		p.shrinkPredicateLocked()
}

// ----------------------------------------------------------------------------
// Primitive helpers (§4.3.4), caller must hold p.mu
// ----------------------------------------------------------------------------

func (p *Pool) createFreeWorkerLocked() {
	id := p.activeWorkerCount
	w := newWorker(id, p.onWorkerIdle, p.onWorkerTerminal, p.log)
	p.idleWorkers = append([]*Worker{w}, p.idleWorkers...)
	p.activeWorkerCount++
}

func (p *Pool) destroyFirstIdleWorkerLocked() {
	w := p.popFrontIdleLocked()

	w.stop()
	w.join()

	delete(p.dispatchedAt, w)
	p.activeWorkerCount--
}

func (p *Pool) resizeLocked() {
	for len(p.idleWorkers) > 0 && p.upper != -1 && p.activeWorkerCount > p.upper {
		p.destroyFirstIdleWorkerLocked()
	}
	for p.activeWorkerCount < p.lower {
		p.createFreeWorkerLocked()
	}
}

func (p *Pool) popFrontIdleLocked() *Worker {
	w := p.idleWorkers[0]
	p.idleWorkers[0] = nil
	p.idleWorkers = p.idleWorkers[1:]
	return w
}

// onWorkerIdle is the after-completion callback (§4.2): it returns a worker
// to the idle list and wakes the workers-loop. It carries no reference to
// anything but the pool's own synchronization state; the worker itself
// holds no back-pointer to the pool.
func (p *Pool) onWorkerIdle(w *Worker) {
	p.mu.Lock()
	p.idleWorkers = append([]*Worker{w}, p.idleWorkers...)

	var latency time.Duration
	hasLatency := false
	if start, ok := p.dispatchedAt[w]; ok {
		latency = nowFunc().Sub(start)
		hasLatency = true
		delete(p.dispatchedAt, w)
	}
	p.mu.Unlock()

	p.condWorkers.Signal()

	if p.observer != nil && hasLatency {
		p.observer.OnComplete(latency)
	}
}

// onWorkerTerminal accounts for a worker that self-terminated on an abnormal
// thunk return (§7). The worker never re-enters idleWorkers; instead its
// loss is counted here, and both manager loops are woken, so tasksLoop can
// create a replacement while tasks are pending and the upper bound permits.
func (p *Pool) onWorkerTerminal(w *Worker) {
	p.mu.Lock()
	delete(p.dispatchedAt, w)
	p.activeWorkerCount--
	active, idle, pending := p.activeWorkerCount, len(p.idleWorkers), p.pendingTasks.len()
	p.mu.Unlock()

	p.condWorkers.Signal()
	// A worker loss can free up room under the upper bound for tasksLoop to
	// create a replacement, so it must be woken too, not just workersLoop.
	p.condTasks.Signal()

	if p.observer != nil {
		p.observer.OnWorkerFailed()
		p.observer.OnResize(active, idle, pending)
	}
}

// nowFunc is a seam for tests that need deterministic timing; production
// code always uses time.Now.
var nowFunc = time.Now
