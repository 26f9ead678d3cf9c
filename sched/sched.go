// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package sched implements a priority-ordered, concurrency-bounded
// scheduler for expensive resource creation work. Every non-trivial
// texture load passes through a Throttler so that at most a fixed
// number of uploads hit the device at once; everything else waits in
// an admission queue ordered by priority, then submission order.
package sched

import (
	"container/heap"
	"context"
	"errors"
	"io"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// package errors
var (
	ErrDisposed  = errors.New("sched: throttler disposed")
	ErrCancelled = errors.New("sched: task cancelled")
)

// Priority orders admission; a lower value is served first. Equal
// priorities preserve submission order.
type Priority int

// Priority levels. PriorityNormal is the zero value so that it is the
// default; the others exist for callers that know better.
const (
	PriorityHigh   Priority = iota - 1
	PriorityNormal          // default
	PriorityLow
)

// Func is the unit of work a Task runs. It must honor ctx only up to
// the point where it begins a native creation call; from there it runs
// to completion so that a native resource is either fully created or
// never created.
type Func func(ctx context.Context) (interface{}, error)

// New creates a Throttler with the given number of worker slots.
// A non-positive count selects the default of the available hardware
// threads minus one, but never less than one. The bound is fixed for
// the lifetime of the Throttler.
func New(workers int, logger log.FieldLogger) *Throttler {
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
	}
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Throttler{
		log:     logger,
		workers: workers,
		slots:   semaphore.NewWeighted(int64(workers)),
	}
}

// Throttler is the single gate through which texture creation work
// passes. It is safe for concurrent use.
type Throttler struct {
	log     log.FieldLogger
	workers int
	slots   *semaphore.Weighted

	mu       sync.Mutex
	queue    taskQueue
	seq      uint64
	disposed bool

	wg sync.WaitGroup
}

// Workers returns the fixed concurrency bound.
func (t *Throttler) Workers() int {
	return t.workers
}

// Submit enqueues fn for execution. If a worker slot is free the task
// runs immediately on a background worker, otherwise it waits in the
// admission queue. The optional aux closer is owned by the task from
// this point on and is closed exactly once when the task finishes,
// regardless of outcome; that includes a Submit that fails outright.
func (t *Throttler) Submit(ctx context.Context, priority Priority, fn Func, aux io.Closer) (*Task, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	task := &Task{
		ctx:      ctx,
		priority: priority,
		fn:       fn,
		aux:      aux,
		done:     make(chan struct{}),
	}

	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		t.closeAux(task)
		return nil, ErrDisposed
	}
	task.seq = t.seq
	t.seq++

	if t.slots.TryAcquire(1) {
		t.wg.Add(1)
		t.mu.Unlock()
		go t.run(task)
		return task, nil
	}

	heap.Push(&t.queue, task)
	t.mu.Unlock()
	return task, nil
}

// Destroy cancels every queued task, releasing their auxiliary
// resources, and waits for the running ones to finish. Afterwards
// Submit fails with ErrDisposed. Destroy is idempotent.
func (t *Throttler) Destroy() {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return
	}
	t.disposed = true
	drained := make([]*Task, 0, t.queue.Len())
	for t.queue.Len() > 0 {
		drained = append(drained, heap.Pop(&t.queue).(*Task))
	}
	t.mu.Unlock()

	for _, task := range drained {
		t.finish(task, nil, ErrCancelled, TaskCancelled)
	}
	t.wg.Wait()
	t.log.Debug("sched: throttler destroyed")
}

// run executes its initial task, then keeps the worker slot occupied
// draining the queue until it is empty.
func (t *Throttler) run(task *Task) {
	defer t.wg.Done()
	t.execute(task)

	for {
		t.mu.Lock()
		if t.disposed || t.queue.Len() == 0 {
			t.slots.Release(1)
			t.mu.Unlock()
			return
		}
		next := heap.Pop(&t.queue).(*Task)
		t.mu.Unlock()
		t.execute(next)
	}
}

func (t *Throttler) execute(task *Task) {
	// Admission check: a task cancelled while queued never runs.
	if task.ctx.Err() != nil {
		t.finish(task, nil, ErrCancelled, TaskCancelled)
		return
	}

	task.setState(TaskRunning)

	// Last check before handing over to the work closure. Once the
	// closure reaches its native call it is not interruptible.
	if task.ctx.Err() != nil {
		t.finish(task, nil, ErrCancelled, TaskCancelled)
		return
	}

	value, err := task.fn(task.ctx)
	if err != nil {
		t.finish(task, nil, err, TaskFailed)
		return
	}
	t.finish(task, value, nil, TaskCompleted)
}

// finish releases the auxiliary resource first, then publishes the
// result. Auxiliary teardown failures are logged and swallowed so they
// never mask the primary outcome.
func (t *Throttler) finish(task *Task, value interface{}, err error, state State) {
	t.closeAux(task)
	task.value = value
	task.err = err
	task.setState(state)
	close(task.done)
}

func (t *Throttler) closeAux(task *Task) {
	if task.aux == nil {
		return
	}
	if cerr := task.aux.Close(); cerr != nil {
		t.log.WithError(cerr).Warn("sched: auxiliary resource close failed")
	}
	task.aux = nil
}
