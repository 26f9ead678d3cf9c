// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sched

import (
	"context"
	"io"
	"sync/atomic"
)

// State tracks a task through its lifetime.
type State int32

// Task states. A task is created Queued and ends in exactly one of
// Completed, Failed or Cancelled.
const (
	TaskQueued State = iota
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskCancelled
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case TaskQueued:
		return "queued"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskCancelled:
		return "cancelled"
	default:
		return "invalid"
	}
}

// Task is the pending result of a submitted work closure. It is
// created by Throttler.Submit and resolved exactly once.
type Task struct {
	ctx      context.Context
	priority Priority
	seq      uint64
	index    int

	fn  Func
	aux io.Closer

	state atomic.Int32
	done  chan struct{}
	value interface{}
	err   error
}

// State returns the current task state.
func (t *Task) State() State {
	return State(t.state.Load())
}

func (t *Task) setState(s State) {
	t.state.Store(int32(s))
}

// Done returns a channel closed when the task has finished, for use
// in select statements.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx expires. Note that an
// expiring wait context does not cancel the task itself; only the
// context passed at Submit does that.
func (t *Task) Wait(ctx context.Context) (interface{}, error) {
	select {
	case <-t.done:
		return t.value, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result blocks until the task finishes and returns its outcome.
func (t *Task) Result() (interface{}, error) {
	<-t.done
	return t.value, t.err
}

// taskQueue is the admission queue: a heap ordered by priority, with
// submission order breaking ties.
type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority < q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}

func (q *taskQueue) Push(x interface{}) {
	task := x.(*Task)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *taskQueue) Pop() interface{} {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[:n-1]
	return task
}
