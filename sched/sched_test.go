// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package sched_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/devblok/texel/sched"
)

type closeCounter struct {
	closes int32
}

func (c *closeCounter) Close() error {
	atomic.AddInt32(&c.closes, 1)
	return nil
}

func (c *closeCounter) count() int32 {
	return atomic.LoadInt32(&c.closes)
}

func TestConcurrencyBound(t *testing.T) {
	const workers = 2
	thr := sched.New(workers, nil)
	defer thr.Destroy()

	var running, peak int32
	var wg sync.WaitGroup
	for idx := 0; idx < 16; idx++ {
		wg.Add(1)
		_, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
			defer wg.Done()
			now := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if now <= old || atomic.CompareAndSwapInt32(&peak, old, now) {
					break
				}
			}
			atomic.AddInt32(&running, -1)
			return nil, nil
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
	}
	wg.Wait()

	if p := atomic.LoadInt32(&peak); p > workers {
		t.Errorf("observed %d simultaneously running tasks, bound is %d", p, workers)
	}
}

func TestEqualPrioritySubmissionOrder(t *testing.T) {
	thr := sched.New(1, nil)
	defer thr.Destroy()

	gate := make(chan struct{})
	if _, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		<-gate
		return nil, nil
	}, nil); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var order []int
	tasks := make([]*sched.Task, 0, 8)
	for idx := 0; idx < 8; idx++ {
		idx := idx
		task, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			order = append(order, idx)
			mu.Unlock()
			return idx, nil
		}, nil)
		if err != nil {
			t.Fatal(err)
		}
		tasks = append(tasks, task)
	}

	close(gate)
	for _, task := range tasks {
		if _, err := task.Result(); err != nil {
			t.Error(err)
		}
	}

	for idx, v := range order {
		if idx != v {
			t.Fatalf("equal priority tasks completed out of submission order: %v", order)
		}
	}
}

func TestHigherPriorityAdmittedFirst(t *testing.T) {
	thr := sched.New(1, nil)
	defer thr.Destroy()

	gate := make(chan struct{})
	if _, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		<-gate
		return nil, nil
	}, nil); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var order []string
	record := func(name string) sched.Func {
		return func(ctx context.Context) (interface{}, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil, nil
		}
	}

	low, err := thr.Submit(context.Background(), sched.PriorityLow, record("low"), nil)
	if err != nil {
		t.Fatal(err)
	}
	high, err := thr.Submit(context.Background(), sched.PriorityHigh, record("high"), nil)
	if err != nil {
		t.Fatal(err)
	}

	close(gate)
	if _, err := low.Result(); err != nil {
		t.Error(err)
	}
	if _, err := high.Result(); err != nil {
		t.Error(err)
	}

	if len(order) != 2 || order[0] != "high" {
		t.Errorf("high priority task was not admitted first: %v", order)
	}
}

func TestCancelQueuedNeverInvokes(t *testing.T) {
	thr := sched.New(1, nil)
	defer thr.Destroy()

	gate := make(chan struct{})
	if _, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		<-gate
		return nil, nil
	}, nil); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	aux := &closeCounter{}
	var invoked int32
	task, err := thr.Submit(ctx, sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&invoked, 1)
		return nil, nil
	}, aux)
	if err != nil {
		t.Fatal(err)
	}

	cancel()
	close(gate)

	if _, err := task.Result(); !errors.Is(err, sched.ErrCancelled) {
		t.Errorf("expected ErrCancelled, got %v", err)
	}
	if task.State() != sched.TaskCancelled {
		t.Errorf("expected cancelled state, got %v", task.State())
	}
	if n := atomic.LoadInt32(&invoked); n != 0 {
		t.Errorf("cancelled task work closure ran %d times", n)
	}
	if aux.count() != 1 {
		t.Errorf("auxiliary closed %d times, want exactly once", aux.count())
	}
}

func TestAuxiliaryClosedOnFailure(t *testing.T) {
	thr := sched.New(1, nil)
	defer thr.Destroy()

	aux := &closeCounter{}
	boom := errors.New("device said no")
	task, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		return nil, boom
	}, aux)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := task.Result(); !errors.Is(err, boom) {
		t.Errorf("expected factory error, got %v", err)
	}
	if task.State() != sched.TaskFailed {
		t.Errorf("expected failed state, got %v", task.State())
	}
	if aux.count() != 1 {
		t.Errorf("auxiliary closed %d times, want exactly once", aux.count())
	}
}

func TestDestroyCancelsQueuedAndRejectsSubmit(t *testing.T) {
	thr := sched.New(1, nil)

	gate := make(chan struct{})
	if _, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		<-gate
		return nil, nil
	}, nil); err != nil {
		t.Fatal(err)
	}

	aux := &closeCounter{}
	queued, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, aux)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		thr.Destroy()
		close(done)
	}()

	// The queued task is drained without running.
	if _, err := queued.Result(); !errors.Is(err, sched.ErrCancelled) {
		t.Errorf("expected ErrCancelled for drained task, got %v", err)
	}
	if aux.count() != 1 {
		t.Errorf("auxiliary closed %d times, want exactly once", aux.count())
	}

	// The running task is allowed to finish.
	close(gate)
	<-done

	lateAux := &closeCounter{}
	if _, err := thr.Submit(context.Background(), sched.PriorityNormal, func(ctx context.Context) (interface{}, error) {
		return nil, nil
	}, lateAux); !errors.Is(err, sched.ErrDisposed) {
		t.Errorf("expected ErrDisposed after Destroy, got %v", err)
	}
	if lateAux.count() != 1 {
		t.Errorf("rejected submit closed auxiliary %d times, want exactly once", lateAux.count())
	}

	thr.Destroy() // second call is a no-op
}

func TestDefaultWorkerCount(t *testing.T) {
	thr := sched.New(0, nil)
	defer thr.Destroy()
	if thr.Workers() < 1 {
		t.Errorf("default worker count %d, want at least 1", thr.Workers())
	}
}
