// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"context"

	"github.com/devblok/texel/sched"
)

// Pending is the future of an asynchronous texture creation. It types
// the underlying task result as a Wrap.
type Pending struct {
	task *sched.Task
}

// State returns the current scheduling state.
func (p *Pending) State() sched.State {
	return p.task.State()
}

// Done returns a channel closed when the creation has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.task.Done()
}

// Wait blocks until the creation finishes or ctx expires.
func (p *Pending) Wait(ctx context.Context) (*Wrap, error) {
	value, err := p.task.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return value.(*Wrap), nil
}

// Result blocks until the creation finishes and returns its outcome.
func (p *Pending) Result() (*Wrap, error) {
	value, err := p.task.Result()
	if err != nil {
		return nil, err
	}
	return value.(*Wrap), nil
}
