// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package guard implements transactional multi-resource acquisition.
// A constructor that acquires several resources tracks a teardown for
// each one as it goes; if construction fails before Commit, the deferred
// Rollback releases everything already acquired, in reverse order. On
// success Commit disarms the guard and the teardowns never run.
package guard

import (
	"errors"
	"sync"
)

// New creates an armed Guard.
func New() *Guard {
	return &Guard{}
}

// Guard accumulates teardown actions for resources acquired so far.
// The zero value is usable. A Guard must not be reused after Rollback.
type Guard struct {
	mu        sync.Mutex
	committed bool
	teardowns []func() error
}

// Track registers a teardown for a freshly acquired resource. Teardowns
// run in reverse registration order on Rollback.
func (g *Guard) Track(teardown func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.teardowns = append(g.teardowns, teardown)
}

// Commit disarms the guard permanently. Subsequent Rollback calls do nothing.
func (g *Guard) Commit() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.committed = true
	g.teardowns = nil
}

// Rollback runs every tracked teardown in LIFO order unless Commit was
// called. A failing teardown does not stop the remaining ones; the
// failures are collected and returned joined, for logging only.
func (g *Guard) Rollback() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.committed {
		return nil
	}

	var errs []error
	for idx := len(g.teardowns) - 1; idx >= 0; idx-- {
		if err := g.teardowns[idx](); err != nil {
			errs = append(errs, err)
		}
	}
	g.teardowns = nil
	return errors.Join(errs...)
}
