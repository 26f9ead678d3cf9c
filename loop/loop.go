// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package loop provides the frame loop service. It owns the frame
// ticker and fans each tick out to subscribers, so that periodic work
// (instrumentation, housekeeping) does not need its own timers.
package loop

import (
	"errors"
	"sync"
	"time"
)

// ErrStopped is returned when subscribing to a loop that has already
// been stopped.
var ErrStopped = errors.New("loop: already stopped")

// Config configures the frame loop.
type Config struct {

	// TicksPerSecond sets the tick rate. Zero means the default of 60.
	TicksPerSecond int
}

// New creates a frame loop and starts dispatching immediately.
func New(cfg Config) *Loop {
	tps := cfg.TicksPerSecond
	if tps <= 0 {
		tps = 60
	}

	l := &Loop{
		tps:    tps,
		ticker: time.NewTicker(time.Second / time.Duration(tps)),
		subs:   make(map[int]func(time.Time)),
		done:   make(chan struct{}),
	}
	go l.dispatch()
	return l
}

// Loop fans ticker events out to subscribers. Subscribers are invoked
// sequentially on the loop goroutine and must not block.
type Loop struct {
	tps    int
	ticker *time.Ticker

	mu      sync.Mutex
	subs    map[int]func(time.Time)
	nextID  int
	stopped bool

	done chan struct{}
}

// TicksPerSecond gets the configured tick rate.
func (l *Loop) TicksPerSecond() int {
	return l.tps
}

// Subscribe registers fn to run on every tick and returns an
// identifier for Unsubscribe.
func (l *Loop) Subscribe(fn func(time.Time)) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return 0, ErrStopped
	}
	l.nextID++
	l.subs[l.nextID] = fn
	return l.nextID, nil
}

// Unsubscribe removes a subscriber. Unknown identifiers are ignored.
func (l *Loop) Unsubscribe(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.subs, id)
}

// Stop halts the ticker and releases all subscribers. It is safe to
// call more than once.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	l.ticker.Stop()
	close(l.done)
	l.subs = nil
}

func (l *Loop) dispatch() {
	for {
		select {
		case <-l.done:
			return
		case now := <-l.ticker.C:
			l.mu.Lock()
			fns := make([]func(time.Time), 0, len(l.subs))
			for _, fn := range l.subs {
				fns = append(fns, fn)
			}
			l.mu.Unlock()
			for _, fn := range fns {
				fn(now)
			}
		}
	}
}
