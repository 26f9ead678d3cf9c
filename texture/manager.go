// Copyright (c) 2026 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package texture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/texel/gfx"
	"github.com/devblok/texel/sched"
	"github.com/devblok/texel/utility/guard"
	"github.com/devblok/texel/utility/ktex"
)

// Ticker is the frame-loop surface the manager subscribes to for
// periodic instrumentation. loop.Loop satisfies it.
type Ticker interface {
	Subscribe(fn func(time.Time)) (int, error)
	Unsubscribe(id int)
}

// NewManager assembles a texture manager over the given device. The
// ticker may be nil if no frame loop is running. Construction is
// all-or-nothing: on failure every step already taken is undone in
// reverse order and the error wraps ErrConstruction.
func NewManager(dev gfx.Device, ticker Ticker, cfg Config, logger log.FieldLogger) (*Manager, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if dev == nil {
		return nil, fmt.Errorf("%w: nil device", ErrConstruction)
	}

	g := guard.New()
	defer g.Rollback()

	m := &Manager{log: logger}

	m.handle = newDeviceHandle(dev)
	g.Track(func() error {
		m.handle.release()
		return nil
	})

	m.throttler = sched.New(cfg.Workers, logger)
	g.Track(func() error {
		m.throttler.Destroy()
		return nil
	})

	m.factory = NewFactory(dev, logger)

	if ticker != nil {
		id, err := ticker.Subscribe(m.tick)
		if err != nil {
			return nil, fmt.Errorf("%w: loop subscription: %s", ErrConstruction, err)
		}
		m.loop = ticker
		m.subID = id
		g.Track(func() error {
			ticker.Unsubscribe(id)
			return nil
		})
	}

	g.Commit()
	return m, nil
}

// Manager is the public entry point for texture creation. Synchronous
// creation goes straight to the factory; asynchronous creation runs
// through a concurrency-bounded, priority-ordered throttler. Destroy
// is idempotent and tears everything down deterministically, with a
// finalizer backstop for the native device handle alone.
type Manager struct {
	log log.FieldLogger

	handle    *deviceHandle
	throttler *sched.Throttler
	factory   *Factory

	loop  Ticker
	subID int

	running  atomic.Int64
	disposed atomic.Bool
}

// FromRaw creates a texture synchronously, bypassing the throttler.
func (m *Manager) FromRaw(spec ImageSpec, pix []byte, name string) (*Wrap, error) {
	if m.disposed.Load() {
		return nil, ErrAlreadyDisposed
	}
	return m.factory.FromRaw(spec, pix, name)
}

// FromRawAsync schedules a raw-pixel creation.
func (m *Manager) FromRawAsync(ctx context.Context, spec ImageSpec, pix []byte, name string, priority sched.Priority) (*Pending, error) {
	return m.submit(ctx, priority, nil, func(ctx context.Context) (*Wrap, error) {
		return m.factory.FromRaw(spec, pix, name)
	})
}

// FromContainerAsync schedules creation from in-memory container bytes.
func (m *Manager) FromContainerAsync(ctx context.Context, data []byte, name string, priority sched.Priority) (*Pending, error) {
	return m.submit(ctx, priority, nil, func(ctx context.Context) (*Wrap, error) {
		buf, err := ktex.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("container %s: %w", name, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		return m.factory.FromContainer(buf, name)
	})
}

// FromContainerStream schedules creation from a container stream. The
// stream is read inside the scheduled closure; if it implements
// io.Closer and keepOpen is false, the throttler closes it exactly
// once no matter how the task ends.
func (m *Manager) FromContainerStream(ctx context.Context, r io.Reader, keepOpen bool, name string, priority sched.Priority) (*Pending, error) {
	return m.submit(ctx, priority, auxOf(r, keepOpen), func(ctx context.Context) (*Wrap, error) {
		buf, err := ktex.DecodeFrom(r)
		if err != nil {
			return nil, fmt.Errorf("container %s: %w", name, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		return m.factory.FromContainer(buf, name)
	})
}

// FromImageAsync schedules creation from encoded image bytes.
func (m *Manager) FromImageAsync(ctx context.Context, data []byte, name string, priority sched.Priority) (*Pending, error) {
	return m.submit(ctx, priority, nil, func(ctx context.Context) (*Wrap, error) {
		return m.factory.FromImage(data, name)
	})
}

// FromImageStream schedules creation from an encoded image stream,
// with the same auxiliary-closing contract as FromContainerStream.
func (m *Manager) FromImageStream(ctx context.Context, r io.Reader, keepOpen bool, name string, priority sched.Priority) (*Pending, error) {
	return m.submit(ctx, priority, auxOf(r, keepOpen), func(ctx context.Context) (*Wrap, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("image %s: read: %s", name, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		return m.factory.FromImage(data, name)
	})
}

// FormatSupported reports whether the device can sample the format.
func (m *Manager) FormatSupported(format gfx.Format) (bool, error) {
	if m.disposed.Load() {
		return false, ErrAlreadyDisposed
	}
	return m.factory.FormatSupported(format), nil
}

// Running reports the number of creations currently executing.
func (m *Manager) Running() int {
	return int(m.running.Load())
}

// Destroy tears the manager down: the throttler cancels queued work
// and waits for running work, the loop subscription is removed, and
// the device handle is released. The first call wins; later calls are
// no-ops.
func (m *Manager) Destroy() error {
	if !m.disposed.CompareAndSwap(false, true) {
		return nil
	}
	m.throttler.Destroy()
	if m.loop != nil {
		m.loop.Unsubscribe(m.subID)
	}
	m.handle.release()
	m.log.Debug("texture manager destroyed")
	return nil
}

func (m *Manager) submit(ctx context.Context, priority sched.Priority, aux io.Closer, fn func(ctx context.Context) (*Wrap, error)) (*Pending, error) {
	if m.disposed.Load() {
		closeAux(aux, m.log)
		return nil, ErrAlreadyDisposed
	}
	task, err := m.throttler.Submit(ctx, priority, func(ctx context.Context) (interface{}, error) {
		m.running.Add(1)
		defer m.running.Add(-1)
		return fn(ctx)
	}, aux)
	if err != nil {
		// The throttler handles aux on its own rejections.
		if errors.Is(err, sched.ErrDisposed) {
			return nil, ErrAlreadyDisposed
		}
		return nil, err
	}
	return &Pending{task: task}, nil
}

func (m *Manager) tick(time.Time) {
	if n := m.running.Load(); n > 0 {
		m.log.WithField("running", n).Debug("texture loads in flight")
	}
}

func auxOf(r io.Reader, keepOpen bool) io.Closer {
	if keepOpen {
		return nil
	}
	closer, ok := r.(io.Closer)
	if !ok {
		return nil
	}
	return closer
}

func closeAux(aux io.Closer, logger log.FieldLogger) {
	if aux == nil {
		return
	}
	if err := aux.Close(); err != nil {
		logger.Warnf("auxiliary close: %s", err)
	}
}

// deviceHandle keeps the native device behind a release-once latch. A
// finalizer backstops leaked managers, releasing only this handle;
// subordinate objects are managed and must not be touched here.
type deviceHandle struct {
	dev      gfx.Device
	released atomic.Bool
}

func newDeviceHandle(dev gfx.Device) *deviceHandle {
	h := &deviceHandle{dev: dev}
	runtime.SetFinalizer(h, (*deviceHandle).release)
	return h
}

func (h *deviceHandle) release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	runtime.SetFinalizer(h, nil)
	h.dev.Release()
}
