/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package reactor

import (
	"context"
	"sync"
)

const defaultTaskBuffer = 4096

type reactor struct {
	clock Clock

	tasks chan func()

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	release func()
}

// Option configures a Reactor at construction time.
type Option func(r *reactor)

// WithClock overrides the timer source; used by tests.
func WithClock(c Clock) Option {
	return func(r *reactor) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithTaskBuffer overrides the posted-task channel's buffer depth.
func WithTaskBuffer(n int) Option {
	return func(r *reactor) {
		if n > 0 {
			r.tasks = make(chan func(), n)
		}
	}
}

// New builds a Reactor. It is not running until Run is called.
func New(opts ...Option) Reactor {
	r := &reactor{
		clock: realClock{},
		tasks: make(chan func(), defaultTaskBuffer),
		stop:  make(chan struct{}),
	}

	for _, o := range opts {
		o(r)
	}

	return r
}

func (r *reactor) SetReleaseHook(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release = fn
}

// Run is the single dispatch goroutine: it pulls one posted task at a time
// and executes it, uninterrupted by any other callback — exactly one
// reactor goroutine ever executes callbacks, and no mutex is held across
// one. After each task it invokes the release hook, mirroring the source's
// per-iteration hook that drains the deferred-event queue.
func (r *reactor) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrorAlreadyRunning.Error(nil)
	}
	r.running = true
	r.stop = make(chan struct{})
	stop := r.stop
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-stop:
			return nil
		case fn := <-r.tasks:
			fn()
			r.mu.Lock()
			release := r.release
			r.mu.Unlock()
			if release != nil {
				release()
			}
		}
	}
}

func (r *reactor) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

func (r *reactor) Post(fn func()) {
	if fn == nil {
		return
	}
	r.tasks <- fn
}
