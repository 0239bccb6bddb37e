/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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

// Package startStop drives one long-lived background function with a
// start/stop lifecycle: Start launches the function asynchronously, Stop
// cancels its context and runs the stop function, Restart chains both.
// Errors raised by either function are collected rather than returned from
// the lifecycle calls, since the function outlives the call that started it.
package startStop

import (
	"context"
	"time"

	libatm "github.com/nabbar/sxe/atomic"
	librun "github.com/nabbar/sxe/runner"
)

// StartStop runs one background function with start/stop semantics.
type StartStop interface {
	// Start launches the start function in a background goroutine and
	// returns immediately. The goroutine's context derives from ctx and is
	// cancelled by Stop. Errors raised by the start function, including a
	// nil start function, are recorded in the error list.
	Start(ctx context.Context) error

	// Stop cancels the running start function's context, invokes the stop
	// function and waits for the background goroutine to exit or ctx to
	// expire. Errors raised by the stop function are recorded in the error
	// list. Stop is idempotent.
	Stop(ctx context.Context) error

	// Restart chains Stop then Start.
	Restart(ctx context.Context) error

	// IsRunning reports whether the start function is currently executing.
	IsRunning() bool

	// Uptime returns the duration since the start function began running,
	// or zero when stopped.
	Uptime() time.Duration

	// ErrorsLast returns the most recently recorded error, or nil.
	ErrorsLast() error

	// ErrorsList returns a copy of every recorded error, oldest first.
	ErrorsList() []error
}

// New returns a StartStop driving the given start and stop functions.
// Either may be nil; a nil function is reported as an error at the time the
// lifecycle would have invoked it.
func New(start, stop librun.FuncAction) StartStop {
	return &run{
		fs: start,
		fp: stop,
		cx: libatm.NewValue[context.CancelFunc](),
		ch: libatm.NewValue[chan struct{}](),
		tm: libatm.NewValue[time.Time](),
		er: libatm.NewValue[[]error](),
	}
}
