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

// Package reactor binds a single dispatch goroutine to the rest of the
// runtime: every user callback (connect, read, write-complete, close,
// timer, deferred event) is posted onto one channel and executed by one
// goroutine, in arrival order, with no lock held across the call. This is
// the Go-native reading of the source's single-threaded readiness-notification
// loop — per-FD blocking I/O runs on its own goroutine and hands results to
// the reactor through Post, rather than a manual epoll/WANT_READ state
// machine.
package reactor

import (
	"context"
	"time"
)

// Clock abstracts the timer source so tests can control timer firing
// without sleeping in real time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) ClockTimer
}

// ClockTimer is the subset of *time.Timer the reactor needs.
type ClockTimer interface {
	Stop() bool
	Reset(d time.Duration) bool
}

// Reactor is the single-dispatch-goroutine event loop. All of its exported
// methods are safe to call from any goroutine; the callbacks it invokes
// always run on the one goroutine started by Run.
type Reactor interface {
	// Run drains posted tasks and fired timers on the calling goroutine
	// until ctx is cancelled or Stop is called. Only one Run may be active
	// at a time.
	Run(ctx context.Context) error

	// Stop asks Run to return after its current callback finishes.
	Stop()

	// Post is the async-wakeup primitive: it enqueues fn to run on the
	// dispatch goroutine, serialized with every other posted task. This is
	// the channel-based analogue of the source's self-pipe UDP wakeup
	// socket — cross-goroutine signaling without a loopback socket.
	Post(fn func())

	// After arms a one-shot timer: fn is posted to the dispatch goroutine
	// once, after d elapses.
	After(d time.Duration, fn func()) *Timer

	// Repeat arms a timer that posts fn every interval d, starting after
	// the first d elapses, until Stopped.
	Repeat(d time.Duration, fn func()) *Timer

	// SetReleaseHook installs the per-iteration release hook invoked after
	// every dispatched task. The SXE runtime wires this to its deferred-event
	// drain: once per loop iteration, queued deferred events are flipped
	// back to USED and invoked in FIFO order.
	SetReleaseHook(fn func())
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) ClockTimer {
	return time.AfterFunc(d, f)
}
