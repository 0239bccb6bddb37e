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

// Package semaphore bounds a group of worker goroutines with a weighted
// semaphore and optionally renders their progress through MPB terminal
// progress bars. A Semaphore is also a context.Context so worker code can
// select on its cancellation directly.
package semaphore

import (
	"context"
	"runtime"
	"sync/atomic"

	sdkmpb "github.com/vbauerster/mpb/v8"
	sdksem "golang.org/x/sync/semaphore"
)

// SemBar is one progress bar bound to a Semaphore: incrementing it renders
// progress, and the embedded worker operations acquire/release the owning
// semaphore while keeping the bar in step.
type SemBar interface {
	// Total returns the bar's configured total, or zero for a dropped or
	// progress-less bar.
	Total() int64

	// Current returns the bar's current progression.
	Current() int64

	// Inc increments the progression by n.
	Inc(n int)

	// Inc64 increments the progression by n.
	Inc64(n int64)

	// Reset rewinds the progression to zero.
	Reset()

	// Complete marks the bar as finished.
	Complete()

	// Completed reports whether the bar has finished.
	Completed() bool

	// NewWorker acquires one slot of the owning semaphore.
	NewWorker() error

	// NewWorkerTry acquires one slot without blocking.
	NewWorkerTry() bool

	// DeferWorker increments the bar by one then releases the slot.
	DeferWorker()
}

// Semaphore bounds a group of worker goroutines. It is also the
// context.Context the workers should run under.
type Semaphore interface {
	context.Context

	// Weighted returns the configured concurrency bound, or a negative
	// value when unlimited.
	Weighted() int64

	// NewWorker blocks until one slot is free then acquires it.
	NewWorker() error

	// NewWorkerTry acquires one slot without blocking.
	NewWorkerTry() bool

	// DeferWorker releases one slot.
	DeferWorker()

	// WaitAll blocks until every acquired slot has been released.
	WaitAll() error

	// DeferMain cancels the semaphore's context and releases the progress
	// renderer.
	DeferMain()

	// BarBytes adds a byte-counting progress bar queued after prev.
	BarBytes(title, msg string, total int64, drop bool, prev SemBar) SemBar

	// BarTime adds an elapsed-time progress bar queued after prev.
	BarTime(title, msg string, total int64, drop bool, prev SemBar) SemBar

	// BarNumber adds a plain counting progress bar queued after prev.
	BarNumber(title, msg string, total int64, drop bool, prev SemBar) SemBar

	// BarOpts adds an undecorated progress bar.
	BarOpts(total int64, drop bool) SemBar
}

// maxSimultaneous is the process-wide default concurrency bound.
var maxSimultaneous = func() *atomic.Int64 {
	v := new(atomic.Int64)
	v.Store(int64(runtime.NumCPU() * 8))
	return v
}()

// MaxSimultaneous returns the process-wide default concurrency bound.
func MaxSimultaneous() int {
	return int(maxSimultaneous.Load())
}

// SetSimultaneous clamps the given bound to the valid range: a value lower
// than one falls back to MaxSimultaneous. It returns the effective bound.
func SetSimultaneous(n int64) int64 {
	if n < 1 {
		return int64(MaxSimultaneous())
	}

	return n
}

// New returns a Semaphore bounded to nbr simultaneous workers (negative for
// unlimited), rendering progress bars when progress is true. Call DeferMain
// once done with it.
func New(ctx context.Context, nbr int64, progress bool) Semaphore {
	if ctx == nil {
		ctx = context.Background()
	}

	x, n := context.WithCancel(ctx)

	s := &sem{
		Context: x,
		cnl:     n,
		nbr:     nbr,
	}

	if nbr > 0 {
		s.sem = sdksem.NewWeighted(nbr)
	}

	if progress {
		s.mpb = sdkmpb.NewWithContext(x)
	}

	return s
}
