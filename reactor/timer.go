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
	"sync"
	"time"
)

// Timer is a handle to a scheduled, possibly-repeating callback. Every fire
// is posted through Reactor.Post, so the callback itself always runs on the
// dispatch goroutine, never on the clock's own timer goroutine.
type Timer struct {
	r       *reactor
	fn      func()
	mu      sync.Mutex
	ct      ClockTimer
	repeat  time.Duration
	auto    bool
	stopped bool
}

func (r *reactor) After(d time.Duration, fn func()) *Timer {
	t := &Timer{r: r, fn: fn}
	t.ct = r.clock.AfterFunc(d, func() { r.Post(fn) })
	return t
}

func (r *reactor) Repeat(d time.Duration, fn func()) *Timer {
	t := &Timer{r: r, fn: fn, repeat: d, auto: true}
	t.arm(d)
	return t
}

// arm schedules the next clock fire. For an auto-repeating Timer, each fire
// re-arms itself for the next interval before returning, so Stop always
// observes a consistent "will this fire again" state.
func (t *Timer) arm(d time.Duration) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.ct = t.r.clock.AfterFunc(d, func() {
		t.r.Post(t.fn)

		t.mu.Lock()
		auto := t.auto
		stopped := t.stopped
		repeat := t.repeat
		t.mu.Unlock()

		if auto && !stopped {
			t.arm(repeat)
		}
	})
}

// Stop cancels the pending fire (and, for a repeating Timer, all future
// ones). It returns false if the timer had already fired and was not
// repeating.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	t.stopped = true
	ct := t.ct
	t.mu.Unlock()

	if ct == nil {
		return false
	}
	return ct.Stop()
}

// Again restarts the timer to fire after d, as if freshly armed — the
// Go-native reading of the source's sxe_timer_again, which restarts a
// stopped timer using its repeat interval.
func (t *Timer) Again(d time.Duration) {
	t.mu.Lock()
	t.stopped = false
	t.mu.Unlock()
	t.arm(d)
}
