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

package sxe

import (
	"reflect"

	loglvl "github.com/nabbar/sxe/logger/level"
	"github.com/nabbar/sxe/pool"
)

// deferFunc requests fn run once, on the dispatch goroutine, on the next
// loop iteration. It moves the endpoint USED->DEFERRED: the pool.Pool state
// transition itself *is* the deferred-event queue, reusing the same
// LRU-ordered state lists that back the pool's other states rather than
// introducing a separate queue structure.
//
// At most one deferred function may be pending per endpoint. A second
// request with the same fn is a no-op (the source: "idempotent within a
// single tick"); a second request with a different fn is a programmer
// error, logged and reported as ErrorDeferredPending.
func (r *runtime) deferFunc(id pool.Index, fn func()) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if e.deferredFn != nil {
		already := e.deferredFn
		e.mu.Unlock()
		if sameFunc(already, fn) {
			return nil
		}
		r.logEntry(loglvl.ErrorLevel, "endpoint %d: second deferred callback requested with a different function", id)
		return ErrorDeferredPending.Error(nil)
	}
	e.deferredFn = fn
	e.mu.Unlock()

	if err := r.pl.SetState(id, StateUsed, StateDeferred); err != nil {
		e.mu.Lock()
		e.deferredFn = nil
		e.mu.Unlock()
		return err
	}
	return nil
}

// sameFunc approximates func identity via its underlying code pointer,
// since func values are not comparable with ==. This correctly recognizes a
// re-issued request for the same named deferral (resume-immediate,
// SSL-read-restart — the only two the source ever defers) and only
// misclassifies genuinely distinct closures sharing one literal, which none
// of this package's deferrals do.
func sameFunc(a, b func()) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

// drainDeferred is the reactor's release hook: once per dispatched task, up
// to maxDeferredPerTick DEFERRED endpoints are flipped back to USED and
// their deferred function invoked, in FIFO order (oldest-deferred first).
func (r *runtime) drainDeferred() {
	for i := 0; i < maxDeferredPerTick; i++ {
		id := r.pl.GetOldestIndex(StateDeferred)
		if id == pool.NoIndex {
			return
		}

		e := r.endpoint(id)
		if e == nil {
			// Closed out from under the deferred state; nothing to run.
			return
		}

		e.mu.Lock()
		fn := e.deferredFn
		e.deferredFn = nil
		e.mu.Unlock()

		if err := r.pl.SetState(id, StateDeferred, StateUsed); err != nil {
			r.logEntry(loglvl.ErrorLevel, "endpoint %d: failed to drain deferred state: %v", id, err)
			return
		}

		if fn != nil {
			fn()
		}
	}
}
