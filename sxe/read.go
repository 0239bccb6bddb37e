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
	"context"
	"errors"
	"io"
	"net"

	"github.com/nabbar/sxe/pool"
)

// runReadPump is the per-endpoint goroutine performing blocking reads off a
// stream transport. Each successful read is handed to the dispatch
// goroutine via Post, which is where in_buf/in_total/in_consumed are
// actually mutated and on_read invoked — the Go-native reading of the
// source's single-threaded read-readiness callback, with the blocking
// syscall itself running off the dispatch goroutine instead of being
// multiplexed by a manual poller.
//
// Before every read the pump calls waitForRoom, the translation of "stop
// the read watcher until the caller consumes": rather than an epoll
// deregistration, the pump simply does not call conn.Read again while
// in_buf has no room and nothing already read is waiting to be delivered.
func (r *runtime) runReadPump(ctx context.Context, id pool.Index, conn net.Conn) {
	buf := make([]byte, 32*1024)
	for {
		if !r.waitForRoom(ctx, id) {
			return
		}

		n, err := conn.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			done := make(chan struct{})
			r.rtr.Post(func() {
				defer close(done)
				r.onReadData(id, chunk)
			})
			select {
			case <-done:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			select {
			case <-ctx.Done():
				// cancelled by close or a transport rebind; the error only
				// reports the old conn going away
			default:
				r.rtr.Post(func() { r.onReadError(id, err) })
			}
			return
		}
	}
}

// waitForRoom blocks the calling read pump while the endpoint has no room
// for more bytes (in_buf full and nothing consumed, or an earlier read
// still waiting to be folded in), returning false if ctx is cancelled
// first.
func (r *runtime) waitForRoom(ctx context.Context, id pool.Index) bool {
	for {
		e := r.endpoint(id)
		if e == nil {
			return false
		}

		e.mu.Lock()
		if len(e.overflow) == 0 && !e.readStopped {
			e.mu.Unlock()
			return true
		}
		if e.stallCh == nil {
			e.stallCh = make(chan struct{})
		}
		ch := e.stallCh
		e.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return false
		}
	}
}

// wakeStalled signals any read pump blocked in waitForRoom that room may
// now be available. Caller holds no lock on e.
func (e *endpoint) wakeStalled() {
	e.mu.Lock()
	ch := e.stallCh
	e.stallCh = nil
	e.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// onReadData folds newly read bytes into in_buf and invokes on_read,
// unless the endpoint is PAUSED. Bytes that do not fit are held in
// e.overflow rather than delivered — the source's read watcher would
// simply not have been given them yet. Runs on the dispatch goroutine.
func (r *runtime) onReadData(id pool.Index, chunk []byte) {
	e := r.endpoint(id)
	if e == nil {
		return
	}

	e.mu.Lock()
	e.foldLocked(chunk)
	paused := e.flags.Has(FlagPaused)
	onRead := e.onRead
	delivered := e.inTotal - e.inConsumed
	e.mu.Unlock()

	if !paused && onRead != nil && delivered > 0 {
		onRead(&Sxe{rt: r, id: id}, delivered)
	}
}

// foldLocked copies as much of chunk into in_buf as fits, left-shifting
// first if anything has already been consumed. Leftover bytes become (or
// extend) e.overflow, and e.readStopped is set so the pump stalls until
// room frees. Caller holds e.mu.
func (e *endpoint) foldLocked(chunk []byte) {
	room := len(e.inBuf) - e.inTotal
	if room < len(chunk) && e.inConsumed > 0 {
		copy(e.inBuf, e.inBuf[e.inConsumed:e.inTotal])
		e.inTotal -= e.inConsumed
		e.inConsumed = 0
		room = len(e.inBuf) - e.inTotal
	}

	n := len(chunk)
	if n > room {
		n = room
	}
	copy(e.inBuf[e.inTotal:], chunk[:n])
	e.inTotal += n

	if n < len(chunk) {
		e.overflow = append(e.overflow, chunk[n:]...)
		e.readStopped = true
	}
}

// drainOverflow is called after BufConsume/BufResume frees room: it folds
// as much of e.overflow back into in_buf as now fits, clearing readStopped
// and waking the read pump once overflow is exhausted.
func (r *runtime) drainOverflow(id pool.Index) {
	e := r.endpoint(id)
	if e == nil {
		return
	}

	e.mu.Lock()
	if len(e.overflow) == 0 {
		e.mu.Unlock()
		return
	}
	rest := e.overflow
	e.overflow = nil
	e.readStopped = false
	e.foldLocked(rest)
	e.mu.Unlock()

	e.wakeStalled()
}

func (r *runtime) onReadError(id pool.Index, err error) {
	if errors.Is(err, io.EOF) {
		_ = r.closeEndpoint(id, nil)
		return
	}
	_ = r.closeEndpoint(id, ErrorNoConnection.Error(err))
}

// bufConsume advances in_consumed by n, sets PAUSED, and frees room for
// any overflowed bytes held back by the full-buffer stall.
func (r *runtime) bufConsume(id pool.Index, n int) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if n < 0 || e.inConsumed+n > e.inTotal {
		e.mu.Unlock()
		return ErrorParamsInvalid.Error(nil)
	}
	e.inConsumed += n
	e.flags |= FlagPaused
	e.mu.Unlock()

	r.drainOverflow(id)
	r.drainPipeHandoff(id)
	return nil
}

// bufResume reactivates read delivery. ResumeImmediate synthesizes a read
// callback for whatever remains buffered, deferred to the next loop tick so
// it never re-enters the caller. If the buffer had been full when paused,
// resume left-shifts and re-arms reading via drainOverflow.
func (r *runtime) bufResume(id pool.Index, mode ResumeMode) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	e.flags &^= FlagPaused
	e.mu.Unlock()

	r.drainOverflow(id)

	e.mu.Lock()
	remaining := e.inTotal - e.inConsumed
	e.mu.Unlock()

	if mode == ResumeImmediate && remaining > 0 {
		return r.deferFunc(id, func() {
			e := r.endpoint(id)
			if e == nil {
				return
			}
			e.mu.Lock()
			onRead := e.onRead
			n := e.inTotal - e.inConsumed
			paused := e.flags.Has(FlagPaused)
			e.mu.Unlock()
			if !paused && onRead != nil && n > 0 {
				onRead(&Sxe{rt: r, id: id}, n)
			}
		})
	}
	return nil
}

// pause stops read delivery without consuming anything (equivalent to
// BufConsume(0)).
func (r *runtime) pause(id pool.Index) error {
	return r.bufConsume(id, 0)
}

// bufClear discards everything currently buffered, unclogging a stalled
// read pump and letting a pending pipe handoff rebind.
func (r *runtime) bufClear(id pool.Index) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	e.inTotal, e.inConsumed = 0, 0
	e.mu.Unlock()

	r.drainOverflow(id)
	r.drainPipeHandoff(id)
	e.wakeStalled()
	return nil
}
