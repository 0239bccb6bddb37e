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
	"net"
	"os"

	"github.com/nabbar/sxe/pool"
)

// runWritePump is the per-endpoint goroutine draining send_list. Unlike the
// source's non-blocking OS send looping under WANT_WRITE, net.Conn.Write
// already blocks until a buffer is fully written or a hard error occurs —
// so one Write call per buffer plays the role of the source's per-buffer
// partial-write loop, and the pump only ever blocks between buffers, never
// mid-buffer. Every buffer's completion callback still fires in drain
// order, on the dispatch goroutine.
func (r *runtime) runWritePump(ctx context.Context, id pool.Index, conn net.Conn) {
	e := r.endpoint(id)
	if e == nil {
		return
	}

	for {
		e.mu.Lock()
		if len(e.sendList) == 0 {
			ch := e.writeSignal()
			e.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return
			}
		}
		buf := e.sendList[0]
		e.mu.Unlock()

		_, err := conn.Write(buf.remaining())
		if err != nil {
			r.rtr.Post(func() { r.onWriteError(id, err) })
			return
		}
		buf.consumed = len(buf.Data)

		e.mu.Lock()
		e.sendList = e.sendList[1:]
		empty := len(e.sendList) == 0
		var waiters []func()
		if empty {
			waiters = e.writeWaiters
			e.writeWaiters = nil
		}
		e.mu.Unlock()

		r.rtr.Post(func() { buf.finish(nil) })
		for _, w := range waiters {
			r.rtr.Post(w)
		}
	}
}

func (r *runtime) onWriteError(id pool.Index, err error) {
	_ = r.closeEndpoint(id, ErrorWriteFailed.Error(err))
}

// sendBuffer appends buf to the send list and wakes the write pump. It
// never blocks the caller: completion (success or failure) is reported
// through buf's own callback, so a successful enqueue returns Pending, not
// nil — mirroring the source's InProgress for an operation accepted but not
// yet complete.
func (r *runtime) sendBuffer(id pool.Index, buf *Buffer) error {
	if buf == nil {
		return ErrorParamsInvalid.Error(nil)
	}
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrorAlreadyClosed.Error(nil)
	}
	e.sendList = append(e.sendList, buf)
	e.mu.Unlock()

	e.wakeWriter()
	return Pending
}

// sendBuffers enqueues every buffer in list; onComplete fires exactly once,
// wrapped onto the last buffer's own completion, once the whole list has
// drained or the first failure closes the endpoint.
func (r *runtime) sendBuffers(id pool.Index, list []*Buffer, onComplete OnComplete) error {
	if len(list) == 0 {
		if onComplete != nil {
			onComplete(nil)
		}
		return nil
	}

	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrorAlreadyClosed.Error(nil)
	}
	if e.sendfileBusy {
		e.mu.Unlock()
		return ErrorSendfilePending.Error(nil)
	}

	last := list[len(list)-1]
	origDone := last.onDone
	last.onDone = func(err error) {
		if origDone != nil {
			origDone(err)
		}
		if onComplete != nil {
			onComplete(err)
		}
	}

	e.sendList = append(e.sendList, list...)
	e.mu.Unlock()

	e.wakeWriter()
	return Pending
}

// sendfile reads up to total bytes from f at *offset into memory and
// enqueues them as one Buffer, advancing *offset by the number read. Unlike
// the source's zero-copy sendfile(2), this routes through the ordinary
// write pump: the buffer abstraction already gives partial-write/back-
// pressure handling, and a second sendfile/send_buffers call is rejected
// with ErrorSendfilePending while one is in flight, per spec ("only one of
// the two may be pending").
func (r *runtime) sendfile(id pool.Index, f *os.File, offset *int64, total int64, onComplete OnComplete) error {
	if f == nil || total <= 0 {
		return ErrorParamsInvalid.Error(nil)
	}

	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrorAlreadyClosed.Error(nil)
	}
	if e.sendfileBusy {
		e.mu.Unlock()
		return ErrorSendfilePending.Error(nil)
	}
	e.sendfileBusy = true
	e.mu.Unlock()

	clearBusy := func() {
		e.mu.Lock()
		e.sendfileBusy = false
		e.mu.Unlock()
	}

	data := make([]byte, total)
	n, err := f.ReadAt(data, *offset)
	if n == 0 {
		clearBusy()
		finalErr := ErrorEndOfFile.Error(err)
		if onComplete != nil {
			onComplete(finalErr)
		}
		return finalErr
	}

	*offset += int64(n)

	buf := NewBuffer(data[:n], func(werr error) {
		clearBusy()
		if onComplete != nil {
			onComplete(werr)
		}
	})

	return r.sendBuffer(id, buf)
}

// writeTo sends one datagram to dst on a packet endpoint, the reply path of
// a bound UDP/unixgram socket whose peers are only known per-datagram.
func (r *runtime) writeTo(id pool.Index, dst net.Addr, data []byte) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	pc := e.packet
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return ErrorAlreadyClosed.Error(nil)
	}
	if pc == nil {
		return ErrorNoConnection.Error(nil)
	}

	if _, err := pc.WriteTo(data, dst); err != nil {
		return ErrorWriteFailed.Error(err)
	}
	return nil
}

// notifyWritable rearms write-readiness notification without enqueuing
// anything: if nothing is pending the endpoint is writable right now, so cb
// is posted on the next dispatch tick; otherwise cb joins the waiters woken
// once the send list next empties.
func (r *runtime) notifyWritable(id pool.Index, cb func()) error {
	if cb == nil {
		return nil
	}
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if len(e.sendList) == 0 {
		e.mu.Unlock()
		r.rtr.Post(cb)
		return nil
	}
	e.writeWaiters = append(e.writeWaiters, cb)
	e.mu.Unlock()
	return nil
}
