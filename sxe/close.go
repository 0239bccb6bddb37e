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
	"github.com/nabbar/sxe/pool"
)

// closeEndpoint tears the endpoint down idempotently: stops its I/O,
// fires every pending send-buffer callback with err (ErrorAlreadyClosed's
// underlying err when nil), invokes on_close exactly once, and returns the
// slot to FREE. It is safe to call from any goroutine, including from
// within a callback already running on the dispatch goroutine; the slot is
// not reused until that outer callback returns.
func (r *runtime) closeEndpoint(id pool.Index, err error) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorAlreadyClosed.Error(nil)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrorAlreadyClosed.Error(nil)
	}
	e.closed = true

	cancel := e.cancel
	conn := e.transport
	listener := e.listener
	pktConn := e.packet
	pending := e.sendList
	e.sendList = nil
	onClose := e.onClose
	nextSocket := e.nextSocket
	e.nextSocket = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if listener != nil {
		_ = listener.Close()
	}
	if pktConn != nil {
		_ = pktConn.Close()
	}
	if nextSocket != nil {
		_ = nextSocket.Close()
	}

	ferr := err
	if ferr == nil {
		// a requested close still fails the buffers it cut short: the
		// completion callback is the caller's storage release point and must
		// carry a failure code, not success
		ferr = ErrorAlreadyClosed.Error(nil)
	}
	for _, b := range pending {
		b.finish(ferr)
	}

	r.release(id)

	if onClose != nil {
		s := &Sxe{rt: r, id: id}
		onClose(s, err)
	}

	return nil
}
