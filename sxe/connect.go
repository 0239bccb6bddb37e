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
	"net"

	"github.com/nabbar/sxe/pool"
)

// connect dials peerAddr on its own goroutine and reports the outcome back
// on the dispatch goroutine. The source's connect() arms a WANT_WRITE watch
// on a non-blocking socket and treats its firing as "connected"; net.Dial
// already blocks until TCP's handshake completes or fails, so the dial
// goroutine plays that watch's role directly, with no EINPROGRESS polling
// needed on this side.
func (r *runtime) connect(id pool.Index, peerAddr string) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if e.transport != nil || e.listener != nil || e.packet != nil {
		e.mu.Unlock()
		return ErrorAlreadyConnected.Error(nil)
	}
	kind := e.kind
	ssl := e.ssl
	e.mu.Unlock()

	go r.runConnect(id, kind.String(), peerAddr, ssl)
	return nil
}

func (r *runtime) runConnect(id pool.Index, network, peerAddr string, ssl *sslInfo) {
	conn, err := net.Dial(network, peerAddr)
	if err != nil {
		r.rtr.Post(func() { r.onConnectError(id, err) })
		return
	}

	if ssl != nil {
		r.beginClientHandshake(id, conn, ssl)
		return
	}

	r.rtr.Post(func() { r.wireConnectedConn(id, conn) })
}

func (r *runtime) onConnectError(id pool.Index, err error) {
	_ = r.closeEndpoint(id, ErrorNoConnection.Error(err))
}
