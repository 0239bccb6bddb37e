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
	"crypto/tls"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/nabbar/sxe/certificates"
	"github.com/nabbar/sxe/network/protocol"
	"github.com/nabbar/sxe/pool"
	"github.com/nabbar/sxe/reactor"
)

// transport is the tagged-variant dispatch point for plain vs TLS I/O:
// ConnectionMode is Plain or Secure, and every I/O method dispatches on the
// tag. Both implementations are a net.Conn; *tls.Conn already folds the
// handshake and record layer into Read/Write, so the runtime's read/write
// pumps never branch on SSL themselves — they branch on Mode() only where
// plain and secure connections behave visibly differently (close handshake,
// post-hoc verification info).
type transport interface {
	net.Conn
	Mode() ConnectionMode
}

type plainTransport struct{ net.Conn }

func (plainTransport) Mode() ConnectionMode { return ModePlain }

type tlsTransport struct{ *tls.Conn }

func (tlsTransport) Mode() ConnectionMode { return ModeSecure }

// sslInfo mirrors the source's per-SXE TLS session record, populated once
// the handshake reaches ESTABLISHED.
type sslInfo struct {
	cfg        certificates.TLSConfig
	serverName string
	verified   bool
	cipher     string
	version    uint16
	peerCN     string
	peerIssuer string
}

// endpoint is one pool slot's payload: everything the source's `struct sxe`
// holds, minus the fields the Go translation doesn't need (id/flags for
// pool bookkeeping are covered by pool.Pool and the Flag bitfield here).
type endpoint struct {
	mu sync.Mutex

	id        pool.Index
	sessionID uuid.UUID
	kind      protocol.NetworkProtocol
	flags     Flag

	rt  *runtime
	rtr reactor.Reactor

	transport transport
	listener  net.Listener
	packet    net.PacketConn
	unixConn  *net.UnixConn

	localAddr net.Addr
	peerAddr  net.Addr

	inBuf       []byte
	inTotal     int
	inConsumed  int
	readStopped bool
	overflow    []byte
	stallCh     chan struct{}

	sendList     []*Buffer
	sendfileBusy bool
	writeCh      chan struct{}
	writeWaiters []func()

	ssl *sslInfo

	onConnected OnConnected
	onRead      OnRead
	onClose     OnClose

	nextSocket net.Conn // pipe FD handoff, awaiting rebind

	deferredFn func()

	userData interface{}

	closed bool
	cancel context.CancelFunc
}

func newEndpoint(rt *runtime, kind protocol.NetworkProtocol, flags Flag) *endpoint {
	return &endpoint{
		rt:    rt,
		rtr:   rt.rtr,
		kind:  kind,
		flags: flags,
		inBuf: make([]byte, rt.inBufLen),
	}
}

func (e *endpoint) setTransport(conn net.Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transport = plainTransport{conn}
	e.localAddr = conn.LocalAddr()
	e.peerAddr = conn.RemoteAddr()
	if uc, ok := conn.(*net.UnixConn); ok {
		e.unixConn = uc
	}
}

func (e *endpoint) setTLSTransport(conn *tls.Conn) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transport = tlsTransport{conn}
	e.localAddr = conn.LocalAddr()
	e.peerAddr = conn.RemoteAddr()
}

// writeSignal returns the channel the write pump should block on when its
// send list is empty, creating one if needed. Caller holds e.mu.
func (e *endpoint) writeSignal() chan struct{} {
	if e.writeCh == nil {
		e.writeCh = make(chan struct{})
	}
	return e.writeCh
}

// wakeWriter releases a write pump parked in writeSignal's channel.
func (e *endpoint) wakeWriter() {
	e.mu.Lock()
	ch := e.writeCh
	e.writeCh = nil
	e.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}
