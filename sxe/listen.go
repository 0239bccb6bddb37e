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
	"strings"

	loglvl "github.com/nabbar/sxe/logger/level"
	"github.com/nabbar/sxe/network/protocol"
	"github.com/nabbar/sxe/pool"
)

// NewTCP claims a FREE slot for a TCP endpoint; call Listen to accept or
// Connect to dial out.
func (r *runtime) NewTCP(onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error) {
	e := newEndpoint(r, protocol.NetworkTCP, FlagStream)
	e.onConnected, e.onRead, e.onClose = onConnected, onRead, onClose
	return r.claim(e)
}

// NewUDP claims a FREE slot for a UDP endpoint; onRead delivers each
// datagram as it arrives, up to the runtime's configured burst per wakeup.
func (r *runtime) NewUDP(localAddr string, onRead OnRead) (*Sxe, error) {
	e := newEndpoint(r, protocol.NetworkUDP, 0)
	e.onRead = onRead
	s, err := r.claim(e)
	if err != nil {
		return nil, err
	}
	if localAddr != "" {
		if err := r.listen(s.id, localAddr); err != nil {
			r.release(s.id)
			return nil, err
		}
	}
	return s, nil
}

// NewUnixGram claims a FREE slot for a UNIX-domain datagram endpoint, the
// filesystem-path analogue of NewUDP.
func (r *runtime) NewUnixGram(path string, onRead OnRead) (*Sxe, error) {
	e := newEndpoint(r, protocol.NetworkUnixGram, 0)
	e.onRead = onRead
	s, err := r.claim(e)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := r.listen(s.id, path); err != nil {
			r.release(s.id)
			return nil, err
		}
	}
	return s, nil
}

// NewUDPClient claims a FREE slot for a UDP endpoint that dials a single
// peer via Connect, the datagram analogue of NewTCP: a connected UDP socket
// (net.Dial("udp", ...)) reads and writes like any other net.Conn, so it
// flows through the same stream pumps as a dialed TCP connection.
func (r *runtime) NewUDPClient(onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error) {
	e := newEndpoint(r, protocol.NetworkUDP, FlagStream)
	e.onConnected, e.onRead, e.onClose = onConnected, onRead, onClose
	return r.claim(e)
}

// NewUnixGramClient is NewUDPClient's UNIX-domain datagram counterpart.
func (r *runtime) NewUnixGramClient(onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error) {
	e := newEndpoint(r, protocol.NetworkUnixGram, FlagStream)
	e.onConnected, e.onRead, e.onClose = onConnected, onRead, onClose
	return r.claim(e)
}

// NewPipe claims a FREE slot for a UNIX-domain stream endpoint, capable of
// receiving one handed-over file descriptor per message.
func (r *runtime) NewPipe(onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error) {
	e := newEndpoint(r, protocol.NetworkUnix, FlagStream)
	e.onConnected, e.onRead, e.onClose = onConnected, onRead, onClose
	return r.claim(e)
}

// NewSocketPair claims two FREE slots joined by an anonymous UNIX
// socketpair, both already connected — the target-language analogue of
// new_socketpair, since Go has no portable syscall.Socketpair wrapper in
// net but net.Pipe gives the same in-process, already-connected duplex
// endpoint semantics without a kernel round-trip.
func (r *runtime) NewSocketPair(onRead OnRead, onClose OnClose) (*Sxe, *Sxe, error) {
	a := newEndpoint(r, protocol.NetworkUnix, FlagStream)
	b := newEndpoint(r, protocol.NetworkUnix, FlagStream)
	a.onRead, a.onClose = onRead, onClose
	b.onRead, b.onClose = onRead, onClose

	sa, err := r.claim(a)
	if err != nil {
		return nil, nil, err
	}
	sb, err := r.claim(b)
	if err != nil {
		r.release(sa.id)
		return nil, nil, err
	}

	connA, connB := net.Pipe()
	r.wireConnectedConn(sa.id, connA)
	r.wireConnectedConn(sb.id, connB)

	return sa, sb, nil
}

// NewFromConn claims a FREE slot for an already-established net.Conn (e.g.
// a spawned child process's stdio, adapted to net.Conn) and wires it as if
// it had just finished connecting: the same startPumps/onConnected path
// every dialed or accepted endpoint goes through.
func (r *runtime) NewFromConn(conn net.Conn, onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error) {
	if conn == nil {
		return nil, ErrorParamsInvalid.Error(nil)
	}

	e := newEndpoint(r, protocol.NetworkUnix, FlagStream)
	e.onConnected, e.onRead, e.onClose = onConnected, onRead, onClose

	s, err := r.claim(e)
	if err != nil {
		return nil, err
	}

	r.wireConnectedConn(s.id, conn)
	return s, nil
}

// listen binds and, for stream kinds, installs an accept loop; for
// datagram kinds, installs the receive loop directly.
func (r *runtime) listen(id pool.Index, localAddr string) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if e.listener != nil || e.packet != nil || e.transport != nil {
		e.mu.Unlock()
		return ErrorAlreadyConnected.Error(nil)
	}
	kind := e.kind
	e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())

	if kind.IsPacket() {
		pc, err := net.ListenPacket(kind.String(), localAddr)
		if err != nil {
			cancel()
			return mapBindError(err)
		}
		e.mu.Lock()
		e.packet = pc
		e.localAddr = pc.LocalAddr()
		e.cancel = cancel
		e.mu.Unlock()
		go r.runUDPPump(ctx, id, pc)
		return nil
	}

	network := kind.String()
	if kind.IsUnix() {
		network = "unix"
	}
	ln, err := net.Listen(network, localAddr)
	if err != nil {
		cancel()
		return mapBindError(err)
	}

	e.mu.Lock()
	e.listener = ln
	e.localAddr = ln.Addr()
	e.cancel = cancel
	e.mu.Unlock()

	go r.runAcceptPump(ctx, id, ln)
	return nil
}

// mapBindError classifies bind/listen failures: EADDRINUSE becomes
// ErrorAddressInUse, everything else Internal.
func mapBindError(err error) error {
	if strings.Contains(err.Error(), "address already in use") {
		return ErrorAddressInUse.Error(err)
	}
	return ErrorInternal.Error(err)
}

// runAcceptPump loops ln.Accept() until it fails or ctx is cancelled,
// handing each accepted connection to the dispatch goroutine. The source
// drains the accept queue until EWOULDBLOCK per wakeup; Accept's blocking
// semantics already give the same "one loop, one connection at a time"
// shape without a manual drain-until-would-block check.
func (r *runtime) runAcceptPump(ctx context.Context, id pool.Index, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			return
		}
		r.rtr.Post(func() { r.onAccept(id, conn) })
	}
}

// onAccept mints (or, under FlagOneShot, transmutes) an endpoint for conn,
// copying the listener's callbacks, flags, and SSL configuration. Running
// out of slots logs a warning and closes the raw connection, matching the
// source's burst-accept-exhaustion behavior exactly.
func (r *runtime) onAccept(listenerID pool.Index, conn net.Conn) {
	parent := r.endpoint(listenerID)
	if parent == nil {
		_ = conn.Close()
		return
	}

	parent.mu.Lock()
	oneShot := parent.flags.Has(FlagOneShot)
	onConnected := parent.onConnected
	onRead := parent.onRead
	onClose := parent.onClose
	ssl := parent.ssl
	parent.mu.Unlock()

	if oneShot {
		parent.mu.Lock()
		parent.listener = nil
		parent.mu.Unlock()
		r.wireAccepted(listenerID, conn, ssl, onConnected, onRead, onClose)
		return
	}

	child := newEndpoint(r, parent.kind, FlagStream)
	child.onConnected, child.onRead, child.onClose = onConnected, onRead, onClose
	s, err := r.claim(child)
	if err != nil {
		r.logEntry(loglvl.WarnLevel, "accept: no free endpoint slots, dropping connection")
		_ = conn.Close()
		return
	}

	r.wireAccepted(s.id, conn, ssl, onConnected, onRead, onClose)
}

// wireAccepted completes acceptance of conn onto id: SSL handshake (if
// armed) then on_connected, then starts the read/write pumps.
func (r *runtime) wireAccepted(id pool.Index, conn net.Conn, ssl *sslInfo, onConnected OnConnected, onRead OnRead, onClose OnClose) {
	e := r.endpoint(id)
	if e == nil {
		_ = conn.Close()
		return
	}
	e.mu.Lock()
	e.onConnected, e.onRead, e.onClose = onConnected, onRead, onClose
	if ssl != nil {
		// the accepted endpoint gets its own session record so the
		// post-handshake cipher/peer fields land on it, not on the listener
		cp := *ssl
		e.ssl = &cp
		e.flags |= FlagSSL
	}
	e.mu.Unlock()

	if ssl != nil {
		r.beginServerHandshake(id, conn, ssl)
		return
	}
	r.wireConnectedConn(id, conn)
}

// wireConnectedConn finalizes a plain endpoint's connection: records the
// transport, starts the read/write pumps, and invokes on_connected.
func (r *runtime) wireConnectedConn(id pool.Index, conn net.Conn) {
	e := r.endpoint(id)
	if e == nil {
		_ = conn.Close()
		return
	}

	e.setTransport(conn)
	r.startPumps(id, conn)

	e.mu.Lock()
	onConnected := e.onConnected
	e.mu.Unlock()
	if onConnected != nil {
		onConnected(&Sxe{rt: r, id: id})
	}
}

// wireConnectedTLS is the TLS-handshake-complete analogue of
// wireConnectedConn.
func (r *runtime) wireConnectedTLS(id pool.Index, conn *tls.Conn) {
	e := r.endpoint(id)
	if e == nil {
		_ = conn.Close()
		return
	}

	e.setTLSTransport(conn)
	r.startPumps(id, conn)

	e.mu.Lock()
	onConnected := e.onConnected
	e.mu.Unlock()
	if onConnected != nil {
		onConnected(&Sxe{rt: r, id: id})
	}
}

func (r *runtime) startPumps(id pool.Index, conn net.Conn) {
	e := r.endpoint(id)
	if e == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.cancel = cancel
	uc := e.unixConn
	e.mu.Unlock()

	if uc != nil {
		go r.runPipeReadPump(ctx, id, uc)
	} else {
		go r.runReadPump(ctx, id, conn)
	}
	go r.runWritePump(ctx, id, conn)
}

// runUDPPump drains up to the runtime's configured burst of datagrams per
// wakeup, matching the Linux default of at most 64 datagrams read per
// readiness notification, each delivered as an independent on_read with the
// sender reachable via Sxe.PeerAddr (updated per-datagram, matching a
// single-SXE UDP socket).
func (r *runtime) runUDPPump(ctx context.Context, id pool.Index, pc net.PacketConn) {
	buf := make([]byte, 64*1024)
	for {
		burst := r.udpBurst
		for i := 0; i < burst; i++ {
			n, addr, err := pc.ReadFrom(buf)
			if err != nil {
				select {
				case <-ctx.Done():
					return
				default:
				}
				return
			}
			chunk := append([]byte(nil), buf[:n]...)
			r.rtr.Post(func() { r.onUDPDatagram(id, chunk, addr) })
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (r *runtime) onUDPDatagram(id pool.Index, chunk []byte, addr net.Addr) {
	e := r.endpoint(id)
	if e == nil {
		return
	}

	e.mu.Lock()
	e.peerAddr = addr
	e.inTotal, e.inConsumed = 0, 0
	copy(e.inBuf, chunk)
	e.inTotal = len(chunk)
	if e.inTotal > len(e.inBuf) {
		e.inTotal = len(e.inBuf)
	}
	onRead := e.onRead
	paused := e.flags.Has(FlagPaused)
	n := e.inTotal
	e.mu.Unlock()

	if !paused && onRead != nil && n > 0 {
		onRead(&Sxe{rt: r, id: id}, n)
	}
}
