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

// Package sxe is the pool-allocated event-object runtime: one Runtime owns a
// fixed-size table of endpoints (listening socket, accepted or connecting
// stream, datagram socket, UNIX-domain pipe, or socketpair leg), each driven
// through a single dispatch goroutine so user callbacks never run
// concurrently with each other and are delivered in FIFO order per endpoint.
//
// Per-endpoint I/O runs on its own goroutine doing blocking reads/writes over
// net.Conn or crypto/tls.Conn; results are handed to the dispatch goroutine
// through reactor.Reactor.Post rather than through a manual
// watch-read/watch-write state machine, since net and crypto/tls already hide
// readiness polling behind blocking calls.
package sxe

import (
	"net"
	"os"
	"sync/atomic"

	"github.com/nabbar/sxe/certificates"
	libctx "github.com/nabbar/sxe/context"
	"github.com/nabbar/sxe/network/protocol"
	"github.com/nabbar/sxe/pool"
)

// Flag is a bitfield of per-endpoint behavior switches.
type Flag uint32

const (
	// FlagStream marks a stream endpoint (TCP, UNIX-stream, socketpair leg)
	// as opposed to a datagram one (UDP, unixgram).
	FlagStream Flag = 1 << iota
	// FlagOneShot transmutes a listener into its first accepted connection:
	// the same slot is rebound to the accepted socket and listening stops.
	FlagOneShot
	// FlagSSL enables TLS termination on this endpoint.
	FlagSSL
	// FlagPaused is set by BufConsume and cleared by BufResume; while set,
	// no further on_read callbacks are delivered.
	FlagPaused
)

// Has reports whether all bits of want are set in f.
func (f Flag) Has(want Flag) bool { return f&want == want }

// ResumeMode selects how BufResume reactivates a paused endpoint.
type ResumeMode int

const (
	// ResumeImmediate synthesizes a read callback for whatever is already
	// buffered, deferred to the next loop tick to avoid re-entrancy.
	ResumeImmediate ResumeMode = iota
	// ResumeWhenMoreData waits for the next actual network read.
	ResumeWhenMoreData
)

// ConnectionMode tags whether an endpoint's transport is plain or
// TLS-terminated. Preferred over inspecting the flags because every I/O
// method dispatches on this tag rather than branching on FlagSSL directly.
type ConnectionMode uint8

const (
	ModePlain ConnectionMode = iota
	ModeSecure
)

func (m ConnectionMode) String() string {
	if m == ModeSecure {
		return "secure"
	}
	return "plain"
}

// OnConnected fires once a stream endpoint finishes connecting (client) or
// accepting and, if SSL is enabled, completes its handshake.
type OnConnected func(s *Sxe)

// OnRead delivers n newly available bytes in the endpoint's read buffer;
// InBuf(n) returns the corresponding slice.
type OnRead func(s *Sxe, n int)

// OnClose fires exactly once per endpoint, after its slot has already been
// released back to the pool; err is nil on a clean/requested close.
type OnClose func(s *Sxe, err error)

// OnComplete reports the outcome of a buffered write, a vector write, or a
// sendfile operation.
type OnComplete func(err error)

// Buffer is one borrowed, caller-owned send buffer: the caller retains
// storage ownership, and OnDone is invoked exactly once — on full drain, on
// hard failure, or on close with the buffer still pending — as the release
// point.
type Buffer struct {
	Data     []byte
	consumed int
	onDone   func(err error)
	fin      atomic.Bool
}

// NewBuffer wraps data for SendBuffer/SendBuffers. onDone may be nil for a
// fire-and-forget, const-borrowed buffer.
func NewBuffer(data []byte, onDone func(err error)) *Buffer {
	return &Buffer{Data: data, onDone: onDone}
}

func (b *Buffer) remaining() []byte { return b.Data[b.consumed:] }
func (b *Buffer) done() bool        { return b.consumed >= len(b.Data) }

// finish is the buffer's single release point: the completion callback runs
// exactly once even when a drain and a close race over the same buffer.
func (b *Buffer) finish(err error) {
	if b.fin.Swap(true) {
		return
	}
	if b.onDone != nil {
		b.onDone(err)
	}
}

// Runtime owns the endpoint pool, the dispatch reactor, and the logger every
// endpoint logs through. It replaces the source's process-wide singleton
// pools and reactor loop handle: callers construct exactly one Runtime and
// pass it (or the endpoints it mints) to the rest of the program.
type Runtime interface {
	// NewTCP claims a FREE slot and returns it in USED, configured to
	// either listen (Listen) or dial out (Connect) as a TCP stream
	// endpoint.
	NewTCP(onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error)
	// NewUDP claims a FREE slot for a datagram endpoint bound to
	// localAddr ("" or a host:port; an empty port selects one at bind time).
	NewUDP(localAddr string, onRead OnRead) (*Sxe, error)
	// NewUnixGram claims a FREE slot for a UNIX-domain datagram endpoint
	// bound to path, the filesystem-path analogue of NewUDP.
	NewUnixGram(path string, onRead OnRead) (*Sxe, error)
	// NewUDPClient claims a FREE slot for a UDP endpoint meant to dial a
	// single peer via Connect rather than bind a receiving socket; the
	// datagram analogue of NewTCP.
	NewUDPClient(onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error)
	// NewUnixGramClient is NewUDPClient's UNIX-domain datagram counterpart.
	NewUnixGramClient(onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error)
	// NewPipe claims a FREE slot for a UNIX-domain stream endpoint at path,
	// capable of carrying one handed-over file descriptor per message.
	NewPipe(onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error)
	// NewSocketPair claims two FREE slots joined by an os.Pipe-style
	// anonymous UNIX socketpair, returning both ends already connected.
	NewSocketPair(onRead OnRead, onClose OnClose) (*Sxe, *Sxe, error)
	// NewFromConn claims a FREE slot and wires it directly onto an
	// already-established net.Conn, invoking onConnected immediately. This
	// is the hook a caller needing a non-socket transport (e.g. a spawned
	// child process's stdio, adapted to net.Conn) uses to get the same
	// buffered read/write pipeline as every other endpoint kind.
	NewFromConn(conn net.Conn, onConnected OnConnected, onRead OnRead, onClose OnClose) (*Sxe, error)

	// Lookup returns the endpoint handle for id, or nil if id names a FREE
	// or out-of-range slot.
	Lookup(id pool.Index) *Sxe

	// Len returns the total number of slots (the runtime's concurrency).
	Len() int
	// NumUsed returns the number of slots currently USED or DEFERRED.
	NumUsed() int

	// SetListenBacklog overrides the backlog passed to the OS listen() call
	// for subsequently-listened endpoints.
	SetListenBacklog(n int)

	// Meta returns the runtime-wide named value store.
	Meta() libctx.Config[string]
	// ActiveSessions returns the correlation id assigned to every currently
	// claimed slot, keyed by pool index.
	ActiveSessions() map[pool.Index]string

	// Close tears down every still-open endpoint and stops accepting new
	// ones; it does not stop the underlying reactor.
	Close() error
}

// Sxe is a handle to one pool slot: an endpoint in USED or DEFERRED state.
// Its zero value is not usable; obtain one from a Runtime factory or
// Runtime.Lookup.
type Sxe struct {
	rt *runtime
	id pool.Index
}

// ID returns the pool slot index backing this endpoint.
func (s *Sxe) ID() pool.Index { return s.id }

// SessionID returns the correlation id minted for this endpoint at claim
// time, stable for the endpoint's lifetime and used in log correlation.
func (s *Sxe) SessionID() string {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return ""
	}
	return e.sessionID.String()
}

// Kind returns the network family this endpoint binds to.
func (s *Sxe) Kind() protocol.NetworkProtocol {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return protocol.NetworkEmpty
	}
	return e.kind
}

// Mode reports whether this endpoint's transport is plain or TLS.
func (s *Sxe) Mode() ConnectionMode {
	e := s.rt.endpoint(s.id)
	if e == nil || e.transport == nil {
		return ModePlain
	}
	return e.transport.Mode()
}

// LocalAddr returns the endpoint's bound local address, or nil before bind.
func (s *Sxe) LocalAddr() net.Addr {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.localAddr
}

// PeerAddr returns the endpoint's remote address, or nil for a listener or
// before connect completes.
func (s *Sxe) PeerAddr() net.Addr {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.peerAddr
}

// UserData returns the opaque value last stored with SetUserData, or nil.
func (s *Sxe) UserData() interface{} {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.userData
}

// SetUserData stores an opaque per-endpoint value.
func (s *Sxe) SetUserData(v interface{}) {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.userData = v
	e.mu.Unlock()
}

// InBuf returns the n most recently delivered, unconsumed bytes — the slice
// an OnRead callback should look at. It aliases internal storage and is only
// valid until the next BufConsume/left-shift.
func (s *Sxe) InBuf(n int) []byte {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	end := e.inConsumed + n
	if end > e.inTotal {
		end = e.inTotal
	}
	if e.inConsumed > end {
		return nil
	}
	return e.inBuf[e.inConsumed:end]
}

// Pending returns the number of delivered, unconsumed bytes still sitting
// in the read buffer: in_total minus in_consumed.
func (s *Sxe) Pending() int {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inTotal - e.inConsumed
}

// LocalPort returns the endpoint's bound local port, or zero before bind or
// for path-addressed endpoints.
func (s *Sxe) LocalPort() int { return addrPort(s.LocalAddr()) }

// PeerPort returns the endpoint's remote port, or zero when unknown.
func (s *Sxe) PeerPort() int { return addrPort(s.PeerAddr()) }

func addrPort(a net.Addr) int {
	switch v := a.(type) {
	case *net.TCPAddr:
		return v.Port
	case *net.UDPAddr:
		return v.Port
	default:
		return 0
	}
}

// Write enqueues one fire-and-forget copy-free buffer; the caller must not
// reuse data until the endpoint closes or drains it.
func (s *Sxe) Write(data []byte) error { return s.rt.sendBuffer(s.id, NewBuffer(data, nil)) }

// WriteTo sends one datagram to dst; only valid on a bound packet endpoint.
func (s *Sxe) WriteTo(dst net.Addr, data []byte) error { return s.rt.writeTo(s.id, dst, data) }

// BufClear discards everything currently buffered without pausing.
func (s *Sxe) BufClear() error { return s.rt.bufClear(s.id) }

// BufConsume advances the consumed offset by n and pauses further read
// callbacks until BufResume.
func (s *Sxe) BufConsume(n int) error { return s.rt.bufConsume(s.id, n) }

// BufResume reactivates read delivery after BufConsume.
func (s *Sxe) BufResume(mode ResumeMode) error { return s.rt.bufResume(s.id, mode) }

// Pause stops read delivery without consuming anything.
func (s *Sxe) Pause() error { return s.rt.pause(s.id) }

// SendBuffer enqueues buf and attempts to drain the send list synchronously.
func (s *Sxe) SendBuffer(buf *Buffer) error { return s.rt.sendBuffer(s.id, buf) }

// SendBuffers enqueues every buffer in list; onComplete fires once when the
// entire list has drained or the first one fails.
func (s *Sxe) SendBuffers(list []*Buffer, onComplete OnComplete) error {
	return s.rt.sendBuffers(s.id, list, onComplete)
}

// Sendfile attempts a zero-copy send of up to total bytes from f starting at
// *offset, advancing *offset by the number sent.
func (s *Sxe) Sendfile(f *os.File, offset *int64, total int64, onComplete OnComplete) error {
	return s.rt.sendfile(s.id, f, offset, total, onComplete)
}

// NotifyWritable rearms write-readiness notification without sending
// anything; cb fires once, the next time the endpoint could accept a write.
func (s *Sxe) NotifyWritable(cb func()) error { return s.rt.notifyWritable(s.id, cb) }

// WritePipe sends one byte range with one file descriptor attached via
// SCM_RIGHTS. Only valid on a UNIX-domain pipe endpoint.
func (s *Sxe) WritePipe(buf []byte, fd int) error { return s.rt.writePipe(s.id, buf, fd) }

// Listen binds and, for stream kinds, calls listen() with the runtime's
// configured backlog, installing an accept loop.
func (s *Sxe) Listen(localAddr string) error { return s.rt.listen(s.id, localAddr) }

// Connect dials peerAddr ("host:port" or a filesystem path for a pipe).
func (s *Sxe) Connect(peerAddr string) error { return s.rt.connect(s.id, peerAddr) }

// EnableSSL arms TLS termination on this endpoint using cfg, effective from
// the next Listen/Connect/accept. cfg must outlive the endpoint.
func (s *Sxe) EnableSSL(cfg certificates.TLSConfig, serverName string) error {
	return s.rt.enableSSL(s.id, cfg, serverName)
}

// Close idempotently tears the endpoint down: stops its goroutines, closes
// the OS handle, fires every pending send-buffer callback with
// ErrorAlreadyClosed-carrying context, and returns the slot to FREE.
func (s *Sxe) Close() error { return s.rt.closeEndpoint(s.id, nil) }

// deferFunc arranges for fn to run once, on the dispatch goroutine, on the
// next loop iteration, moving the endpoint USED->DEFERRED in the interim.
// A second call with a different fn while one is already pending is a
// programmer error (logged, Internal); a second call with the same fn is a
// no-op.
func (s *Sxe) deferFunc(fn func()) error { return s.rt.deferFunc(s.id, fn) }
