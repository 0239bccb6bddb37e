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

// Package socket defines the runtime-free dial/serve contract shared by
// socket/server and socket/client: the handler and connection-context types,
// the connection lifecycle states surfaced to monitoring callbacks, and the
// error filter applied during connection teardown. It carries no event
// runtime; the sxe-bound listeners and dialers live in the per-protocol
// subpackages.
package socket

import (
	"context"
	"io"
	"net"
)

const (
	// DefaultBufferSize is the read buffer size used by servers and clients
	// when no other size is configured.
	DefaultBufferSize = 32 * 1024

	// EOL is the conventional end-of-line delimiter of line-oriented
	// protocols served over this layer.
	EOL byte = '\n'
)

// ConnState identifies one step of a connection's lifecycle, as surfaced to
// the FuncInfo monitoring callback.
type ConnState uint8

const (
	// ConnectionDial is emitted when a client starts dialing.
	ConnectionDial ConnState = iota
	// ConnectionNew is emitted when a server accepts a connection.
	ConnectionNew
	// ConnectionRead is emitted before reading the incoming stream.
	ConnectionRead
	// ConnectionCloseRead is emitted when the read side is shut down.
	ConnectionCloseRead
	// ConnectionHandler is emitted before invoking the handler.
	ConnectionHandler
	// ConnectionWrite is emitted before writing the outgoing stream.
	ConnectionWrite
	// ConnectionCloseWrite is emitted when the write side is shut down.
	ConnectionCloseWrite
	// ConnectionClose is emitted when the connection is fully closed.
	ConnectionClose
)

// String implements fmt.Stringer.
func (c ConnState) String() string {
	switch c {
	case ConnectionDial:
		return "Dial Connection"
	case ConnectionNew:
		return "New Connection"
	case ConnectionRead:
		return "Read Incoming Stream"
	case ConnectionCloseRead:
		return "Close Incoming Stream"
	case ConnectionHandler:
		return "Run HandlerFunc"
	case ConnectionWrite:
		return "Write Outgoing Steam"
	case ConnectionCloseWrite:
		return "Close Outgoing Stream"
	case ConnectionClose:
		return "Close Connection"
	default:
		return "unknown connection state"
	}
}

// FuncError receives the errors raised while serving or dialing.
type FuncError func(e ...error)

// FuncInfo receives one connection lifecycle transition.
type FuncInfo func(local, remote net.Addr, state ConnState)

// Context is the per-connection view handed to a HandlerFunc: the I/O
// stream, the addresses, and a context.Context that is cancelled when the
// server shuts down.
type Context interface {
	context.Context
	io.ReadWriteCloser

	// IsConnected reports whether the underlying connection is still open.
	IsConnected() bool

	// LocalHost returns the local address of the connection.
	LocalHost() string

	// RemoteHost returns the remote address of the connection, or the
	// source of the last datagram for packet transports.
	RemoteHost() string
}

// HandlerFunc serves one connection. The function owns the Context until it
// returns; closing it early is allowed.
type HandlerFunc func(c Context)

// Server is one bound listener serving every accepted connection through a
// HandlerFunc.
type Server interface {
	// Listen binds the configured address and serves until ctx is
	// cancelled, Shutdown or Close is called, or the listener fails.
	Listen(ctx context.Context) error

	// Shutdown stops listening and waits for in-flight handlers to finish
	// or ctx to expire.
	Shutdown(ctx context.Context) error

	// Close stops listening without waiting for in-flight handlers.
	Close() error

	// IsRunning reports whether Listen is currently serving.
	IsRunning() bool

	// IsGone reports whether the server has been shut down definitively.
	IsGone() bool

	// Done is closed once Listen has returned.
	Done() <-chan struct{}

	// OpenConnections returns the number of currently running handlers.
	OpenConnections() int64

	// Listener exposes the bound stream listener and its resolved address;
	// packet transports return a nil listener with the bound address.
	Listener() (net.Listener, string, error)

	// RegisterFuncError installs the callback receiving serve errors.
	RegisterFuncError(f FuncError)

	// RegisterFuncInfo installs the callback receiving connection
	// lifecycle transitions.
	RegisterFuncInfo(f FuncInfo)
}

// Client is one dialing endpoint with optional TLS.
type Client interface {
	io.ReadWriteCloser

	// Connect dials the configured address, replacing any previous
	// connection.
	Connect(ctx context.Context) error

	// IsConnected reports whether a dialed connection is currently open.
	IsConnected() bool

	// RegisterFuncError installs the callback receiving dial and I/O
	// errors.
	RegisterFuncError(f FuncError)

	// RegisterFuncInfo installs the callback receiving connection
	// lifecycle transitions.
	RegisterFuncInfo(f FuncInfo)
}

// ErrorFilter drops the errors that only report an already-closed
// connection, returning any other error unchanged.
func ErrorFilter(err error) error {
	if err == nil {
		return nil
	}

	if err.Error() == "use of closed network connection" {
		return nil
	}

	return err
}
