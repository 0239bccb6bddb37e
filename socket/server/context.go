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

package server

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	libsck "github.com/nabbar/sxe/socket"
)

// streamCtx hands one accepted stream connection to a handler.
type streamCtx struct {
	context.Context
	cnn net.Conn
	idl time.Duration
	cls atomic.Bool
}

func newStreamContext(ctx context.Context, cnn net.Conn, idle time.Duration) libsck.Context {
	c := &streamCtx{
		Context: ctx,
		cnn:     cnn,
		idl:     idle,
	}

	c.touch()
	return c
}

// touch refreshes the idle deadline after each I/O.
func (o *streamCtx) touch() {
	if o.idl > 0 {
		_ = o.cnn.SetDeadline(time.Now().Add(o.idl))
	}
}

func (o *streamCtx) Read(p []byte) (int, error) {
	n, e := o.cnn.Read(p)
	o.touch()
	return n, e
}

func (o *streamCtx) Write(p []byte) (int, error) {
	n, e := o.cnn.Write(p)
	o.touch()
	return n, e
}

func (o *streamCtx) Close() error {
	o.cls.Store(true)
	return o.cnn.Close()
}

func (o *streamCtx) IsConnected() bool {
	return !o.cls.Load() && o.Context.Err() == nil
}

func (o *streamCtx) LocalHost() string {
	return o.cnn.LocalAddr().String()
}

func (o *streamCtx) RemoteHost() string {
	return o.cnn.RemoteAddr().String()
}

// packetCtx hands the bound packet socket to a handler: each Read returns
// one datagram, each Write answers the peer of the last datagram read.
type packetCtx struct {
	context.Context
	pcn net.PacketConn
	cls atomic.Bool

	m   sync.Mutex
	rmt net.Addr
}

func newPacketContext(ctx context.Context, pcn net.PacketConn) libsck.Context {
	return &packetCtx{
		Context: ctx,
		pcn:     pcn,
	}
}

func (o *packetCtx) Read(p []byte) (int, error) {
	n, a, e := o.pcn.ReadFrom(p)

	if a != nil {
		o.m.Lock()
		o.rmt = a
		o.m.Unlock()
	}

	return n, e
}

func (o *packetCtx) Write(p []byte) (int, error) {
	o.m.Lock()
	a := o.rmt
	o.m.Unlock()

	if a == nil {
		return 0, net.ErrClosed
	}

	return o.pcn.WriteTo(p, a)
}

func (o *packetCtx) Close() error {
	o.cls.Store(true)
	return o.pcn.Close()
}

func (o *packetCtx) IsConnected() bool {
	return !o.cls.Load() && o.Context.Err() == nil
}

func (o *packetCtx) LocalHost() string {
	return o.pcn.LocalAddr().String()
}

func (o *packetCtx) RemoteHost() string {
	o.m.Lock()
	defer o.m.Unlock()

	if o.rmt != nil {
		return o.rmt.String()
	}

	return ""
}
