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
	"net"
	"os"

	"golang.org/x/sys/unix"

	loglvl "github.com/nabbar/sxe/logger/level"
	"github.com/nabbar/sxe/network/protocol"
	"github.com/nabbar/sxe/pool"
)

// runPipeReadPump is the UNIX-pipe analogue of runReadPump: it reads with
// ReadMsgUnix instead of Read so a control message carrying one handed-over
// file descriptor (SCM_RIGHTS) can ride alongside the regular byte stream,
// grounded on the source's sxe_io_cb_read control-message handling. A
// descriptor arriving with no room yet to rebind onto is stashed in
// nextSocket exactly as the source stashes it, and picked up once the
// current socket's data is fully drained (see drainPipeHandoff).
func (r *runtime) runPipeReadPump(ctx context.Context, id pool.Index, conn *net.UnixConn) {
	buf := make([]byte, 32*1024)
	oob := make([]byte, unix.CmsgSpace(4))

	for {
		if !r.waitForRoom(ctx, id) {
			return
		}

		n, oobn, _, _, err := conn.ReadMsgUnix(buf, oob)
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
		if oobn > 0 {
			if fd, ferr := parseHandoffFD(oob[:oobn]); ferr == nil {
				r.rtr.Post(func() { r.onPipeHandoff(id, fd) })
			}
		}
		if err != nil {
			select {
			case <-ctx.Done():
				// cancelled by close or the handoff rebind
			default:
				r.rtr.Post(func() { r.onReadError(id, err) })
			}
			return
		}
	}
}

// parseHandoffFD extracts the single passed file descriptor from a
// SCM_RIGHTS control message.
func parseHandoffFD(oob []byte) (int, error) {
	msgs, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return -1, err
	}
	for _, m := range msgs {
		fds, err := unix.ParseUnixRights(&m)
		if err == nil && len(fds) > 0 {
			return fds[0], nil
		}
	}
	return -1, errors.New("sxe: control message carried no rights")
}

// onPipeHandoff records a handed-over descriptor as nextSocket, per the
// source's "won't be used again until the current socket drains" rule: the
// rebind itself happens once on_read has consumed everything currently
// buffered (drainPipeHandoff), never mid-delivery.
func (r *runtime) onPipeHandoff(id pool.Index, fd int) {
	e := r.endpoint(id)
	if e == nil {
		_ = unix.Close(fd)
		return
	}

	f := os.NewFile(uintptr(fd), "pipe-handoff")
	conn, err := net.FileConn(f)
	_ = f.Close()
	if err != nil {
		r.logEntry(loglvl.WarnLevel, "pipe: failed to adopt handed-over descriptor: %v", err)
		return
	}

	e.mu.Lock()
	if e.nextSocket != nil {
		_ = e.nextSocket.Close()
	}
	e.nextSocket = conn
	drained := e.inTotal == e.inConsumed
	e.mu.Unlock()

	if drained {
		r.drainPipeHandoff(id)
	}
}

// drainPipeHandoff rebinds the endpoint onto its stashed nextSocket, once
// the data belonging to the socket it arrived on has been fully consumed:
// the pipe descriptor is closed, the endpoint becomes a plain stream on the
// handed-over socket, and the pumps restart on it.
func (r *runtime) drainPipeHandoff(id pool.Index) {
	e := r.endpoint(id)
	if e == nil {
		return
	}

	e.mu.Lock()
	if e.nextSocket == nil || e.inTotal != e.inConsumed {
		e.mu.Unlock()
		return
	}
	next := e.nextSocket
	e.nextSocket = nil
	old := e.cancel
	oldUnix := e.unixConn
	e.unixConn = nil
	e.inTotal, e.inConsumed = 0, 0
	e.flags |= FlagStream
	if k := protocol.Parse(next.LocalAddr().Network()); k != protocol.NetworkEmpty {
		e.kind = k
	}
	e.mu.Unlock()

	// cancel first so the old pump sees its context done before the close
	// below makes its blocking read fail
	if old != nil {
		old()
	}
	if oldUnix != nil {
		_ = oldUnix.Close()
	}

	e.setTransport(next)
	r.startPumps(id, next)
}

// writePipe sends buf with fd attached as an SCM_RIGHTS control message,
// bypassing the ordinary send list: the source's pipe write path
// (sxe_write via sendmsg) is likewise a distinct call from its buffered
// send_buffers path, acknowledged by closing the passed descriptor only
// once the kernel has copied the control message (here: once WriteMsgUnix
// returns).
func (r *runtime) writePipe(id pool.Index, buf []byte, fd int) error {
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	conn := e.unixConn
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return ErrorAlreadyClosed.Error(nil)
	}
	if conn == nil {
		return ErrorNoConnection.Error(nil)
	}

	oob := unix.UnixRights(fd)
	_, _, err := conn.WriteMsgUnix(buf, oob, nil)
	if err != nil {
		return ErrorWriteFailed.Error(err)
	}
	return nil
}

