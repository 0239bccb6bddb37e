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

package tcppool

import (
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	loglvl "github.com/nabbar/sxe/logger/level"
	"github.com/nabbar/sxe/pool"
)

// spawnProc tracks one generation of a spawned child process, grounded on
// the source's SXE_SPAWN handle (original_source/libsxe/lib-sxe-spawn):
// the pool keeps a node's previous and current spawn side by side so a
// reconnect can reap the outgoing generation's exit status.
type spawnProc struct {
	cmd  *exec.Cmd
	pid  int
	done chan error
	once sync.Once
}

func (sp *spawnProc) kill() {
	sp.once.Do(func() {
		if sp.cmd != nil && sp.cmd.Process != nil {
			_ = sp.cmd.Process.Kill()
		}
	})
}

// spawnChild starts command/args with its stdin/stdout adapted to a
// net.Conn: os/exec already gives us kernel pipes to the child's stdio
// without hand-rolling socketpair(2) plus fork/exec.
func spawnChild(command string, args []string) (*spawnProc, net.Conn, error) {
	cmd := exec.Command(command, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	cmd.Stderr = os.Stderr

	if err = cmd.Start(); err != nil {
		return nil, nil, err
	}

	sp := &spawnProc{cmd: cmd, pid: cmd.Process.Pid, done: make(chan error, 1)}
	go func() { sp.done <- cmd.Wait() }()

	return sp, &pipeConn{r: stdout, w: stdin}, nil
}

// rampSpawn is rampConnect's spawn-mode counterpart.
func (p *tcpPool) rampSpawn(item pool.Index) {
	sp, conn, err := spawnChild(p.cfg.Command, p.cfg.Args)
	if err != nil {
		p.logEntry(loglvl.ErrorLevel, "tcppool: node %d: failed to spawn %q: %v", item, p.cfg.Command, err)
		p.mu.Lock()
		_ = p.pl.SetState(item, pool.State(StateConnecting), pool.State(StateUnconnected))
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	n := p.nodes[item]
	n.prevSpawn = n.spawn
	n.spawn = sp
	p.mu.Unlock()

	p.logEntry(loglvl.InfoLevel, "tcppool: node %d: spawned %q (pid %d)", item, p.cfg.Command, sp.pid)

	s, err := p.rt.NewFromConn(conn, p.makeOnConnected(item), p.makeOnRead(item), p.makeOnClose(item))
	if err != nil {
		p.logEntry(loglvl.ErrorLevel, "tcppool: node %d: failed to allocate an endpoint for spawned process: %v", item, err)
		sp.kill()
		_ = conn.Close()
		p.mu.Lock()
		_ = p.pl.SetState(item, pool.State(StateConnecting), pool.State(StateUnconnected))
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	n.sx = s
	p.mu.Unlock()
}

// reapPreviousSpawnLocked checks whether the node's outgoing generation has
// already exited; if it has not, it is killed. Either way the exit outcome
// feeds failure accounting exactly as a dropped connection would: a child
// that exits non-zero or is killed increments failureCount, a graceful exit
// resets it. Caller holds p.mu.
func (p *tcpPool) reapPreviousSpawnLocked(n *node) {
	prev := n.prevSpawn
	if prev == nil {
		return
	}

	select {
	case err := <-prev.done:
		if err == nil {
			p.logEntry(loglvl.InfoLevel, "tcppool: previous process %d restarted gracefully", prev.pid)
		} else {
			p.logEntry(loglvl.WarnLevel, "tcppool: previous process %d exited with error: %v", prev.pid, err)
			n.failureCount++
		}
	default:
		p.logEntry(loglvl.WarnLevel, "tcppool: previous process %d did not exit: killing it", prev.pid)
		prev.kill()
		n.failureCount++
	}
	n.prevSpawn = nil
}

// pipeConn adapts a child process's stdin/stdout pipes to net.Conn so a
// spawned process can flow through the same sxe.Runtime read/write
// pipeline as a dialed socket.
type pipeConn struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (c *pipeConn) Read(b []byte) (int, error)  { return c.r.Read(b) }
func (c *pipeConn) Write(b []byte) (int, error) { return c.w.Write(b) }

func (c *pipeConn) Close() error {
	werr := c.w.Close()
	rerr := c.r.Close()
	if werr != nil {
		return werr
	}
	return rerr
}

func (c *pipeConn) LocalAddr() net.Addr  { return pipeAddr{} }
func (c *pipeConn) RemoteAddr() net.Addr { return pipeAddr{} }

func (c *pipeConn) SetDeadline(t time.Time) error      { return nil }
func (c *pipeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *pipeConn) SetWriteDeadline(t time.Time) error { return nil }

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "spawned-child" }
