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
	"time"

	loglvl "github.com/nabbar/sxe/logger/level"
	"github.com/nabbar/sxe/pool"
	"github.com/nabbar/sxe/sxe"
)

// New builds a Pool of cfg.Concurrency nodes bound to rt and immediately
// ramps its first connections/spawns (grounded on the source's
// sxe_pool_tcp_new_connect/sxe_pool_tcp_new_spawn, which both ramp before
// returning).
func New(rt sxe.Runtime, cfg Config) (Pool, error) {
	if rt == nil || cfg.Concurrency <= 0 || cfg.OnRead == nil {
		return nil, ErrorParamsInvalid.Error(nil)
	}
	if cfg.IsSpawn && cfg.Command == "" {
		return nil, ErrorParamsInvalid.Error(nil)
	}
	if !cfg.IsSpawn && cfg.Target == "" {
		return nil, ErrorParamsInvalid.Error(nil)
	}

	p := &tcpPool{
		cfg:   cfg,
		rt:    rt,
		nodes: make([]*node, cfg.Concurrency),
	}
	for i := range p.nodes {
		p.nodes[i] = &node{}
	}

	// State timeouts mirror the source's state_timeouts[] array: only
	// INITIALIZING and IN_USE ever carry a non-zero timeout.
	timeouts := []time.Duration{0, 0, cfg.InitTimeout, 0, cfg.ResponseTimeout}
	pl, err := pool.New(cfg.Concurrency, timeouts, p.onPoolTimeout)
	if err != nil {
		return nil, err
	}
	p.pl = pl

	// the supervision timeouts are pool state timeouts: someone has to walk
	// them periodically for INITIALIZING/IN_USE nodes to ever expire
	if cfg.InitTimeout > 0 || cfg.ResponseTimeout > 0 {
		p.stopTick = make(chan struct{})
		go p.runTimeoutTicker()
	}

	p.ramp()
	return p, nil
}

// runTimeoutTicker drives pool.Pool.CheckTimeouts until Close.
func (p *tcpPool) runTimeoutTicker() {
	step := p.cfg.InitTimeout
	if step == 0 || (p.cfg.ResponseTimeout > 0 && p.cfg.ResponseTimeout < step) {
		step = p.cfg.ResponseTimeout
	}
	if step > time.Second {
		step = time.Second
	}
	if step < 20*time.Millisecond {
		step = 20 * time.Millisecond
	}

	t := time.NewTicker(step / 2)
	defer t.Stop()

	for {
		select {
		case <-p.stopTick:
			return
		case now := <-t.C:
			p.pl.CheckTimeouts(now)
		}
	}
}

func (p *tcpPool) logEntry(lvl loglvl.Level, msg string, args ...interface{}) {
	if p.cfg.Logger == nil {
		return
	}
	lg := p.cfg.Logger()
	if lg == nil {
		return
	}
	lg.Entry(lvl, msg, args...).Log()
}

// onPoolTimeout is pool.Pool's required TimeoutFunc. It fires the caller's
// OnTimeout callback, then force-closes the node, which closes the
// underlying SXE and lets the next ramp pass reclaim the slot.
func (p *tcpPool) onPoolTimeout(id pool.Index, state pool.State) {
	p.mu.Lock()
	if int(id) < 0 || int(id) >= len(p.nodes) {
		p.mu.Unlock()
		return
	}
	n := p.nodes[id]
	s := n.sx
	p.mu.Unlock()

	p.logEntry(loglvl.WarnLevel, "tcppool: node %d timed out in state %s", id, NodeState(state))

	if p.cfg.OnTimeout != nil {
		p.cfg.OnTimeout()
	}

	if s != nil {
		_ = s.Close()
	} else {
		p.onNodeClosed(id)
	}
}

// ramp promotes up to connectionRamp UNCONNECTED nodes to CONNECTING,
// dialing or spawning each.
func (p *tcpPool) ramp() {
	for i := 0; i < connectionRamp; i++ {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return
		}
		item := p.pl.SetOldestState(pool.State(StateUnconnected), pool.State(StateConnecting))
		if item == pool.NoIndex {
			p.mu.Unlock()
			return
		}

		n := p.nodes[item]
		if n.failureCount >= maxFailures {
			_ = p.pl.SetState(item, pool.State(StateConnecting), pool.State(StateUnconnected))
			p.pl.Touch(item)
			p.mu.Unlock()
			p.logEntry(loglvl.WarnLevel, "tcppool: node %d has failed %d times: skipping it", item, n.failureCount)
			continue
		}
		p.mu.Unlock()

		if p.cfg.IsSpawn {
			p.rampSpawn(item)
		} else {
			p.rampConnect(item)
		}
	}
}

// rampConnect dials Config.Target for node item.
func (p *tcpPool) rampConnect(item pool.Index) {
	s, err := p.rt.NewTCP(p.makeOnConnected(item), p.makeOnRead(item), p.makeOnClose(item))
	if err != nil {
		p.logEntry(loglvl.ErrorLevel, "tcppool: node %d: failed to allocate an endpoint to connect: %v", item, err)
		p.mu.Lock()
		_ = p.pl.SetState(item, pool.State(StateConnecting), pool.State(StateUnconnected))
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	p.nodes[item].sx = s
	p.mu.Unlock()

	if err = s.Connect(p.cfg.Target); err != nil {
		p.logEntry(loglvl.ErrorLevel, "tcppool: node %d: dial failed: %v", item, err)
	}
}

// restart is the post-ramp, post-reply housekeeping common to every place
// the source calls sxe_pool_tcp_restart: ramp again (in case a slot freed
// up), then fire a queued ready-to-write notification if one is
// outstanding and a node is now READY_TO_SEND.
func (p *tcpPool) restart() {
	p.ramp()

	p.mu.Lock()
	if p.readyQueued > 0 && p.pl.GetNumberInState(pool.State(StateReadyToSend)) > 0 {
		p.readyQueued--
		cb := p.cfg.OnReadyToWrite
		p.mu.Unlock()
		if cb != nil {
			cb()
		}
		return
	}
	p.mu.Unlock()
}

func (p *tcpPool) makeOnConnected(item pool.Index) sxe.OnConnected {
	return func(s *sxe.Sxe) {
		p.mu.Lock()
		n := p.nodes[item]
		n.sx = s
		if p.cfg.IsSpawn {
			p.reapPreviousSpawnLocked(n)
		}

		hasInit := p.cfg.InitTimeout > 0
		if hasInit {
			_ = p.pl.SetState(item, pool.State(StateConnecting), pool.State(StateInitializing))
		} else {
			_ = p.pl.SetState(item, pool.State(StateConnecting), pool.State(StateReadyToSend))
		}
		p.mu.Unlock()

		if !hasInit {
			p.restart()
		}

		if p.cfg.OnConnected != nil {
			p.cfg.OnConnected(s)
		}
	}
}

func (p *tcpPool) makeOnRead(item pool.Index) sxe.OnRead {
	return func(s *sxe.Sxe, n int) {
		p.mu.Lock()
		node := p.nodes[item]
		state := NodeState(p.pl.IndexToState(item))
		p.mu.Unlock()

		// INITIALIZING: hand straight to the caller, who is expected to
		// call Initialized once its handshake completes.
		if state == StateInitializing {
			p.cfg.OnRead(s, n)
			return
		}

		p.mu.Lock()
		node.failureCount = 0
		p.mu.Unlock()

		p.cfg.OnRead(s, n)

		// The reply was not fully consumed: stay IN_USE.
		if s.Pending() != 0 {
			return
		}

		p.mu.Lock()
		_ = p.pl.SetState(item, pool.State(StateInUse), pool.State(StateReadyToSend))
		p.mu.Unlock()

		p.restart()
	}
}

func (p *tcpPool) makeOnClose(item pool.Index) sxe.OnClose {
	return func(s *sxe.Sxe, err error) {
		p.mu.Lock()
		n := p.nodes[item]
		n.sx = nil
		state := NodeState(p.pl.IndexToState(item))

		// A disconnect while IN_USE/READY_TO_SEND/INITIALIZING counts as a
		// failure; a spawn child exiting while CONNECTING (never connected)
		// also counts.
		if !p.cfg.IsSpawn || state == StateConnecting {
			n.failureCount++
		}
		retiring := n.failureCount >= maxFailures
		if retiring {
			p.logEntry(loglvl.WarnLevel, "tcppool: node %d has failed %d times: giving up", item, n.failureCount)
		} else {
			p.logEntry(loglvl.InfoLevel, "tcppool: node %d has failed %d times: retrying", item, n.failureCount)
		}

		if state != StateUnconnected {
			_ = p.pl.SetState(item, pool.State(state), pool.State(StateUnconnected))
		}
		p.mu.Unlock()

		if p.cfg.OnClose != nil {
			p.cfg.OnClose(s, err)
		}

		p.ramp()
	}
}

// onNodeClosed handles the degenerate case where onPoolTimeout fires for a
// node that somehow has no live Sxe (e.g. a spawn dial that never produced
// one): just drop it back to UNCONNECTED and ramp.
func (p *tcpPool) onNodeClosed(id pool.Index) {
	p.mu.Lock()
	state := p.pl.IndexToState(id)
	if state != pool.State(StateUnconnected) {
		_ = p.pl.SetState(id, state, pool.State(StateUnconnected))
	}
	p.mu.Unlock()
	p.ramp()
}

// Initialized transitions s's node from INITIALIZING to READY_TO_SEND,
// the transition a caller drives once it's done with its handshake/greeting
// on a freshly connected node.
func (p *tcpPool) Initialized(s *sxe.Sxe) {
	if s == nil {
		return
	}

	p.mu.Lock()
	item := pool.NoIndex
	for i, n := range p.nodes {
		if n.sx == s {
			item = pool.Index(i)
			break
		}
	}
	if item == pool.NoIndex {
		p.mu.Unlock()
		return
	}
	_ = p.pl.SetState(item, pool.State(StateInitializing), pool.State(StateReadyToSend))
	p.mu.Unlock()

	p.restart()
}

// Write takes the oldest READY_TO_SEND node, moves it to IN_USE, and writes
// buf.
func (p *tcpPool) Write(buf []byte, userData interface{}) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrorClosed.Error(nil)
	}
	item := p.pl.SetOldestState(pool.State(StateReadyToSend), pool.State(StateInUse))
	if item == pool.NoIndex {
		p.mu.Unlock()
		return ErrorNoneReady.Error(nil)
	}
	n := p.nodes[item]
	n.userData = userData
	s := n.sx
	p.mu.Unlock()

	if s == nil {
		return ErrorInternal.Error(nil)
	}

	err := s.SendBuffer(sxe.NewBuffer(buf, nil))
	if err != nil && err != sxe.Pending {
		return err
	}
	return nil
}

// QueueReadyToWrite fires OnReadyToWrite immediately if a node is already
// READY_TO_SEND, otherwise arms one pending notification.
func (p *tcpPool) QueueReadyToWrite() {
	p.mu.Lock()
	if p.pl.GetNumberInState(pool.State(StateReadyToSend)) == 0 {
		p.readyQueued++
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if p.cfg.OnReadyToWrite != nil {
		p.cfg.OnReadyToWrite()
	}
}

// UnqueueReadyToWrite cancels one pending QueueReadyToWrite.
func (p *tcpPool) UnqueueReadyToWrite() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readyQueued <= 0 {
		return ErrorAlreadyQueued.Error(nil)
	}
	p.readyQueued--
	return nil
}

func (p *tcpPool) GetNumberInState(st NodeState) int {
	return p.pl.GetNumberInState(pool.State(st))
}

// Close tears down every node's endpoint or spawned process.
func (p *tcpPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.stopTick != nil {
		close(p.stopTick)
	}
	var handles []*sxe.Sxe
	var spawns []*spawnProc
	for _, n := range p.nodes {
		if n.sx != nil {
			handles = append(handles, n.sx)
		}
		if n.spawn != nil {
			spawns = append(spawns, n.spawn)
		}
		if n.prevSpawn != nil {
			spawns = append(spawns, n.prevSpawn)
		}
	}
	p.mu.Unlock()

	for _, s := range handles {
		_ = s.Close()
	}
	for _, sp := range spawns {
		sp.kill()
	}
	return nil
}
