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

// Package tcppool implements the outbound TCP connection pool: a fixed-size
// set of either dialed TCP connections or spawned
// child processes, ramped up at a bounded rate, carried through a 5-state
// machine (UNCONNECTED/CONNECTING/INITIALIZING/READY_TO_SEND/IN_USE) layered
// directly on package pool's state-timed LRU+timeout allocator, with
// two-timeout supervision (connection initialization, response) and
// two-strikes failure retirement.
package tcppool

import (
	"sync"
	"time"

	"github.com/nabbar/sxe/logger"
	"github.com/nabbar/sxe/pool"
	"github.com/nabbar/sxe/sxe"
)

// NodeState is one pool node's position in the connect/spawn lifecycle.
type NodeState int32

const (
	// StateUnconnected is a node with no outstanding connection or process;
	// eligible for the next ramp.
	StateUnconnected NodeState = iota
	// StateConnecting is a node whose dial or spawn is in flight.
	StateConnecting
	// StateInitializing is a node whose transport connected but whose
	// caller-level handshake (Config.InitTimeout > 0) has not yet called
	// Initialized.
	StateInitializing
	// StateReadyToSend holds an idle, writable connection.
	StateReadyToSend
	// StateInUse is a node currently waiting on a reply to a write.
	StateInUse
	numStates
)

func (s NodeState) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnecting:
		return "connecting"
	case StateInitializing:
		return "initializing"
	case StateReadyToSend:
		return "ready-to-send"
	case StateInUse:
		return "in-use"
	default:
		return "unknown"
	}
}

const (
	// connectionRamp bounds how many UNCONNECTED nodes one Ramp invocation
	// promotes to CONNECTING.
	connectionRamp = 16
	// maxFailures retires a node after this many consecutive failures.
	maxFailures = 2
)

// Config describes one TCP connection pool. Exactly one of (Target) or
// (Command, Args) is used, selected by IsSpawn.
type Config struct {
	// Concurrency is the fixed number of nodes the pool manages.
	Concurrency int
	// IsSpawn selects spawn mode (talk to a child process over its stdio)
	// instead of connect mode (dial Target).
	IsSpawn bool
	// Target is "host:port" to dial, used when IsSpawn is false.
	Target string
	// Command and Args launch the child process, used when IsSpawn is true.
	Command string
	Args    []string

	// InitTimeout, when non-zero, holds a freshly connected node in
	// StateInitializing until the caller calls Initialized, and retires it
	// if that never happens within the timeout.
	InitTimeout time.Duration
	// ResponseTimeout, when non-zero, bounds how long a node may sit in
	// StateInUse waiting for a reply before the pool force-closes it.
	ResponseTimeout time.Duration

	// OnConnected, OnRead, OnClose are the per-node endpoint callbacks.
	// OnRead is required.
	OnConnected sxe.OnConnected
	OnRead      sxe.OnRead
	OnClose     sxe.OnClose

	// OnReadyToWrite fires once a node becomes READY_TO_SEND while a
	// ready-to-write event is outstanding (QueueReadyToWrite).
	OnReadyToWrite func()
	// OnTimeout fires when InitTimeout or ResponseTimeout expires on a
	// node, immediately before the pool force-closes it.
	OnTimeout func()

	// Logger installs the function the pool logs through; nil disables it.
	Logger logger.FuncLog
}

// Pool is a fixed-size outbound TCP connection or spawned-process pool.
type Pool interface {
	// Write takes the oldest READY_TO_SEND node, moves it to IN_USE, tags
	// it with userData for the caller's OnRead/OnClose to recover, and
	// writes buf. It returns ErrorNoneReady if no node is READY_TO_SEND.
	Write(buf []byte, userData interface{}) error

	// QueueReadyToWrite fires OnReadyToWrite immediately if any node is
	// already READY_TO_SEND; otherwise it arms a one-shot notification for
	// the next node that becomes READY_TO_SEND.
	QueueReadyToWrite()
	// UnqueueReadyToWrite cancels one outstanding QueueReadyToWrite.
	UnqueueReadyToWrite() error

	// Initialized transitions s's node from INITIALIZING to READY_TO_SEND.
	// Callers with Config.InitTimeout > 0 call this once their
	// application-level handshake on s completes.
	Initialized(s *sxe.Sxe)

	// GetNumberInState returns how many nodes currently sit in state st.
	GetNumberInState(st NodeState) int

	// Close tears down every node's endpoint/process and releases the pool.
	Close() error
}

// node is one pool.Pool element's payload.
type node struct {
	sx           *sxe.Sxe
	userData     interface{}
	failureCount int

	spawn     *spawnProc
	prevSpawn *spawnProc
}

type tcpPool struct {
	mu  sync.Mutex
	cfg Config
	rt  sxe.Runtime
	pl  pool.Pool

	nodes []*node

	readyQueued int
	closed      bool

	stopTick chan struct{} // stops the supervision timeout ticker
}
