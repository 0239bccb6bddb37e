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

// Package pool implements the generic, intrusive N-state LRU+timeout
// allocator shared by every pool-backed subsystem (the SXE runtime, the TCP
// connection pool, the SSL session table, the deferred-event queue): a
// caller-sized array of nodes where every node is in exactly one caller
// defined state, each state is an LRU-ordered doubly-linked list threaded
// through array indices, and a state may carry a timeout enforced by
// CheckTimeouts.
package pool

import "time"

// Index is a node's position in the pool array; it is also the node's
// identity for the lifetime of the pool.
type Index int

// NoIndex is returned wherever a state list is empty.
const NoIndex Index = -1

// State is a caller-defined state ordinal; states are declared by position
// in the timeouts slice passed to New.
type State int32

// TimeoutFunc is invoked by CheckTimeouts for every node whose age exceeds
// its state's timeout. It must move the node out of that state; a timeout
// callback that leaves the node in place would stall the scan forever, so
// CheckTimeouts treats it as a programming error (see Pool.CheckTimeouts).
type TimeoutFunc func(id Index, state State)

// Clock abstracts the monotonic source behind touch_time and CheckTimeouts
// so tests can drive the timeout scanner without a real clock.
type Clock interface {
	Now() time.Time
}

// Pool is a fixed-size, N-state LRU+timeout allocator. The zero value is
// not usable; construct one with New.
type Pool interface {
	// Len returns the number of nodes in the pool.
	Len() int

	// NumStates returns the number of declared states.
	NumStates() int

	// IndexToState returns the current state of node id.
	IndexToState(id Index) State

	// GetNumberInState returns the number of nodes currently in state s.
	GetNumberInState(s State) int

	// GetOldestIndex returns the head (least recently touched node) of
	// state s, or NoIndex if the state is empty.
	GetOldestIndex(s State) Index

	// GetOldestTime returns the touch_time of the head of state s, or the
	// zero time if the state is empty.
	GetOldestTime(s State) time.Time

	// GetElementTime returns the touch_time of node id.
	GetElementTime(id Index) time.Time

	// Touch moves id to the tail of its current state and records its
	// touch_time as now.
	Touch(id Index)

	// SetState moves id from state expectedOld to state newState. In
	// unlocked mode it panics if id's actual state is not expectedOld,
	// mirroring the source assertion; in locked mode the move is a
	// compare-and-swap that returns ErrorIncorrectState on mismatch
	// instead of panicking, since a racing peer may have already moved it.
	SetState(id Index, expectedOld, newState State) error

	// TrySetState attempts the same move as SetState but never panics:
	// on success it returns (expectedOld, true); on mismatch it returns
	// the node's actual current state and false.
	TrySetState(id Index, expectedOld, newState State) (actualOld State, ok bool)

	// SetOldestState pops the head of state from (the LRU node) and moves
	// it to the tail of state to, returning its index, or NoIndex if from
	// is empty.
	SetOldestState(from, to State) Index

	// WalkerConstruct returns a Walker over state s's list in LRU order.
	WalkerConstruct(s State) *Walker

	// CheckTimeouts walks every state with a non-zero timeout and invokes
	// the pool's TimeoutFunc for every node whose age is at least that
	// state's timeout, oldest first, until the head's age falls below the
	// timeout. It returns the number of nodes visited.
	CheckTimeouts(now time.Time) int

	// SetClock overrides the pool's time source; used by tests.
	SetClock(c Clock)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
