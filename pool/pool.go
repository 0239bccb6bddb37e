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

package pool

import (
	"sync"
	"time"

	libatm "github.com/nabbar/sxe/atomic"
)

// node is one element's pool metadata: its current state and its position
// in that state's doubly-linked list, threaded by index rather than
// pointer so the pool can be relocated or shared (design note: intrusive
// LRU lists via indices, not pointers).
type node struct {
	state State
	prev  Index
	next  Index
	touch time.Time
}

// stateList is the head/tail/count/timeout metadata for one state.
type stateList struct {
	head    Index
	tail    Index
	count   int
	timeout time.Duration
}

type pool struct {
	mu     sync.Mutex
	clock  Clock
	locked bool
	timed  bool

	onTimeout TimeoutFunc

	nodes  []node
	states []stateList

	// cas mirrors node.state for lock-free reads/compare-and-swap when the
	// pool is opened with WithLocked; nil otherwise. The source describes
	// this as "a pool may additionally be locked (atomic compare-and-swap
	// on per-node state)".
	cas []libatm.Value[int32]
}

// Option configures a Pool at construction time.
type Option func(p *pool)

// WithLocked enables atomic compare-and-swap on per-node state, for pools
// shared across goroutines outside the single dispatch goroutine.
func WithLocked() Option {
	return func(p *pool) { p.locked = true }
}

// WithClock overrides the pool's time source; used by tests that need to
// advance time deterministically past a state's timeout.
func WithClock(c Clock) Option {
	return func(p *pool) {
		if c != nil {
			p.clock = c
		}
	}
}

// New builds a pool of nElts nodes and len(timeouts) states; every node
// starts in state 0. A zero timeout disables the timeout scan for that
// state. onTimeout is required: CheckTimeouts invokes it for every node
// whose age reaches its state's timeout.
func New(nElts int, timeouts []time.Duration, onTimeout TimeoutFunc, opts ...Option) (Pool, error) {
	if nElts <= 0 || len(timeouts) == 0 {
		return nil, ErrorParamsInvalid.Error(nil)
	}
	if onTimeout == nil {
		return nil, ErrorParamsInvalid.Error(nil)
	}

	p := &pool{
		clock:     realClock{},
		timed:     true,
		onTimeout: onTimeout,
		nodes:     make([]node, nElts),
		states:    make([]stateList, len(timeouts)),
	}

	for _, o := range opts {
		o(p)
	}

	for s := range p.states {
		p.states[s] = stateList{head: NoIndex, tail: NoIndex, timeout: timeouts[s]}
	}

	if p.locked {
		p.cas = make([]libatm.Value[int32], nElts)
		for i := range p.cas {
			p.cas[i] = libatm.NewValueDefault[int32](0, 0)
		}
	}

	now := p.clock.Now()
	for i := 0; i < nElts; i++ {
		p.nodes[i] = node{state: 0, prev: Index(i - 1), next: Index(i + 1), touch: now}
	}
	p.nodes[nElts-1].next = NoIndex
	p.states[0] = stateList{head: 0, tail: Index(nElts - 1), count: nElts, timeout: timeouts[0]}

	return p, nil
}

func (p *pool) Len() int       { return len(p.nodes) }
func (p *pool) NumStates() int { return len(p.states) }

func (p *pool) SetClock(c Clock) {
	if c == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clock = c
}

func (p *pool) valid(id Index) bool {
	return id >= 0 && int(id) < len(p.nodes)
}

func (p *pool) IndexToState(id Index) State {
	if !p.valid(id) {
		return State(NoIndex)
	}
	if p.locked {
		return State(p.cas[id].Load())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodes[id].state
}

func (p *pool) GetNumberInState(s State) int {
	if int(s) < 0 || int(s) >= len(p.states) {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[s].count
}

func (p *pool) GetOldestIndex(s State) Index {
	if int(s) < 0 || int(s) >= len(p.states) {
		return NoIndex
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.states[s].head
}

func (p *pool) GetOldestTime(s State) time.Time {
	if int(s) < 0 || int(s) >= len(p.states) {
		return time.Time{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.states[s].head
	if h == NoIndex {
		return time.Time{}
	}
	return p.nodes[h].touch
}

func (p *pool) GetElementTime(id Index) time.Time {
	if !p.valid(id) {
		return time.Time{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nodes[id].touch
}

// unlink removes id from its current state's list. Caller holds p.mu.
func (p *pool) unlink(id Index) State {
	n := &p.nodes[id]
	s := &p.states[n.state]

	if n.prev != NoIndex {
		p.nodes[n.prev].next = n.next
	} else {
		s.head = n.next
	}
	if n.next != NoIndex {
		p.nodes[n.next].prev = n.prev
	} else {
		s.tail = n.prev
	}
	s.count--
	n.prev, n.next = NoIndex, NoIndex
	return n.state
}

// appendTail links id onto the tail of state st and stamps its touch_time.
// Caller holds p.mu.
func (p *pool) appendTail(id Index, st State, now time.Time) {
	n := &p.nodes[id]
	s := &p.states[st]

	n.state = st
	n.touch = now
	n.prev = s.tail
	n.next = NoIndex

	if s.tail != NoIndex {
		p.nodes[s.tail].next = id
	} else {
		s.head = id
	}
	s.tail = id
	s.count++
}

// move relocates id from its current state to st's tail. Caller holds p.mu.
func (p *pool) move(id Index, st State, now time.Time) {
	p.unlink(id)
	p.appendTail(id, st, now)
}

func (p *pool) Touch(id Index) {
	if !p.valid(id) {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	st := p.nodes[id].state
	p.move(id, st, p.clock.Now())
}

func (p *pool) SetState(id Index, expectedOld, newState State) error {
	if !p.valid(id) || int(newState) < 0 || int(newState) >= len(p.states) {
		return ErrorIndexInvalid.Error(nil)
	}

	if p.locked {
		if !p.cas[id].CompareAndSwap(int32(expectedOld), int32(newState)) {
			return ErrorIncorrectState.Error(nil)
		}
		p.mu.Lock()
		p.move(id, newState, p.clock.Now())
		p.mu.Unlock()
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.nodes[id].state != expectedOld {
		// Source asserts here; the Go translation surfaces the invariant
		// violation as a panic so a programmer error is not silently
		// tolerated in unlocked (single-dispatch-goroutine) mode.
		panic(ErrorInternal.Error(nil))
	}

	p.move(id, newState, p.clock.Now())
	return nil
}

func (p *pool) TrySetState(id Index, expectedOld, newState State) (State, bool) {
	if !p.valid(id) || int(newState) < 0 || int(newState) >= len(p.states) {
		return State(NoIndex), false
	}

	if p.locked {
		if !p.cas[id].CompareAndSwap(int32(expectedOld), int32(newState)) {
			return State(p.cas[id].Load()), false
		}
		p.mu.Lock()
		p.move(id, newState, p.clock.Now())
		p.mu.Unlock()
		return expectedOld, true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	actual := p.nodes[id].state
	if actual != expectedOld {
		return actual, false
	}

	p.move(id, newState, p.clock.Now())
	return expectedOld, true
}

func (p *pool) SetOldestState(from, to State) Index {
	if int(from) < 0 || int(from) >= len(p.states) || int(to) < 0 || int(to) >= len(p.states) {
		return NoIndex
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.states[from].head
	if id == NoIndex {
		return NoIndex
	}

	p.move(id, to, p.clock.Now())

	if p.locked {
		p.cas[id].Store(int32(to))
	}

	return id
}

// CheckTimeouts walks every state with a non-zero timeout, oldest node
// first, invoking onTimeout until the head's age is within the timeout or
// the state empties. onTimeout is required to move the node elsewhere;
// if it does not, the scan panics rather than looping forever (spec:
// "the pool asserts on this").
func (p *pool) CheckTimeouts(now time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	visited := 0

	for s := range p.states {
		timeout := p.states[s].timeout
		if timeout <= 0 {
			continue
		}

		for {
			head := p.states[s].head
			if head == NoIndex {
				break
			}

			age := now.Sub(p.nodes[head].touch)
			if age < timeout {
				break
			}

			prevState := p.nodes[head].state

			p.mu.Unlock()
			p.onTimeout(head, State(s))
			p.mu.Lock()

			if p.nodes[head].state == prevState && p.states[s].head == head {
				panic(ErrorInternal.Error(nil))
			}

			visited++
		}
	}

	return visited
}
