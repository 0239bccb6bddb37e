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

// Walker iterates a state's list in LRU order. It tolerates the node it
// just returned being re-stated out from under it: rather than trusting
// that node's current next-pointer (which a move could have redirected),
// it remembers what followed the node at the moment it was visited, and
// re-anchors to that remembered index on the following Step.
type Walker struct {
	p       *pool
	state   State
	next    Index
	started bool
}

// WalkerConstruct returns a Walker over state s's list, LRU order.
func (p *pool) WalkerConstruct(s State) *Walker {
	return &Walker{p: p, state: s, next: NoIndex}
}

// Step advances the walker and returns the next node's index in LRU order,
// or (NoIndex, false) once the state is exhausted.
func (w *Walker) Step() (Index, bool) {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()

	var id Index
	if !w.started {
		w.started = true
		id = w.p.states[w.state].head
	} else {
		id = w.next
	}

	if id == NoIndex || !w.p.valid(id) {
		w.next = NoIndex
		return NoIndex, false
	}

	// Remember the successor as of right now; if id is re-stated before
	// the next call this remains the correct continuation as long as that
	// successor itself is not also moved before we reach it.
	w.next = w.p.nodes[id].next

	return id, true
}
