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
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	libctx "github.com/nabbar/sxe/context"
	"github.com/nabbar/sxe/logger"
	loglvl "github.com/nabbar/sxe/logger/level"
	"github.com/nabbar/sxe/pool"
	"github.com/nabbar/sxe/reactor"
)

// State names the three pool states an endpoint slot moves through. They
// are pool.State values so the runtime is a direct user of the pool
// package's state-timed allocator, with FREE as state 0 (the pool's natural
// all-nodes-start-here state).
const (
	StateFree pool.State = iota
	StateUsed
	StateDeferred
	numStates
)

const (
	// defaultInBufSize is the per-endpoint read buffer size. The source
	// uses a fixed in_buf[FIXED]; 16 KiB comfortably covers one TLS record.
	defaultInBufSize = 16 * 1024
	// defaultUDPBurst bounds how many datagrams one wakeup drains, matching
	// the Linux default readiness-notification batch size.
	defaultUDPBurst = 64
	// maxDeferredPerTick bounds how many DEFERRED endpoints one release
	// hook invocation drains per loop iteration.
	maxDeferredPerTick = 64
	defaultBacklog     = 128
)

// runtime is the concrete Runtime: a pool.Pool of endpoints plus the reactor
// every endpoint's I/O goroutines post results onto.
type runtime struct {
	log func() logger.Logger
	rtr reactor.Reactor
	pl  pool.Pool

	mu    sync.RWMutex
	nodes []*endpoint

	backlog  int
	inBufLen int
	udpBurst int

	meta libctx.Config[string]

	closed bool
}

// Option configures a Runtime at construction time.
type Option func(r *runtime)

// WithLogger installs the function the runtime and every endpoint it mints
// log through; nil (the default) disables logging.
func WithLogger(fn func() logger.Logger) Option {
	return func(r *runtime) { r.log = fn }
}

// WithBacklog sets the initial listen() backlog; SetListenBacklog overrides
// it afterward.
func WithBacklog(n int) Option {
	return func(r *runtime) {
		if n > 0 {
			r.backlog = n
		}
	}
}

// WithReadBufferSize overrides the per-endpoint read buffer size.
func WithReadBufferSize(n int) Option {
	return func(r *runtime) {
		if n > 0 {
			r.inBufLen = n
		}
	}
}

// WithUDPBurst overrides how many datagrams one wakeup drains on a UDP
// endpoint before yielding back to the reactor.
func WithUDPBurst(n int) Option {
	return func(r *runtime) {
		if n > 0 {
			r.udpBurst = n
		}
	}
}

// New constructs a Runtime of concurrency slots bound to rtr. This replaces
// the source's register(n)/init() split and process-wide singleton pool with
// an explicit value: concurrency is the total slot count, and the
// constructor performs what init() used to do.
func New(concurrency int, rtr reactor.Reactor, opts ...Option) (Runtime, error) {
	if concurrency <= 0 {
		return nil, ErrorParamsInvalid.Error(nil)
	}
	if rtr == nil {
		return nil, ErrorParamsInvalid.Error(nil)
	}

	r := &runtime{
		rtr:      rtr,
		backlog:  defaultBacklog,
		inBufLen: defaultInBufSize,
		udpBurst: defaultUDPBurst,
		meta:     libctx.New[string](nil),
		nodes:    make([]*endpoint, concurrency),
	}

	pl, err := pool.New(concurrency, []time.Duration{0, 0, 0}, r.onPoolTimeout)
	if err != nil {
		return nil, err
	}
	r.pl = pl

	rtr.SetReleaseHook(r.drainDeferred)

	return r, nil
}

// onPoolTimeout is registered with the pool constructor but is never
// exercised: every state the runtime declares carries a zero timeout, so
// pool.Pool.CheckTimeouts never calls it. It exists because pool.New
// requires a non-nil callback.
func (r *runtime) onPoolTimeout(id pool.Index, state pool.State) {
	r.logEntry(loglvl.ErrorLevel, "unexpected pool timeout callback id=%d state=%d", id, state)
}

func (r *runtime) logEntry(lvl loglvl.Level, msg string, args ...interface{}) {
	if r.log == nil {
		return
	}
	lg := r.log()
	if lg == nil {
		return
	}
	lg.Entry(lvl, msg, args...).Log()
}

func (r *runtime) Len() int { return r.pl.Len() }

func (r *runtime) NumUsed() int {
	return r.pl.GetNumberInState(StateUsed) + r.pl.GetNumberInState(StateDeferred)
}

func (r *runtime) SetListenBacklog(n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	r.backlog = n
	r.mu.Unlock()
}

// endpoint returns the node for id if it is currently USED or DEFERRED, nil
// otherwise (FREE slots and out-of-range indices are indistinguishable from
// the caller's point of view: there is nothing there to hand back).
func (r *runtime) endpoint(id pool.Index) *endpoint {
	if r.pl.IndexToState(id) == StateFree {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) < 0 || int(id) >= len(r.nodes) {
		return nil
	}
	return r.nodes[id]
}

func (r *runtime) Lookup(id pool.Index) *Sxe {
	if r.endpoint(id) == nil {
		return nil
	}
	return &Sxe{rt: r, id: id}
}

// claim pops a FREE slot, installs e as its node, and moves it to USED. It
// returns ErrorPoolExhausted (the source's NoUnusedElements) without
// consuming a slot when none are FREE.
func (r *runtime) claim(e *endpoint) (*Sxe, error) {
	id := r.pl.SetOldestState(StateFree, StateUsed)
	if id == pool.NoIndex {
		return nil, ErrorPoolExhausted.Error(nil)
	}

	e.id = id
	e.sessionID = uuid.New()

	r.mu.Lock()
	r.nodes[id] = e
	r.mu.Unlock()

	r.meta.Store(strconv.Itoa(int(id)), e.sessionID.String())

	return &Sxe{rt: r, id: id}, nil
}

// release returns id to FREE and forgets its node. Callers must have
// already torn down the endpoint's I/O (closed conn/listener, stopped
// goroutines) before calling release.
func (r *runtime) release(id pool.Index) {
	from := r.pl.IndexToState(id)
	if from == StateFree {
		return
	}
	_ = r.pl.SetState(id, from, StateFree)

	r.mu.Lock()
	r.nodes[id] = nil
	r.mu.Unlock()

	r.meta.Delete(strconv.Itoa(int(id)))
}

// Close tears down every endpoint still USED or DEFERRED. It does not stop
// the reactor: callers that also own the reactor must Stop it themselves.
func (r *runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	ids := make([]pool.Index, 0, len(r.nodes))
	for id, e := range r.nodes {
		if e != nil {
			ids = append(ids, pool.Index(id))
		}
	}
	r.mu.Unlock()

	for _, id := range ids {
		_ = r.closeEndpoint(id, nil)
	}
	return nil
}

// Meta returns the runtime-wide named value store (logging tags, build
// metadata, and similar process-level context a caller wants reachable from
// every callback without threading it through each Sxe's UserData).
func (r *runtime) Meta() libctx.Config[string] { return r.meta }

// ActiveSessions returns the correlation id assigned to every currently
// claimed slot, keyed by pool index, for diagnostics and log correlation.
func (r *runtime) ActiveSessions() map[pool.Index]string {
	out := make(map[pool.Index]string)
	r.meta.Walk(func(key string, val interface{}) bool {
		if n, err := strconv.Atoi(key); err == nil {
			if sid, ok := val.(string); ok {
				out[pool.Index(n)] = sid
			}
		}
		return true
	})
	return out
}
