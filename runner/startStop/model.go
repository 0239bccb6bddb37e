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

package startStop

import (
	"context"
	"errors"
	"sync"
	"time"

	libatm "github.com/nabbar/sxe/atomic"
	librun "github.com/nabbar/sxe/runner"
)

var (
	// ErrInvalidStart is recorded when Start is called with a nil start function.
	ErrInvalidStart = errors.New("invalid start function")
	// ErrInvalidStop is recorded when Stop is called with a nil stop function.
	ErrInvalidStop = errors.New("invalid stop function")
)

type run struct {
	m  sync.Mutex
	fs librun.FuncAction
	fp librun.FuncAction
	cx libatm.Value[context.CancelFunc] // cancel of the running start function
	ch libatm.Value[chan struct{}]      // closed when the start goroutine exits
	tm libatm.Value[time.Time]          // time the start function began running
	er libatm.Value[[]error]
}

func (o *run) addErr(e error) {
	if e == nil {
		return
	}

	o.m.Lock()
	defer o.m.Unlock()

	l := o.er.Load()
	l = append(l, e)
	o.er.Store(l)
}

func (o *run) Start(ctx context.Context) error {
	if o.IsRunning() {
		if e := o.Stop(ctx); e != nil {
			return e
		}
	}

	if ctx == nil {
		ctx = context.Background()
	}

	// a new run starts with a clean slate: the error list reports the
	// current run, not the runner's whole history
	o.m.Lock()
	o.er.Store(nil)
	o.m.Unlock()

	x, n := context.WithCancel(ctx)
	c := make(chan struct{})

	o.cx.Store(n)
	o.ch.Store(c)

	go func() {
		defer func() {
			librun.RecoveryCaller("sxe/runner/startStop", recover())
			o.tm.Store(time.Time{})
			close(c)
		}()

		if o.fs == nil {
			o.addErr(ErrInvalidStart)
			return
		}

		o.tm.Store(time.Now())
		o.addErr(o.fs(x))
	}()

	return nil
}

func (o *run) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if n := o.cx.Swap(nil); n != nil {
		n()
	}

	if o.fp != nil {
		o.addErr(o.fp(ctx))
	} else if o.ch.Load() != nil {
		o.addErr(ErrInvalidStop)
	}

	if c := o.ch.Swap(nil); c != nil {
		select {
		case <-c:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (o *run) Restart(ctx context.Context) error {
	if e := o.Stop(ctx); e != nil {
		return e
	}

	return o.Start(ctx)
}

func (o *run) IsRunning() bool {
	return !o.tm.Load().IsZero()
}

func (o *run) Uptime() time.Duration {
	t := o.tm.Load()

	if t.IsZero() {
		return 0
	}

	return time.Since(t)
}

func (o *run) ErrorsLast() error {
	o.m.Lock()
	defer o.m.Unlock()

	if l := o.er.Load(); len(l) > 0 {
		return l[len(l)-1]
	}

	return nil
}

func (o *run) ErrorsList() []error {
	o.m.Lock()
	defer o.m.Unlock()

	l := o.er.Load()
	r := make([]error, len(l))
	copy(r, l)

	return r
}
