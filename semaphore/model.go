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

package semaphore

import (
	"context"

	sdkmpb "github.com/vbauerster/mpb/v8"
	sdksem "golang.org/x/sync/semaphore"
)

type sem struct {
	context.Context

	cnl context.CancelFunc
	nbr int64
	sem *sdksem.Weighted
	mpb *sdkmpb.Progress
}

// GetMPB exposes the underlying progress renderer, or nil when the
// semaphore was created without progress.
func (o *sem) GetMPB() interface{} {
	if o.mpb == nil {
		return nil
	}

	return o.mpb
}

func (o *sem) Weighted() int64 {
	return o.nbr
}

func (o *sem) NewWorker() error {
	if o.sem == nil {
		return o.Err()
	}

	return o.sem.Acquire(o.Context, 1)
}

func (o *sem) NewWorkerTry() bool {
	if o.sem == nil {
		return o.Err() == nil
	}

	return o.sem.TryAcquire(1)
}

func (o *sem) DeferWorker() {
	if o.sem != nil {
		o.sem.Release(1)
	}
}

func (o *sem) WaitAll() error {
	if o.sem == nil {
		return o.Err()
	}

	if e := o.sem.Acquire(o.Context, o.nbr); e != nil {
		return e
	}

	o.sem.Release(o.nbr)
	return nil
}

func (o *sem) DeferMain() {
	if o.cnl != nil {
		o.cnl()
	}
}
