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
	sdkmpb "github.com/vbauerster/mpb/v8"
	sdkdcr "github.com/vbauerster/mpb/v8/decor"
)

// mkOpts assembles the common bar options.
func mkOpts(drop bool, prev SemBar, dec ...sdkmpb.BarOption) []sdkmpb.BarOption {
	var opt []sdkmpb.BarOption

	opt = append(opt, dec...)

	if drop {
		opt = append(opt, sdkmpb.BarRemoveOnComplete())
	}

	if p, k := prev.(*bar); k && p != nil && p.bar != nil {
		opt = append(opt, sdkmpb.BarQueueAfter(p.bar))
	}

	return opt
}

func (o *sem) BarBytes(title, msg string, total int64, drop bool, prev SemBar) SemBar {
	return o.newBar(total, mkOpts(drop, prev,
		sdkmpb.PrependDecorators(
			sdkdcr.Name(title, sdkdcr.WC{W: len(title) + 1, C: sdkdcr.DindentRight}),
			sdkdcr.Name(msg),
		),
		sdkmpb.AppendDecorators(
			sdkdcr.CountersKibiByte("% .2f / % .2f"),
			sdkdcr.Percentage(sdkdcr.WCSyncSpace),
		),
	)...)
}

func (o *sem) BarTime(title, msg string, total int64, drop bool, prev SemBar) SemBar {
	return o.newBar(total, mkOpts(drop, prev,
		sdkmpb.PrependDecorators(
			sdkdcr.Name(title, sdkdcr.WC{W: len(title) + 1, C: sdkdcr.DindentRight}),
			sdkdcr.Name(msg),
		),
		sdkmpb.AppendDecorators(
			sdkdcr.Elapsed(sdkdcr.ET_STYLE_GO),
			sdkdcr.Percentage(sdkdcr.WCSyncSpace),
		),
	)...)
}

func (o *sem) BarNumber(title, msg string, total int64, drop bool, prev SemBar) SemBar {
	return o.newBar(total, mkOpts(drop, prev,
		sdkmpb.PrependDecorators(
			sdkdcr.Name(title, sdkdcr.WC{W: len(title) + 1, C: sdkdcr.DindentRight}),
			sdkdcr.Name(msg),
		),
		sdkmpb.AppendDecorators(
			sdkdcr.CountersNoUnit("%d / %d"),
			sdkdcr.Percentage(sdkdcr.WCSyncSpace),
		),
	)...)
}

func (o *sem) BarOpts(total int64, drop bool) SemBar {
	return o.newBar(total, mkOpts(drop, nil)...)
}

// newBar adds one bar to the progress renderer, or returns a progress-less
// bar bound to the semaphore only.
func (o *sem) newBar(total int64, opts ...sdkmpb.BarOption) SemBar {
	b := &bar{sem: o}

	if o.mpb != nil {
		b.tot = total
		b.bar = o.mpb.AddBar(total, opts...)
	}

	return b
}

// bar binds one MPB bar (or none) to its owning semaphore.
type bar struct {
	sem *sem
	tot int64
	bar *sdkmpb.Bar
}

func (o *bar) Total() int64 {
	if o.bar == nil {
		return 0
	}

	return o.tot
}

func (o *bar) Current() int64 {
	if o.bar == nil {
		return 0
	}

	return o.bar.Current()
}

func (o *bar) Inc(n int) {
	if o.bar != nil {
		o.bar.IncrBy(n)
	}
}

func (o *bar) Inc64(n int64) {
	if o.bar != nil {
		o.bar.IncrInt64(n)
	}
}

func (o *bar) Reset() {
	if o.bar != nil {
		o.bar.SetCurrent(0)
	}
}

func (o *bar) Complete() {
	if o.bar != nil {
		o.bar.SetTotal(-1, true)
	}
}

func (o *bar) Completed() bool {
	if o.bar == nil {
		return true
	}

	return o.bar.Completed()
}

func (o *bar) NewWorker() error {
	return o.sem.NewWorker()
}

func (o *bar) NewWorkerTry() bool {
	return o.sem.NewWorkerTry()
}

func (o *bar) DeferWorker() {
	o.Inc(1)
	o.sem.DeferWorker()
}
