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

package server

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"sync/atomic"

	libsck "github.com/nabbar/sxe/socket"
	sckcfg "github.com/nabbar/sxe/socket/config"
)

type srv struct {
	m   sync.Mutex
	cfg sckcfg.Server
	tls *tls.Config
	hdl libsck.HandlerFunc

	fe atomic.Value // libsck.FuncError
	fi atomic.Value // libsck.FuncInfo

	run atomic.Bool
	gon atomic.Bool
	nbr atomic.Int64

	lis net.Listener   // stream families
	pcn net.PacketConn // packet families
	cnl context.CancelFunc
	dne chan struct{}
}

func (o *srv) fctError(e ...error) {
	var lst []error

	for _, err := range e {
		if err = libsck.ErrorFilter(err); err != nil {
			lst = append(lst, err)
		}
	}

	if len(lst) < 1 {
		return
	}

	if f, k := o.fe.Load().(libsck.FuncError); k && f != nil {
		f(lst...)
	}
}

func (o *srv) fctInfo(local, remote net.Addr, state libsck.ConnState) {
	if f, k := o.fi.Load().(libsck.FuncInfo); k && f != nil {
		f(local, remote, state)
	}
}

func (o *srv) RegisterFuncError(f libsck.FuncError) {
	o.fe.Store(f)
}

func (o *srv) RegisterFuncInfo(f libsck.FuncInfo) {
	o.fi.Store(f)
}

func (o *srv) IsRunning() bool {
	return o.run.Load()
}

func (o *srv) IsGone() bool {
	return o.gon.Load()
}

func (o *srv) OpenConnections() int64 {
	return o.nbr.Load()
}

func (o *srv) Done() <-chan struct{} {
	o.m.Lock()
	defer o.m.Unlock()

	if o.dne == nil {
		o.dne = make(chan struct{})
	}

	return o.dne
}

func (o *srv) Listener() (net.Listener, string, error) {
	o.m.Lock()
	defer o.m.Unlock()

	if o.lis != nil {
		return o.lis, o.lis.Addr().String(), nil
	}

	if o.pcn != nil {
		return nil, o.pcn.LocalAddr().String(), nil
	}

	return nil, "", ErrInvalidInstance
}

func (o *srv) Listen(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	x, n := context.WithCancel(ctx)

	o.m.Lock()
	if o.dne == nil {
		o.dne = make(chan struct{})
	}
	d := o.dne
	o.cnl = n
	o.m.Unlock()

	defer func() {
		n()
		o.run.Store(false)
		o.gon.Store(true)

		o.m.Lock()
		if o.dne == d {
			o.dne = nil
		}
		o.m.Unlock()

		close(d)
	}()

	var err error

	if o.cfg.Network.IsPacket() {
		err = o.listenPacket(x)
	} else {
		err = o.listenStream(x)
	}

	o.fctError(err)
	return err
}

func (o *srv) listenStream(ctx context.Context) error {
	l, e := net.Listen(o.cfg.Network.Code(), o.cfg.Address)
	if e != nil {
		return e
	}

	if e = o.cfg.ApplySocketPerm(); e != nil {
		_ = l.Close()
		return e
	}

	if o.tls != nil {
		l = tls.NewListener(l, o.tls)
	}

	o.m.Lock()
	o.lis = l
	o.m.Unlock()

	o.run.Store(true)

	context.AfterFunc(ctx, func() {
		_ = l.Close()
	})

	var wg sync.WaitGroup

	for {
		c, err := l.Accept()

		if err != nil {
			wg.Wait()

			o.m.Lock()
			o.lis = nil
			o.m.Unlock()

			if ctx.Err() != nil {
				return nil
			}

			return libsck.ErrorFilter(err)
		}

		wg.Add(1)
		o.nbr.Add(1)

		go func(cnn net.Conn) {
			defer func() {
				o.fctInfo(cnn.LocalAddr(), cnn.RemoteAddr(), libsck.ConnectionClose)
				_ = cnn.Close()
				o.nbr.Add(-1)
				wg.Done()
			}()

			o.fctInfo(cnn.LocalAddr(), cnn.RemoteAddr(), libsck.ConnectionNew)
			o.fctInfo(cnn.LocalAddr(), cnn.RemoteAddr(), libsck.ConnectionHandler)
			o.hdl(newStreamContext(ctx, cnn, o.cfg.ConIdleTimeout))
		}(c)
	}
}

func (o *srv) listenPacket(ctx context.Context) error {
	p, e := net.ListenPacket(o.cfg.Network.Code(), o.cfg.Address)
	if e != nil {
		return e
	}

	if e = o.cfg.ApplySocketPerm(); e != nil {
		_ = p.Close()
		return e
	}

	o.m.Lock()
	o.pcn = p
	o.m.Unlock()

	o.run.Store(true)

	context.AfterFunc(ctx, func() {
		_ = p.Close()
	})

	o.nbr.Add(1)
	o.fctInfo(p.LocalAddr(), nil, libsck.ConnectionNew)
	o.fctInfo(p.LocalAddr(), nil, libsck.ConnectionHandler)
	o.hdl(newPacketContext(ctx, p))
	o.fctInfo(p.LocalAddr(), nil, libsck.ConnectionClose)
	o.nbr.Add(-1)

	o.m.Lock()
	o.pcn = nil
	o.m.Unlock()

	_ = p.Close()
	return nil
}

func (o *srv) Shutdown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	o.m.Lock()
	n := o.cnl
	o.cnl = nil
	l := o.lis
	p := o.pcn
	d := o.dne
	o.m.Unlock()

	if n != nil {
		n()
	}

	if l != nil {
		_ = l.Close()
	}

	if p != nil {
		_ = p.Close()
	}

	if d != nil {
		select {
		case <-d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (o *srv) Close() error {
	o.m.Lock()
	n := o.cnl
	o.cnl = nil
	l := o.lis
	p := o.pcn
	o.m.Unlock()

	if n != nil {
		n()
	}

	if l != nil {
		return l.Close()
	}

	if p != nil {
		return p.Close()
	}

	return nil
}
