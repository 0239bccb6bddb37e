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

package client

import (
	"context"
	"crypto/tls"
	"net"
	"sync"

	libsck "github.com/nabbar/sxe/socket"
	sckcfg "github.com/nabbar/sxe/socket/config"
)

type clt struct {
	m   sync.Mutex
	cfg sckcfg.Client
	tls *tls.Config
	cnn net.Conn

	fe libsck.FuncError
	fi libsck.FuncInfo
}

func (o *clt) fctError(e ...error) {
	var lst []error

	for _, err := range e {
		if err = libsck.ErrorFilter(err); err != nil {
			lst = append(lst, err)
		}
	}

	if len(lst) < 1 {
		return
	}

	o.m.Lock()
	f := o.fe
	o.m.Unlock()

	if f != nil {
		f(lst...)
	}
}

func (o *clt) fctInfo(local, remote net.Addr, state libsck.ConnState) {
	o.m.Lock()
	f := o.fi
	o.m.Unlock()

	if f != nil {
		f(local, remote, state)
	}
}

func (o *clt) RegisterFuncError(f libsck.FuncError) {
	o.m.Lock()
	defer o.m.Unlock()
	o.fe = f
}

func (o *clt) RegisterFuncInfo(f libsck.FuncInfo) {
	o.m.Lock()
	defer o.m.Unlock()
	o.fi = f
}

func (o *clt) Connect(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	o.fctInfo(nil, nil, libsck.ConnectionDial)

	d := net.Dialer{}
	c, e := d.DialContext(ctx, o.cfg.Network.Code(), o.cfg.Address)

	if e != nil {
		o.fctError(e)
		return e
	}

	if o.tls != nil {
		t := o.tls.Clone()

		if t.ServerName == "" {
			if h, _, er := net.SplitHostPort(o.cfg.Address); er == nil {
				t.ServerName = h
			}
		}

		c = tls.Client(c, t)
	}

	o.m.Lock()
	old := o.cnn
	o.cnn = c
	o.m.Unlock()

	if old != nil {
		_ = old.Close()
	}

	o.fctInfo(c.LocalAddr(), c.RemoteAddr(), libsck.ConnectionNew)
	return nil
}

func (o *clt) conn() net.Conn {
	o.m.Lock()
	defer o.m.Unlock()
	return o.cnn
}

func (o *clt) IsConnected() bool {
	return o.conn() != nil
}

func (o *clt) Read(p []byte) (int, error) {
	c := o.conn()

	if c == nil {
		return 0, net.ErrClosed
	}

	o.fctInfo(c.LocalAddr(), c.RemoteAddr(), libsck.ConnectionRead)
	n, e := c.Read(p)
	o.fctError(e)

	return n, e
}

func (o *clt) Write(p []byte) (int, error) {
	c := o.conn()

	if c == nil {
		return 0, net.ErrClosed
	}

	o.fctInfo(c.LocalAddr(), c.RemoteAddr(), libsck.ConnectionWrite)
	n, e := c.Write(p)
	o.fctError(e)

	return n, e
}

func (o *clt) Close() error {
	o.m.Lock()
	c := o.cnn
	o.cnn = nil
	o.m.Unlock()

	if c == nil {
		return nil
	}

	o.fctInfo(c.LocalAddr(), c.RemoteAddr(), libsck.ConnectionClose)
	return c.Close()
}
