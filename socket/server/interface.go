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

// Package server binds one address of any supported network family and
// serves every connection through a socket.HandlerFunc. Stream families
// (tcp, unix) run an accept loop with one handler goroutine per connection;
// packet families (udp, unixgram) hand the bound packet socket to a single
// handler. This layer carries no event runtime — the sxe-bound listeners
// live in the per-protocol subpackages.
package server

import (
	"crypto/tls"
	"errors"

	"github.com/nabbar/sxe/network/protocol"
	libsck "github.com/nabbar/sxe/socket"
	sckcfg "github.com/nabbar/sxe/socket/config"
)

var (
	// ErrInvalidHandler is returned by New when no handler is given.
	ErrInvalidHandler = errors.New("invalid handler")
	// ErrInvalidInstance is returned when the server is used before Listen.
	ErrInvalidInstance = errors.New("invalid server instance")
)

// New returns a Server bound to the given configuration. The handler is
// mandatory; def, when non-nil, is the TLS configuration used if cfg
// enables TLS without carrying its own certificate material.
func New(def *tls.Config, handler libsck.HandlerFunc, cfg sckcfg.Server) (libsck.Server, error) {
	if handler == nil {
		return nil, ErrInvalidHandler
	}

	if !protocol.Check(uint8(cfg.Network)) {
		return nil, sckcfg.ErrInvalidProtocol
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &srv{
		cfg: cfg,
		hdl: handler,
	}

	if t := cfg.TLSConfig(); t != nil {
		s.tls = t.TlsConfig("")
	} else if def != nil {
		s.tls = def.Clone()
	}

	return s, nil
}
