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

// Package tcp is a thin TCP listener built from a socket/config.Config: one
// call wires a new endpoint, arms TLS if configured, and starts listening.
package tcp

import (
	"github.com/nabbar/sxe/socket/config"
	"github.com/nabbar/sxe/sxe"
)

// New validates cfg, claims a new TCP endpoint on rt, arms TLS termination
// if cfg.TLS is set, and starts listening on cfg.Address. onConnected fires
// for every accepted connection (nil is fine if the caller only cares about
// onRead/onClose).
func New(rt sxe.Runtime, cfg config.Config, onConnected sxe.OnConnected, onRead sxe.OnRead, onClose sxe.OnClose) (*sxe.Sxe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := rt.NewTCP(onConnected, onRead, onClose)
	if err != nil {
		return nil, err
	}

	if tc := cfg.TLSConfig(); tc != nil {
		if err = s.EnableSSL(tc, cfg.ServerName); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	if err = s.Listen(cfg.Address); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}
