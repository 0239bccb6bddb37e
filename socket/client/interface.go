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

// Package client dials one address of any supported network family, with
// optional TLS, exposing the connection as a plain io.ReadWriteCloser with
// an explicit Connect step so a failed endpoint can be redialed in place.
// This layer carries no event runtime — the sxe-bound dialers live in the
// per-protocol subpackages.
package client

import (
	"crypto/tls"

	"github.com/nabbar/sxe/network/protocol"
	libsck "github.com/nabbar/sxe/socket"
	sckcfg "github.com/nabbar/sxe/socket/config"
)

// New returns a Client dialing the given configuration; def, when non-nil,
// is the TLS configuration used if cfg enables TLS without carrying its own
// certificate material. The client is returned unconnected.
func New(cfg sckcfg.Client, def *tls.Config) (libsck.Client, error) {
	if !protocol.Check(uint8(cfg.Network)) {
		return nil, sckcfg.ErrInvalidProtocol
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &clt{
		cfg: cfg,
		tls: cfg.TLSConfig(def),
	}, nil
}
