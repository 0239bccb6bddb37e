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

// Package udp is a thin UDP dialer built from a socket/config.Config: a
// "connected" UDP socket with a single implicit peer, unlike package
// server/udp's receive-from-anyone listener.
package udp

import (
	"github.com/nabbar/sxe/socket/config"
	"github.com/nabbar/sxe/sxe"
)

// New validates cfg, claims a new UDP client endpoint on rt, and connects
// it to cfg.Address.
func New(rt sxe.Runtime, cfg config.Config, onConnected sxe.OnConnected, onRead sxe.OnRead, onClose sxe.OnClose) (*sxe.Sxe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := rt.NewUDPClient(onConnected, onRead, onClose)
	if err != nil {
		return nil, err
	}

	if err = s.Connect(cfg.Address); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}
