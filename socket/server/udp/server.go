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

// Package udp is a thin UDP listener built from a socket/config.Config.
package udp

import (
	"github.com/nabbar/sxe/socket/config"
	"github.com/nabbar/sxe/sxe"
)

// New validates cfg and binds a UDP endpoint to cfg.Address. Each incoming
// datagram is delivered to onRead independently; the sender is reachable
// through the returned *sxe.Sxe's PeerAddr once onRead fires.
func New(rt sxe.Runtime, cfg config.Config, onRead sxe.OnRead) (*sxe.Sxe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return rt.NewUDP(cfg.Address, onRead)
}
