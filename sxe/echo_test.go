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

package sxe_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/sxe/reactor"
	"github.com/nabbar/sxe/sxe"
)

// startRuntime brings up a Runtime bound to a freshly-run Reactor and
// returns a cleanup func that stops both.
func startRuntime(concurrency int, opts ...sxe.Option) (sxe.Runtime, func()) {
	rtr := reactor.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = rtr.Run(ctx) }()

	rt, err := sxe.New(concurrency, rtr, opts...)
	Expect(err).NotTo(HaveOccurred())

	return rt, func() {
		_ = rt.Close()
		rtr.Stop()
		cancel()
	}
}

var _ = Describe("echo", func() {
	// Scenario #1: a client connects, sends bytes, the server echoes them
	// back verbatim on the same connection.
	It("echoes back everything a client sends", func() {
		rt, stop := startRuntime(4)
		defer stop()

		received := make(chan []byte, 1)

		srv, err := rt.NewTCP(nil, func(s *sxe.Sxe, n int) {
			data := append([]byte(nil), s.InBuf(n)...)
			_ = s.BufConsume(n)
			_ = s.SendBuffer(sxe.NewBuffer(data, nil))
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(srv.Listen("127.0.0.1:0")).To(Succeed())

		conn, err := net.Dial("tcp", srv.LocalAddr().String())
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = conn.Close() }()

		go func() {
			buf := make([]byte, 64)
			n, _ := conn.Read(buf)
			received <- append([]byte(nil), buf[:n]...)
		}()

		_, err = conn.Write([]byte("hello, sxe"))
		Expect(err).NotTo(HaveOccurred())

		Eventually(received, 2*time.Second).Should(Receive(Equal([]byte("hello, sxe"))))
	})
})
