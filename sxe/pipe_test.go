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

package sxe_test

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"golang.org/x/sys/unix"

	"github.com/nabbar/sxe/pool"
	"github.com/nabbar/sxe/sxe"
)

// tcpPair returns both ends of a freshly established loopback TCP
// connection.
func tcpPair() (client, server net.Conn) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = ln.Close() }()

	done := make(chan net.Conn, 1)
	go func() {
		defer GinkgoRecover()
		c, e := ln.Accept()
		Expect(e).NotTo(HaveOccurred())
		done <- c
	}()

	c, err := net.Dial("tcp", ln.Addr().String())
	Expect(err).NotTo(HaveOccurred())

	var s net.Conn
	Eventually(done, time.Second).Should(Receive(&s))
	return c, s
}

var _ = Describe("pipe fd handoff", func() {
	// Scenario #6: a control message on a UNIX pipe hands over a connected
	// socket; once the pipe's own bytes are drained the endpoint rebinds to
	// the handed-over socket and subsequent traffic arrives as on_read on
	// the same endpoint.
	It("migrates the endpoint onto a handed-over socket once the pipe drains", func() {
		rt, stop := startRuntime(4)
		defer stop()

		path := filepath.Join(os.TempDir(), fmt.Sprintf("sxe-handoff-%d.sock", GinkgoRandomSeed()))
		defer func() { _ = os.Remove(path) }()

		type delivery struct {
			id   pool.Index
			data string
		}
		reads := make(chan delivery, 4)

		srv, err := rt.NewPipe(nil, func(s *sxe.Sxe, n int) {
			data := string(s.InBuf(n))
			// draining the pipe's bytes is what releases the stashed
			// descriptor for rebind
			_ = s.BufClear()
			reads <- delivery{id: s.ID(), data: data}
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(srv.Listen(path)).To(Succeed())

		raw, err := net.Dial("unix", path)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = raw.Close() }()
		pipe := raw.(*net.UnixConn)

		tcpClient, tcpServer := tcpPair()
		defer func() { _ = tcpClient.Close() }()
		defer func() { _ = tcpServer.Close() }()

		f, err := tcpServer.(*net.TCPConn).File()
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = f.Close() }()

		_, _, err = pipe.WriteMsgUnix([]byte("hello"), unix.UnixRights(int(f.Fd())), nil)
		Expect(err).NotTo(HaveOccurred())

		var first delivery
		Eventually(reads, 3*time.Second).Should(Receive(&first))
		Expect(first.data).To(Equal("hello"))

		// the endpoint should now be reading from the handed-over socket:
		// bytes written to its peer must surface as on_read on the SAME
		// endpoint id the pipe bytes arrived on
		Eventually(func() error {
			_, e := tcpClient.Write([]byte("world"))
			return e
		}, time.Second).Should(Succeed())

		var second delivery
		Eventually(reads, 3*time.Second).Should(Receive(&second))
		Expect(second.data).To(Equal("world"))
		Expect(second.id).To(Equal(first.id))
	})
})
