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
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libtls "github.com/nabbar/sxe/certificates"
	"github.com/nabbar/sxe/sxe"
)

// genServerPair mints a throwaway self-signed ECDSA pair for 127.0.0.1.
func genServerPair() (pub, key string) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	Expect(err).ToNot(HaveOccurred())

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	Expect(err).ToNot(HaveOccurred())

	template := x509.Certificate{
		SerialNumber:          serialNumber,
		Subject:               pkix.Name{CommonName: "sxe-test", Organization: []string{"Acme Co"}},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	Expect(err).ToNot(HaveOccurred())

	bufPub := bytes.NewBuffer(make([]byte, 0))
	Expect(pem.Encode(bufPub, &pem.Block{Type: "CERTIFICATE", Bytes: derBytes})).To(Succeed())

	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	Expect(err).ToNot(HaveOccurred())

	bufKey := bytes.NewBuffer(make([]byte, 0))
	Expect(pem.Encode(bufKey, &pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})).To(Succeed())

	return bufPub.String(), bufKey.String()
}

var _ = Describe("tls termination", func() {
	// Scenario #5: the peer sends more plaintext in one record than in_buf
	// holds; the first on_read delivers a full buffer, consume+resume must
	// deliver the remainder out of what was already decrypted and buffered,
	// without any further network traffic.
	It("delivers buffered plaintext across a consume/resume without new network bytes", func() {
		const bufSize = 256

		rt, stop := startRuntime(4, sxe.WithReadBufferSize(bufSize))
		defer stop()

		pub, key := genServerPair()
		cfg := libtls.New()
		Expect(cfg.AddCertificatePairString(key, pub)).To(Succeed())

		var (
			total     int64
			firstRead = make(chan int, 1)
			handle    atomic.Pointer[sxe.Sxe]
		)

		srv, err := rt.NewTCP(func(s *sxe.Sxe) {
			handle.Store(s)
		}, func(s *sxe.Sxe, n int) {
			atomic.AddInt64(&total, int64(n))
			select {
			case firstRead <- n:
			default:
			}
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(srv.EnableSSL(cfg, "")).To(Succeed())
		Expect(srv.Listen("127.0.0.1:0")).To(Succeed())

		conn, err := tls.Dial("tcp", srv.LocalAddr().String(), &tls.Config{InsecureSkipVerify: true})
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = conn.Close() }()

		payload := make([]byte, bufSize+100)
		for i := range payload {
			payload[i] = byte(i)
		}
		_, err = conn.Write(payload)
		Expect(err).NotTo(HaveOccurred())

		Eventually(firstRead, 3*time.Second).Should(Receive(Equal(bufSize)))

		s := handle.Load()
		Expect(s).NotTo(BeNil())
		Expect(s.Mode()).To(Equal(sxe.ModeSecure))

		info, ok := s.SSLInfo()
		Expect(ok).To(BeTrue())
		Expect(info.Cipher).NotTo(BeEmpty())
		Expect(info.Version).NotTo(BeEmpty())

		// consume part of the first delivery, then ask for an immediate
		// resume: the remaining 100 bytes were already decrypted and held
		// back, so they must arrive with no further client write
		Expect(s.BufConsume(bufSize)).To(Succeed())
		Expect(s.BufResume(sxe.ResumeImmediate)).To(Succeed())

		Eventually(func() int64 {
			return atomic.LoadInt64(&total)
		}, 3*time.Second).Should(Equal(int64(len(payload))))
	})
})
