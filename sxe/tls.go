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

package sxe

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/nabbar/sxe/certificates"
	"github.com/nabbar/sxe/pool"
)

func handshakeContext() context.Context { return context.Background() }

// enableSSL arms TLS termination for id's next Listen/Connect/accept: the
// handshake itself is folded into crypto/tls.Conn rather than modeled as
// explicit SSL_WANT_READ/SSL_WANT_WRITE states, since Conn.Read/Write already block
// until the handshake completes or fails, on the same per-endpoint I/O
// goroutine that would otherwise have driven that state machine by hand.
func (r *runtime) enableSSL(id pool.Index, cfg certificates.TLSConfig, serverName string) error {
	if cfg == nil {
		return ErrorParamsInvalid.Error(nil)
	}
	e := r.endpoint(id)
	if e == nil {
		return ErrorNoConnection.Error(nil)
	}

	e.mu.Lock()
	if e.transport != nil {
		e.mu.Unlock()
		return ErrorAlreadyConnected.Error(nil)
	}
	e.flags |= FlagSSL
	e.ssl = &sslInfo{cfg: cfg, serverName: serverName}
	e.mu.Unlock()

	return nil
}

// beginServerHandshake wraps an accepted plain conn as a TLS server and
// runs the handshake on the same goroutine that accepted it — accept
// itself already moved off the dispatch goroutine, so blocking here for the
// handshake does not stall other endpoints.
func (r *runtime) beginServerHandshake(id pool.Index, conn net.Conn, ssl *sslInfo) {
	go func() {
		tlsConn := tls.Server(conn, ssl.cfg.TlsConfig(ssl.serverName))
		if err := tlsConn.HandshakeContext(handshakeContext()); err != nil {
			_ = conn.Close()
			r.rtr.Post(func() { r.onHandshakeError(id, err) })
			return
		}
		r.populateSSLInfo(id, tlsConn)
		r.rtr.Post(func() { r.wireConnectedTLS(id, tlsConn) })
	}()
}

// beginClientHandshake is the dial-side counterpart, invoked from the same
// goroutine net.Dial already ran on.
func (r *runtime) beginClientHandshake(id pool.Index, conn net.Conn, ssl *sslInfo) {
	tlsConn := tls.Client(conn, ssl.cfg.TlsConfig(ssl.serverName))
	if err := tlsConn.HandshakeContext(handshakeContext()); err != nil {
		_ = conn.Close()
		r.rtr.Post(func() { r.onHandshakeError(id, err) })
		return
	}
	r.populateSSLInfo(id, tlsConn)
	r.rtr.Post(func() { r.wireConnectedTLS(id, tlsConn) })
}

// SSLInfo is the user-visible record of a negotiated TLS session.
type SSLInfo struct {
	Cipher   string
	Version  string
	Verified bool
}

// SSLInfo returns the negotiated session parameters of a secure endpoint;
// ok is false on a plain endpoint or before the handshake completes.
func (s *Sxe) SSLInfo() (info SSLInfo, ok bool) {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return SSLInfo{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ssl == nil || e.ssl.cipher == "" {
		return SSLInfo{}, false
	}

	return SSLInfo{
		Cipher:   e.ssl.cipher,
		Version:  tls.VersionName(e.ssl.version),
		Verified: e.ssl.verified,
	}, true
}

// SSLPeerCN returns the peer certificate's common name, or "" when the peer
// presented no certificate. Verification never aborts the handshake; this
// and SSLInfo().Verified are the post-hoc policy hooks.
func (s *Sxe) SSLPeerCN() string {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ssl == nil {
		return ""
	}
	return e.ssl.peerCN
}

// SSLPeerIssuer returns the issuer common name of the peer certificate.
func (s *Sxe) SSLPeerIssuer() string {
	e := s.rt.endpoint(s.id)
	if e == nil {
		return ""
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ssl == nil {
		return ""
	}
	return e.ssl.peerIssuer
}

func (r *runtime) onHandshakeError(id pool.Index, err error) {
	_ = r.closeEndpoint(id, ErrorNoConnection.Error(err))
}

// populateSSLInfo fills in the post-handshake fields of sslInfo (cipher,
// negotiated version, peer certificate identity) once ESTABLISHED.
func (r *runtime) populateSSLInfo(id pool.Index, conn *tls.Conn) {
	e := r.endpoint(id)
	if e == nil {
		return
	}

	st := conn.ConnectionState()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ssl == nil {
		return
	}
	e.ssl.cipher = tls.CipherSuiteName(st.CipherSuite)
	e.ssl.version = st.Version
	e.ssl.verified = len(st.VerifiedChains) > 0
	if len(st.PeerCertificates) > 0 {
		cert := st.PeerCertificates[0]
		e.ssl.peerCN = cert.Subject.CommonName
		e.ssl.peerIssuer = cert.Issuer.CommonName
	}
}
