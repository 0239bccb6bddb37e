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

package config

import (
	"os"
	"time"

	"github.com/nabbar/sxe/certificates"
	liberr "github.com/nabbar/sxe/errors"
	"github.com/nabbar/sxe/file/perm"
	"github.com/nabbar/sxe/network/protocol"
)

// Server describes one listener of the runtime-free socket layer
// (socket/server): the network family and address it binds, the filesystem
// permissions applied to a UNIX-domain socket file, and an optional TLS
// profile.
type Server struct {
	// Network selects the transport family (tcp, tcp4, tcp6, udp, udp4,
	// udp6, unix, unixgram).
	Network protocol.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	// Address is the "host:port" (tcp/udp) or filesystem path (unix,
	// unixgram) this listener binds.
	Address string `mapstructure:"address" json:"address" yaml:"address" toml:"address"`
	// PermFile is the filesystem mode applied to Address once a UNIX or
	// UNIX-datagram listener has bound it; ignored for IP-based networks.
	PermFile perm.Perm `mapstructure:"permFile" json:"permFile" yaml:"permFile" toml:"permFile"`
	// GroupPerm is the group id chowned onto the bound UNIX socket file;
	// zero or negative leaves the group untouched.
	GroupPerm int `mapstructure:"groupPerm" json:"groupPerm" yaml:"groupPerm" toml:"groupPerm"`
	// TLS, if non-nil, terminates TLS on every accepted stream connection.
	TLS *certificates.Config `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
	// ConIdleTimeout closes an accepted connection whose handler performed
	// no I/O for this long; zero disables the idle deadline.
	ConIdleTimeout time.Duration `mapstructure:"conIdleTimeout" json:"conIdleTimeout" yaml:"conIdleTimeout" toml:"conIdleTimeout"`
}

// Validate checks that the listener's network and address are usable.
func (c *Server) Validate() liberr.Error {
	err := ErrorValidatorError.Error(nil)

	if !protocol.Check(uint8(c.Network)) {
		err.Add(ErrorNetworkInvalid.Error(nil))
	}

	if len(c.Address) < 1 {
		err.Add(ErrorAddressMissing.Error(nil))
	}

	if err.HasParent() {
		return err
	}

	return nil
}

// TLSConfig builds the effective certificates.TLSConfig for this listener,
// or nil if TLS is not configured.
func (c *Server) TLSConfig() certificates.TLSConfig {
	if c.TLS == nil {
		return nil
	}
	return c.TLS.New()
}

// ApplySocketPerm applies PermFile and GroupPerm to the bound UNIX socket
// file; a no-op for IP-based networks or when neither is set.
func (c *Server) ApplySocketPerm() error {
	if !c.Network.IsUnix() {
		return nil
	}

	if c.PermFile != 0 {
		if e := os.Chmod(c.Address, os.FileMode(c.PermFile)); e != nil {
			return e
		}
	}

	if c.GroupPerm > 0 {
		if e := os.Chown(c.Address, -1, c.GroupPerm); e != nil {
			return e
		}
	}

	return nil
}
