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
	"crypto/tls"

	"github.com/nabbar/sxe/certificates"
	liberr "github.com/nabbar/sxe/errors"
	"github.com/nabbar/sxe/network/protocol"
)

// TLSClient describes the optional TLS profile of a dialing socket client.
type TLSClient struct {
	// Enabled turns TLS on for the dialed connection.
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled" toml:"enabled"`
	// ServerName is the SNI / certificate verification name; the dialed
	// host is used when empty.
	ServerName string `mapstructure:"serverName" json:"serverName" yaml:"serverName" toml:"serverName"`
	// Config carries the certificate material; a nil Config with Enable set
	// dials with the default TLS client configuration.
	Config *certificates.Config `mapstructure:"config" json:"config" yaml:"config" toml:"config"`
}

// Client describes one dialer of the runtime-free socket layer
// (socket/client).
type Client struct {
	// Network selects the transport family (tcp, tcp4, tcp6, udp, udp4,
	// udp6, unix, unixgram).
	Network protocol.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network"`
	// Address is the "host:port" (tcp/udp) or filesystem path (unix,
	// unixgram) this client dials.
	Address string `mapstructure:"address" json:"address" yaml:"address" toml:"address"`
	// TLS configures TLS for the dialed connection.
	TLS TLSClient `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
}

// Validate checks that the dialer's network and address are usable.
func (c *Client) Validate() liberr.Error {
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

// TLSConfig builds the effective *tls.Config for the dialed connection: nil
// when TLS is disabled, the given default (or an empty config) when no
// certificate material is configured.
func (c *Client) TLSConfig(def *tls.Config) *tls.Config {
	if !c.TLS.Enabled {
		return nil
	}

	if c.TLS.Config != nil {
		if t := c.TLS.Config.New(); t != nil {
			return t.TlsConfig(c.TLS.ServerName)
		}
	}

	if def != nil {
		return def.Clone()
	}

	return &tls.Config{ServerName: c.TLS.ServerName}
}
