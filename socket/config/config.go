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

// Package config describes one socket endpoint's configuration: the
// network family and address it binds to, its concurrency, and an optional
// TLS profile, decodable from JSON/YAML/TOML/viper the same way
// certificates.Config is.
package config

import (
	"fmt"
	"os"
	"reflect"

	libmap "github.com/go-viper/mapstructure/v2"
	libval "github.com/go-playground/validator/v10"

	"github.com/nabbar/sxe/certificates"
	liberr "github.com/nabbar/sxe/errors"
	"github.com/nabbar/sxe/file/perm"
	"github.com/nabbar/sxe/network/protocol"
)

// defaultConcurrency is used when Config.Concurrency is left at zero.
const defaultConcurrency = 128

// Config describes one listener (socket/server) or dialer (socket/client).
type Config struct {
	// Network selects the transport family (tcp, tcp4, tcp6, udp, udp4,
	// udp6, unix, unixgram).
	Network protocol.NetworkProtocol `mapstructure:"network" json:"network" yaml:"network" toml:"network" validate:"required"`
	// Address is the "host:port" (tcp/udp) or filesystem path (unix,
	// unixgram) this endpoint binds or dials.
	Address string `mapstructure:"address" json:"address" yaml:"address" toml:"address" validate:"required"`
	// Concurrency bounds how many endpoints this socket may hold at once
	// (accepted connections for a server, pooled connections for a
	// client); zero falls back to defaultConcurrency.
	Concurrency int `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	// TLS, if non-nil, TLS-terminates this endpoint using the resulting
	// certificates.TLSConfig.
	TLS *certificates.Config `mapstructure:"tls" json:"tls" yaml:"tls" toml:"tls"`
	// ServerName is passed through to certificates.TLSConfig.TlsConfig for
	// SNI (client mode) or certificate selection (server mode).
	ServerName string `mapstructure:"serverName" json:"serverName" yaml:"serverName" toml:"serverName"`
	// PermSocket sets the filesystem mode applied to Address after a UNIX
	// or UNIX-datagram listener binds it; ignored for IP-based networks.
	PermSocket perm.Perm `mapstructure:"permSocket" json:"permSocket" yaml:"permSocket" toml:"permSocket"`
}

// Validate checks the struct tags above and that Network is one of the
// recognized protocol.NetworkProtocol values.
func (c *Config) Validate() liberr.Error {
	err := ErrorValidatorError.Error(nil)

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		}

		for _, e := range er.(libval.ValidationErrors) {
			//nolint goerr113
			err.Add(fmt.Errorf("config field '%s' is not validated by constraint '%s'", e.StructNamespace(), e.ActualTag()))
		}
	}

	if !protocol.Check(uint8(c.Network)) {
		err.Add(ErrorNetworkInvalid.Error(nil))
	}

	if err.HasParent() {
		return err
	}

	return nil
}

// ConcurrencyOrDefault returns Concurrency, or defaultConcurrency if it was
// left unset.
func (c *Config) ConcurrencyOrDefault() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return defaultConcurrency
}

// TLSConfig builds the effective certificates.TLSConfig for this socket, or
// nil if TLS is not configured.
func (c *Config) TLSConfig() certificates.TLSConfig {
	if c.TLS == nil {
		return nil
	}
	return c.TLS.New()
}

// ApplySocketPerm chmods Address to PermSocket once a UNIX or UNIX-datagram
// listener has bound it; a no-op for IP-based networks or an unset
// PermSocket.
func (c *Config) ApplySocketPerm() error {
	if !c.Network.IsUnix() || c.PermSocket == 0 {
		return nil
	}
	return os.Chmod(c.Address, os.FileMode(c.PermSocket))
}

// ViperDecoderHook composes protocol.ViperDecoderHook and perm.ViperDecoderHook
// so a Config embedded in a larger viper-backed structure decodes both its
// Network and PermSocket fields without the caller wiring each separately.
func ViperDecoderHook() libmap.DecodeHookFuncType {
	netHook := protocol.ViperDecoderHook()
	permHook := perm.ViperDecoderHook()

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		var z protocol.NetworkProtocol
		if to == reflect.TypeOf(z) {
			return netHook(from, to, data)
		}

		var p perm.Perm
		if to == reflect.TypeOf(p) {
			return permHook(from, to, data)
		}

		return data, nil
	}
}
