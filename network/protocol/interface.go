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

// Package protocol identifies the transport a socket endpoint binds to: the
// stream/datagram families the SXE runtime can construct an endpoint over
// (tcp, udp, unix, unixgram, ip, and their v4/v6 pinned variants).
package protocol

import "strings"

// NetworkProtocol identifies one of the network families an endpoint can bind to.
type NetworkProtocol uint8

const (
	NetworkEmpty NetworkProtocol = iota
	NetworkUnix
	NetworkTCP
	NetworkTCP4
	NetworkTCP6
	NetworkUDP
	NetworkUDP4
	NetworkUDP6
	NetworkIP
	NetworkIP4
	NetworkIP6
	NetworkUnixGram
	networkMax
)

// List returns every known network protocol, NetworkEmpty excluded.
func List() []NetworkProtocol {
	return []NetworkProtocol{
		NetworkUnix,
		NetworkTCP,
		NetworkTCP4,
		NetworkTCP6,
		NetworkUDP,
		NetworkUDP4,
		NetworkUDP6,
		NetworkIP,
		NetworkIP4,
		NetworkIP6,
		NetworkUnixGram,
	}
}

// Check reports whether v is one of the known, non-empty protocol values.
func Check(v uint8) bool {
	p := NetworkProtocol(v)
	return p > NetworkEmpty && p < networkMax
}

// Parse matches a case-insensitive network name to a NetworkProtocol, returning
// NetworkEmpty when s is empty or unrecognized.
func Parse(s string) NetworkProtocol {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unix":
		return NetworkUnix
	case "unixgram":
		return NetworkUnixGram
	case "tcp":
		return NetworkTCP
	case "tcp4":
		return NetworkTCP4
	case "tcp6":
		return NetworkTCP6
	case "udp":
		return NetworkUDP
	case "udp4":
		return NetworkUDP4
	case "udp6":
		return NetworkUDP6
	case "ip":
		return NetworkIP
	case "ip4":
		return NetworkIP4
	case "ip6":
		return NetworkIP6
	default:
		return NetworkEmpty
	}
}

// ParseInt returns the NetworkProtocol for d, or NetworkEmpty if d is out of range.
func ParseInt(d int) NetworkProtocol {
	if d <= int(NetworkEmpty) || d >= int(networkMax) {
		return NetworkEmpty
	}
	return NetworkProtocol(d)
}

// ParseBytes parses p as a UTF-8 network name.
func ParseBytes(p []byte) NetworkProtocol {
	return Parse(string(p))
}
