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

package protocol

func (v NetworkProtocol) String() string {
	switch v {
	case NetworkUnix:
		return "unix"
	case NetworkUnixGram:
		return "unixgram"
	case NetworkTCP:
		return "tcp"
	case NetworkTCP4:
		return "tcp4"
	case NetworkTCP6:
		return "tcp6"
	case NetworkUDP:
		return "udp"
	case NetworkUDP4:
		return "udp4"
	case NetworkUDP6:
		return "udp6"
	case NetworkIP:
		return "ip"
	case NetworkIP4:
		return "ip4"
	case NetworkIP6:
		return "ip6"
	default:
		return ""
	}
}

func (v NetworkProtocol) Code() string {
	return v.String()
}

// IsStream reports whether the protocol carries a byte-stream.
func (v NetworkProtocol) IsStream() bool {
	switch v {
	case NetworkTCP, NetworkTCP4, NetworkTCP6, NetworkUnix:
		return true
	default:
		return false
	}
}

// IsPacket reports whether the protocol is datagram-oriented.
func (v NetworkProtocol) IsPacket() bool {
	switch v {
	case NetworkUDP, NetworkUDP4, NetworkUDP6, NetworkIP, NetworkIP4, NetworkIP6, NetworkUnixGram:
		return true
	default:
		return false
	}
}

// IsUnix reports whether the protocol addresses a filesystem path rather than
// an IP endpoint.
func (v NetworkProtocol) IsUnix() bool {
	return v == NetworkUnix || v == NetworkUnixGram
}

// IsTCP reports whether the protocol is one of the TCP families.
func (v NetworkProtocol) IsTCP() bool {
	return v == NetworkTCP || v == NetworkTCP4 || v == NetworkTCP6
}

// IsUDP reports whether the protocol is one of the UDP families.
func (v NetworkProtocol) IsUDP() bool {
	return v == NetworkUDP || v == NetworkUDP4 || v == NetworkUDP6
}

func (v NetworkProtocol) Uint8() uint8 {
	return uint8(v)
}

func (v NetworkProtocol) Uint() uint {
	return uint(v)
}

func (v NetworkProtocol) Uint16() uint16 {
	return uint16(v)
}

func (v NetworkProtocol) Uint32() uint32 {
	return uint32(v)
}

func (v NetworkProtocol) Uint64() uint64 {
	return uint64(v)
}

func (v NetworkProtocol) Int() int {
	if v == NetworkEmpty {
		return 0
	}
	return int(v)
}

func (v NetworkProtocol) Int32() int32 {
	return int32(v.Int())
}

func (v NetworkProtocol) Int64() int64 {
	return int64(v.Int())
}
