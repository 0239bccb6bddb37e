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

package protocol_test

import (
	"encoding/json"
	"reflect"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libmap "github.com/go-viper/mapstructure/v2"
	"github.com/nabbar/sxe/network/protocol"
)

var _ = Describe("NetworkProtocol", func() {
	It("parses known names case-insensitively", func() {
		Expect(protocol.Parse("TCP")).To(Equal(protocol.NetworkTCP))
		Expect(protocol.Parse(" udp6 ")).To(Equal(protocol.NetworkUDP6))
		Expect(protocol.Parse("unixgram")).To(Equal(protocol.NetworkUnixGram))
	})

	It("returns NetworkEmpty for unknown or empty input", func() {
		Expect(protocol.Parse("")).To(Equal(protocol.NetworkEmpty))
		Expect(protocol.Parse("sctp")).To(Equal(protocol.NetworkEmpty))
	})

	It("round-trips through String", func() {
		for _, p := range protocol.List() {
			Expect(protocol.Parse(p.String())).To(Equal(p))
		}
	})

	It("rejects out-of-range integers", func() {
		Expect(protocol.ParseInt(0)).To(Equal(protocol.NetworkEmpty))
		Expect(protocol.ParseInt(999)).To(Equal(protocol.NetworkEmpty))
		Expect(protocol.Check(0)).To(BeFalse())
	})

	It("marshals to and from JSON", func() {
		b, e := json.Marshal(protocol.NetworkTCP6)
		Expect(e).ToNot(HaveOccurred())
		Expect(string(b)).To(Equal(`"tcp6"`))

		var p protocol.NetworkProtocol
		Expect(json.Unmarshal(b, &p)).To(Succeed())
		Expect(p).To(Equal(protocol.NetworkTCP6))
	})

	It("classifies stream vs packet transports", func() {
		Expect(protocol.NetworkTCP.IsStream()).To(BeTrue())
		Expect(protocol.NetworkUnix.IsStream()).To(BeTrue())
		Expect(protocol.NetworkUDP.IsPacket()).To(BeTrue())
		Expect(protocol.NetworkUnixGram.IsUnix()).To(BeTrue())
	})

	Describe("ViperDecoderHook", func() {
		It("decodes a string into a NetworkProtocol", func() {
			hook := protocol.ViperDecoderHook()
			out, e := hook(reflect.TypeOf(""), reflect.TypeOf(protocol.NetworkProtocol(0)), "unix")
			Expect(e).ToNot(HaveOccurred())
			Expect(out).To(Equal(protocol.NetworkUnix))
		})

		It("rejects an out-of-range integer", func() {
			hook := protocol.ViperDecoderHook()
			_, e := hook(reflect.TypeOf(int(0)), reflect.TypeOf(protocol.NetworkProtocol(0)), 999)
			Expect(e).To(HaveOccurred())
			Expect(e.Error()).To(ContainSubstring("invalid value"))
		})

		It("passes through values for unrelated target types", func() {
			hook := protocol.ViperDecoderHook()
			out, e := hook(reflect.TypeOf(""), reflect.TypeOf(0), "unix")
			Expect(e).ToNot(HaveOccurred())
			Expect(out).To(Equal("unix"))
		})
	})

	It("satisfies libmap.DecodeHookFuncType", func() {
		var _ libmap.DecodeHookFuncType = protocol.ViperDecoderHook()
	})
})
