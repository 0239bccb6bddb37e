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

// Package size represents a number of bytes as a unitless integer with
// binary-prefix parsing ("5MB", "1.5G"), human formatting, saturating
// arithmetic, and full marshalling support for JSON, YAML, TOML, text, CBOR
// and binary encodings, plus a Viper decode hook.
package size

import (
	"sync/atomic"
)

// Size is a number of bytes.
type Size uint64

const (
	// SizeNul is the zero Size.
	SizeNul Size = 0
	// SizeUnit is one byte.
	SizeUnit Size = 1
	// SizeKilo is 1024 bytes.
	SizeKilo Size = 1 << 10
	// SizeMega is 1024 kilobytes.
	SizeMega Size = 1 << 20
	// SizeGiga is 1024 megabytes.
	SizeGiga Size = 1 << 30
	// SizeTera is 1024 gigabytes.
	SizeTera Size = 1 << 40
	// SizePeta is 1024 terabytes.
	SizePeta Size = 1 << 50
	// SizeExa is 1024 petabytes.
	SizeExa Size = 1 << 60
)

const (
	// FormatRound0 formats the scaled value without decimals.
	FormatRound0 = "%.0f"
	// FormatRound1 formats the scaled value with one decimal.
	FormatRound1 = "%.1f"
	// FormatRound2 formats the scaled value with two decimals.
	FormatRound2 = "%.2f"
	// FormatRound3 formats the scaled value with three decimals.
	FormatRound3 = "%.3f"
)

// defUnit holds the default unit rune appended to unit prefixes ('B' unless
// changed by SetDefaultUnit).
var defUnit = func() *atomic.Int32 {
	v := new(atomic.Int32)
	v.Store('B')
	return v
}()

// SetDefaultUnit changes the unit rune used by Unit, Code, String and the
// marshalling functions when the caller passes 0 ('B' by default, 'o' for
// French octets for instance).
func SetDefaultUnit(unit rune) {
	if unit == 0 {
		unit = 'B'
	}

	defUnit.Store(unit)
}

func getDefaultUnit() rune {
	return rune(defUnit.Load())
}
