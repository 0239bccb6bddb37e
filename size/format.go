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

package size

import (
	"fmt"
	"math"
)

// unit prefix letters by power of 1024.
var sizePrefix = [...]string{"", "K", "M", "G", "T", "P", "E"}

// exponent returns the power of 1024 the Size is naturally expressed in.
func (s Size) exponent() int {
	e := 0
	v := float64(s)

	for v >= float64(SizeKilo) && e < len(sizePrefix)-1 {
		v /= float64(SizeKilo)
		e++
	}

	return e
}

// scaled returns the value expressed in its natural unit (e.g. 1536 -> 1.5).
func (s Size) scaled() float64 {
	return float64(s) / math.Pow(float64(SizeKilo), float64(s.exponent()))
}

// Unit returns the unit suffix the Size is naturally expressed in ("B",
// "KB", "MB", ...). A zero unit rune selects the default set by
// SetDefaultUnit; any other rune replaces the trailing letter ('o' gives
// "Ko", "Mo", ...).
func (s Size) Unit(unit rune) string {
	if unit == 0 {
		unit = getDefaultUnit()
	}

	return sizePrefix[s.exponent()] + string(unit)
}

// Code returns the unit suffix of the Size.
//
// Deprecated: use Unit.
func (s Size) Code(unit rune) string {
	return s.Unit(unit)
}

// Format returns the Size scaled to its natural unit and rendered with the
// given fmt verb (FormatRound0..FormatRound3 or any float format).
func (s Size) Format(format string) string {
	return fmt.Sprintf(format, s.scaled())
}

// String renders the Size with two decimals and its unit, e.g. "1.50 KB".
func (s Size) String() string {
	return s.Format(FormatRound2) + " " + s.Unit(0)
}

// Int64 returns the byte count as int64, capped at the int64 maximum.
func (s Size) Int64() int64 {
	if uint64(s) > uint64(math.MaxInt64) {
		return math.MaxInt64
	}

	return int64(s)
}

// Int32 returns the byte count as int32, capped at the int32 maximum.
func (s Size) Int32() int32 {
	if uint64(s) > uint64(math.MaxInt32) {
		return math.MaxInt32
	}

	return int32(s)
}

// Int returns the byte count as int, capped at the int maximum.
func (s Size) Int() int {
	if uint64(s) > uint64(math.MaxInt) {
		return math.MaxInt
	}

	return int(s)
}

// Uint64 returns the byte count as uint64.
func (s Size) Uint64() uint64 {
	return uint64(s)
}

// Uint32 returns the byte count as uint32, capped at the uint32 maximum.
func (s Size) Uint32() uint32 {
	if uint64(s) > uint64(math.MaxUint32) {
		return math.MaxUint32
	}

	return uint32(s)
}

// Uint returns the byte count as uint.
func (s Size) Uint() uint {
	return uint(s)
}

// Float64 returns the byte count as float64.
func (s Size) Float64() float64 {
	return float64(s)
}

// Float32 returns the byte count as float32, capped at the float32 maximum.
func (s Size) Float32() float32 {
	if float64(s) > math.MaxFloat32 {
		return math.MaxFloat32
	}

	return float32(s)
}

// KiloBytes returns the byte count expressed in kilobytes.
func (s Size) KiloBytes() float64 {
	return float64(s) / float64(SizeKilo)
}

// MegaBytes returns the byte count expressed in megabytes.
func (s Size) MegaBytes() float64 {
	return float64(s) / float64(SizeMega)
}

// GigaBytes returns the byte count expressed in gigabytes.
func (s Size) GigaBytes() float64 {
	return float64(s) / float64(SizeGiga)
}

// TeraBytes returns the byte count expressed in terabytes.
func (s Size) TeraBytes() float64 {
	return float64(s) / float64(SizeTera)
}

// PetaBytes returns the byte count expressed in petabytes.
func (s Size) PetaBytes() float64 {
	return float64(s) / float64(SizePeta)
}

// ExaBytes returns the byte count expressed in exabytes.
func (s Size) ExaBytes() float64 {
	return float64(s) / float64(SizeExa)
}
