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
	"strconv"
	"strings"
)

// multiplier for each unit prefix letter.
var sizeMultiplier = map[byte]Size{
	'K': SizeKilo,
	'M': SizeMega,
	'G': SizeGiga,
	'T': SizeTera,
	'P': SizePeta,
	'E': SizeExa,
}

// Parse converts a human-readable size string ("1.5MB", "2 G", "512 Ko")
// into a Size. The unit is mandatory, case-insensitive, and the second unit
// letter (B, o, i, ...) is free; spaces around number and unit are ignored.
func Parse(s string) (Size, error) {
	str := strings.TrimSpace(s)

	if str == "" {
		return SizeNul, fmt.Errorf("size: invalid size '%s'", s)
	}

	i := 0
	for i < len(str) && (str[i] >= '0' && str[i] <= '9' || str[i] == '.' || str[i] == '+') {
		i++
	}

	num := strings.TrimSpace(str[:i])
	unt := strings.ToUpper(strings.TrimSpace(str[i:]))

	if num == "" {
		return SizeNul, fmt.Errorf("size: invalid size '%s'", s)
	}

	val, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return SizeNul, fmt.Errorf("size: invalid size '%s': %w", s, err)
	}

	var mul Size

	switch {
	case unt == "":
		return SizeNul, fmt.Errorf("size: missing unit in '%s'", s)
	case len(unt) <= 2 && sizeMultiplier[unt[0]] > 0:
		mul = sizeMultiplier[unt[0]]
	case len(unt) == 1:
		// plain byte suffix like "B" or "o"
		mul = SizeUnit
	default:
		return SizeNul, fmt.Errorf("size: unknown unit in '%s'", s)
	}

	if v := val * float64(mul); v >= math.MaxUint64 {
		return SizeNul, fmt.Errorf("size: overflow in '%s'", s)
	} else {
		return ParseFloat64(v), nil
	}
}

// ParseByte is Parse for a raw byte slice.
func ParseByte(p []byte) (Size, error) {
	return Parse(string(p))
}

// ParseSize parses a human-readable size string.
//
// Deprecated: use Parse.
func ParseSize(s string) (Size, error) {
	return Parse(s)
}

// ParseByteAsSize parses a human-readable size byte slice.
//
// Deprecated: use ParseByte.
func ParseByteAsSize(p []byte) (Size, error) {
	return ParseByte(p)
}

// GetSize parses a human-readable size string and reports success.
//
// Deprecated: use Parse.
func GetSize(s string) (Size, bool) {
	v, e := Parse(s)
	return v, e == nil
}

// ParseInt64 converts a signed byte count into a Size, taking the absolute
// value of negative input.
func ParseInt64(i int64) Size {
	if i < 0 {
		i = -i
	}

	return Size(uint64(i))
}

// SizeFromInt64 converts a signed byte count into a Size.
//
// Deprecated: use ParseInt64.
func SizeFromInt64(i int64) Size {
	return ParseInt64(i)
}

// ParseUint64 converts an unsigned byte count into a Size.
func ParseUint64(i uint64) Size {
	return Size(i)
}

// ParseFloat64 converts a float byte count into a Size: the absolute value is
// floored, and values beyond the uint64 range are capped at the maximum Size.
func ParseFloat64(f float64) Size {
	f = math.Floor(f)

	if f < 0 {
		f = -f
	}

	if f >= math.MaxUint64 {
		return Size(math.MaxUint64)
	}

	return Size(uint64(f))
}

// SizeFromFloat64 converts a float byte count into a Size.
//
// Deprecated: use ParseFloat64.
func SizeFromFloat64(f float64) Size {
	return ParseFloat64(f)
}
