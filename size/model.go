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

// ceilF rounds the float result of an operation up to the next integer,
// tolerating the usual binary representation drift (10 * 1.1 must give 11,
// not 12).
func ceilF(v float64) float64 {
	return math.Ceil(math.Round(v*1e9) / 1e9)
}

// Add increases the Size by n bytes, saturating at the maximum Size.
func (s *Size) Add(n uint64) {
	_ = s.AddErr(n)
}

// AddErr increases the Size by n bytes; on overflow the Size saturates at
// the maximum and an error is returned.
func (s *Size) AddErr(n uint64) error {
	if math.MaxUint64-uint64(*s) < n {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: overflow adding %d", n)
	}

	*s += Size(n)
	return nil
}

// Sub decreases the Size by n bytes, saturating at zero.
func (s *Size) Sub(n uint64) {
	_ = s.SubErr(n)
}

// SubErr decreases the Size by n bytes; on underflow the Size saturates at
// zero and an error is returned.
func (s *Size) SubErr(n uint64) error {
	if n > uint64(*s) {
		*s = SizeNul
		return fmt.Errorf("size: invalid substractor %d", n)
	}

	*s -= Size(n)
	return nil
}

// Mul scales the Size by the given factor, rounding fractional results up
// and saturating at the bounds (a negative factor gives zero).
func (s *Size) Mul(factor float64) {
	_ = s.MulErr(factor)
}

// MulErr scales the Size by the given factor; out-of-range results saturate
// and return an error.
func (s *Size) MulErr(factor float64) error {
	v := ceilF(float64(*s) * factor)

	if v < 0 {
		*s = SizeNul
		return fmt.Errorf("size: invalid multiplier %f", factor)
	} else if v >= math.MaxUint64 {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: overflow multiplying by %f", factor)
	}

	*s = Size(uint64(v))
	return nil
}

// Div divides the Size by the given divisor, rounding fractional results up.
// An invalid divisor leaves the Size unchanged.
func (s *Size) Div(divisor float64) {
	_ = s.DivErr(divisor)
}

// DivErr divides the Size by the given divisor, rounding fractional results
// up; a zero or negative divisor is rejected.
func (s *Size) DivErr(divisor float64) error {
	if divisor <= 0 {
		return fmt.Errorf("size: invalid diviser %f", divisor)
	}

	v := ceilF(float64(*s) / divisor)

	if v >= math.MaxUint64 {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: overflow dividing by %f", divisor)
	}

	*s = Size(uint64(v))
	return nil
}
