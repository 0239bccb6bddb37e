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
	"reflect"

	libmap "github.com/go-viper/mapstructure/v2"
)

// ViperDecoderHook returns a DecodeHookFuncType for Viper/mapstructure
// configuration decoding: a string is parsed as a human-readable size, an
// integer or float is taken as a raw byte count.
func ViperDecoderHook() libmap.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		var z Size

		if to != reflect.TypeOf(z) || data == nil {
			return data, nil
		}

		// the data's dynamic kind must agree with the announced source type,
		// otherwise the value is passed through untouched
		val := reflect.ValueOf(data)

		switch {
		case from.Kind() == reflect.String && val.Kind() == reflect.String:
			return Parse(val.String())
		case from.Kind() == reflect.Slice && val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.Uint8:
			return ParseByte(val.Bytes())
		case isKindInt(from.Kind()) && isKindInt(val.Kind()):
			return ParseInt64(val.Int()), nil
		case isKindUint(from.Kind()) && isKindUint(val.Kind()):
			return ParseUint64(val.Uint()), nil
		case isKindFloat(from.Kind()) && isKindFloat(val.Kind()):
			return ParseFloat64(val.Float()), nil
		default:
			return data, nil
		}
	}
}

func isKindInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isKindUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func isKindFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}
