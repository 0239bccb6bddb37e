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
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

func (s *Size) unmarshall(val []byte) error {
	if v, e := ParseByte(val); e != nil {
		return e
	} else {
		*s = v
		return nil
	}
}

func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Size) UnmarshalJSON(bytes []byte) error {
	var v string
	if err := json.Unmarshal(bytes, &v); err != nil {
		return s.unmarshall(bytes)
	}
	return s.unmarshall([]byte(v))
}

func (s Size) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	return s.unmarshall([]byte(value.Value))
}

func (s Size) MarshalTOML() ([]byte, error) {
	return []byte("\"" + s.String() + "\""), nil
}

func (s *Size) UnmarshalTOML(i interface{}) error {
	if p, k := i.([]byte); k {
		return s.unmarshall(p)
	}
	if p, k := i.(string); k {
		return s.unmarshall([]byte(p))
	}
	if p, k := i.(int64); k {
		*s = ParseInt64(p)
		return nil
	}
	return fmt.Errorf("size: value not in valid format")
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Size) UnmarshalText(bytes []byte) error {
	return s.unmarshall(bytes)
}

func (s Size) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(s.String())
}

func (s *Size) UnmarshalCBOR(bytes []byte) error {
	var v string
	if err := cbor.Unmarshal(bytes, &v); err != nil {
		return err
	}
	return s.unmarshall([]byte(v))
}

func (s Size) MarshalBinary() ([]byte, error) {
	p := make([]byte, 8)
	binary.BigEndian.PutUint64(p, uint64(s))
	return p, nil
}

func (s *Size) UnmarshalBinary(bytes []byte) error {
	if len(bytes) != 8 {
		return fmt.Errorf("size: invalid binary length %d", len(bytes))
	}

	*s = Size(binary.BigEndian.Uint64(bytes))
	return nil
}
