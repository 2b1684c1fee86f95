/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package parse

import (
	"bytes"
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// decoder is a cursor over a byte slice. All reads return ErrIncomplete
// with a byte hint when the slice is exhausted; slices handed out are
// views into the input, no copies are made on the hot path.
type decoder struct {
	buf []byte
	pos int
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.pos
}

func (d *decoder) take(n int) ([]byte, error) {
	if d.remaining() < n {
		return nil, ErrIncomplete{Needed: n - d.remaining()}
	}
	view := d.buf[d.pos : d.pos+n]
	d.pos += n
	return view, nil
}

func (d *decoder) u8() (uint8, error) {
	view, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return view[0], nil
}

func (d *decoder) u16(bo binary.ByteOrder) (uint16, error) {
	view, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return bo.Uint16(view), nil
}

func (d *decoder) u32(bo binary.ByteOrder) (uint32, error) {
	view, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return bo.Uint32(view), nil
}

func (d *decoder) u64(bo binary.ByteOrder) (uint64, error) {
	view, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return bo.Uint64(view), nil
}

func (d *decoder) f32(bo binary.ByteOrder) (float32, error) {
	v, err := d.u32(bo)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (d *decoder) f64(bo binary.ByteOrder) (float64, error) {
	v, err := d.u64(bo)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// zeroTerminated reads a fixed number of bytes and extracts the string up
// to the first NUL. Invalid UTF-8 is truncated at the first offending byte.
func (d *decoder) zeroTerminated(size int) (string, error) {
	view, err := d.take(size)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(view, 0x00); i >= 0 {
		view = view[:i]
	}
	return string(validUTF8Prefix(view)), nil
}

// fixedID reads a 4 byte NUL padded identifier
func (d *decoder) fixedID() (string, error) {
	return d.zeroTerminated(4)
}

func validUTF8Prefix(b []byte) []byte {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return b[:i]
		}
		i += size
	}
	return b
}
