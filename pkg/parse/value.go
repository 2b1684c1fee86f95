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
	"encoding/binary"
	"fmt"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
)

// DecodeValue decodes a bare fixed-width value of the given type info,
// without a preceding type-info word. Non-verbose payloads resolved
// through an external signal description are decoded this way; string
// and raw signals have no on-wire framing there, their extent comes
// from the signal description itself.
func DecodeValue(input []byte, bo binary.ByteOrder, info dlt.TypeInfo) (int, dlt.Value, error) {
	d := &decoder{buf: input}
	switch info.Kind {
	case dlt.KindBool:
		raw, err := d.u8()
		if err != nil {
			return 0, nil, err
		}
		return d.pos, dlt.BoolValue{Raw: raw}, nil
	case dlt.KindSigned:
		value, err := d.signedValue(bo, info.TypeLength)
		if err != nil {
			return 0, nil, err
		}
		return d.pos, value, nil
	case dlt.KindUnsigned:
		value, err := d.unsignedValue(bo, info.TypeLength)
		if err != nil {
			return 0, nil, err
		}
		return d.pos, value, nil
	case dlt.KindFloat:
		value, err := d.floatValue(bo, info.FloatWidth)
		if err != nil {
			return 0, nil, err
		}
		return d.pos, value, nil
	}
	return 0, nil, ErrHickup{Reason: fmt.Sprintf("signal kind %s has no fixed-width decoding", info.Kind)}
}
