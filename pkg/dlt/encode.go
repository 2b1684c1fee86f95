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

package dlt

import (
	"encoding/binary"
	"math"
)

func appendUint16(buf []byte, bo binary.ByteOrder, v uint16) []byte {
	var tmp [2]byte
	bo.PutUint16(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint32(buf []byte, bo binary.ByteOrder, v uint32) []byte {
	var tmp [4]byte
	bo.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, bo binary.ByteOrder, v uint64) []byte {
	var tmp [8]byte
	bo.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// appendFixedID writes a 4 byte NUL padded identifier
func appendFixedID(buf []byte, id string) []byte {
	var tmp [4]byte
	copy(tmp[:], id)
	return append(buf, tmp[:]...)
}

// appendVariableName writes a length prefixed zero terminated string as
// used by variable-info blocks
func appendVariableName(buf []byte, bo binary.ByteOrder, name string) []byte {
	buf = appendUint16(buf, bo, uint16(len(name)+1))
	buf = append(buf, name...)
	return append(buf, 0x00)
}

// AsBytes encodes the 16 byte storage header
func (h *StorageHeader) AsBytes() []byte {
	buf := make([]byte, 0, StorageHeaderLength)
	buf = append(buf, StoragePattern...)
	buf = appendUint32(buf, binary.LittleEndian, h.Timestamp.Seconds)
	buf = appendUint32(buf, binary.LittleEndian, h.Timestamp.Microseconds)
	return appendFixedID(buf, h.EcuID)
}

// AsBytes encodes the standard header including the optional fields.
// The optional fields are always big endian.
func (h *StandardHeader) AsBytes() []byte {
	buf := make([]byte, 0, HeaderMaxLength)
	buf = append(buf, h.HeaderTypeByte(), h.MessageCounter)
	buf = appendUint16(buf, binary.BigEndian, h.OverallLength())
	if h.EcuID != nil {
		buf = appendFixedID(buf, *h.EcuID)
	}
	if h.SessionID != nil {
		buf = appendUint32(buf, binary.BigEndian, *h.SessionID)
	}
	if h.Timestamp != nil {
		buf = appendUint32(buf, binary.BigEndian, *h.Timestamp)
	}
	return buf
}

// AsBytes encodes the extended header
func (h *ExtendedHeader) AsBytes() []byte {
	buf := make([]byte, 0, ExtendedHeaderLength)
	buf = append(buf, h.MessageInfo, h.ArgumentCount)
	buf = appendFixedID(buf, h.ApplicationID)
	return appendFixedID(buf, h.ContextID)
}

// AppendBytes encodes the argument in the given payload byte order
func (a *Argument) AppendBytes(buf []byte, bo binary.ByteOrder) []byte {
	buf = appendUint32(buf, bo, a.TypeInfo.AsWord())
	switch a.TypeInfo.Kind {
	case KindBool:
		if a.TypeInfo.HasVariableInfo {
			buf = appendVariableName(buf, bo, a.Name)
		}
		if v, ok := a.Value.(BoolValue); ok {
			buf = append(buf, v.Raw)
		}
	case KindString:
		if v, ok := a.Value.(StringValue); ok {
			buf = appendUint16(buf, bo, uint16(len(v.Data)))
			if a.TypeInfo.HasVariableInfo {
				buf = appendVariableName(buf, bo, a.Name)
			}
			buf = append(buf, v.Data...)
		}
	case KindRaw:
		if v, ok := a.Value.(RawValue); ok {
			buf = appendUint16(buf, bo, uint16(len(v.Data)))
			if a.TypeInfo.HasVariableInfo {
				buf = appendVariableName(buf, bo, a.Name)
			}
			buf = append(buf, v.Data...)
		}
	case KindStruct:
		if v, ok := a.Value.(StructValue); ok {
			buf = appendUint16(buf, bo, uint16(len(v.Fields)))
			if a.TypeInfo.HasVariableInfo {
				buf = appendVariableName(buf, bo, a.Name)
			}
			for i := range v.Fields {
				buf = v.Fields[i].AppendBytes(buf, bo)
			}
		}
	default:
		if a.TypeInfo.HasVariableInfo {
			buf = appendUint16(buf, bo, uint16(len(a.Name)+1))
			buf = appendUint16(buf, bo, uint16(len(a.Unit)+1))
			buf = append(buf, a.Name...)
			buf = append(buf, 0x00)
			buf = append(buf, a.Unit...)
			buf = append(buf, 0x00)
		}
		if a.FixedPoint != nil {
			buf = appendUint32(buf, bo, math.Float32bits(a.FixedPoint.Quantization))
			if a.FixedPoint.Width == FloatWidth64 {
				buf = appendUint64(buf, bo, uint64(a.FixedPoint.Offset))
			} else {
				buf = appendUint32(buf, bo, uint32(int32(a.FixedPoint.Offset)))
			}
		}
		buf = appendValue(buf, bo, a.Value)
	}
	return buf
}

func appendValue(buf []byte, bo binary.ByteOrder, value Value) []byte {
	switch v := value.(type) {
	case BoolValue:
		return append(buf, v.Raw)
	case I8Value:
		return append(buf, uint8(v.Val))
	case I16Value:
		return appendUint16(buf, bo, uint16(v.Val))
	case I32Value:
		return appendUint32(buf, bo, uint32(v.Val))
	case I64Value:
		return appendUint64(buf, bo, uint64(v.Val))
	case I128Value:
		return append(buf, v.Raw[:]...)
	case U8Value:
		return append(buf, v.Val)
	case U16Value:
		return appendUint16(buf, bo, v.Val)
	case U32Value:
		return appendUint32(buf, bo, v.Val)
	case U64Value:
		return appendUint64(buf, bo, v.Val)
	case U128Value:
		return append(buf, v.Raw[:]...)
	case F16Value:
		return append(buf, v.Raw[:]...)
	case F32Value:
		return appendUint32(buf, bo, math.Float32bits(v.Val))
	case F64Value:
		return appendUint64(buf, bo, math.Float64bits(v.Val))
	case F128Value:
		return append(buf, v.Raw[:]...)
	case StringValue:
		return append(buf, v.Data...)
	case RawValue:
		return append(buf, v.Data...)
	}
	return buf
}

func (m *Message) payloadBytes() []byte {
	bo := m.Header.Endianness.ByteOrder()
	switch m.Payload.Kind {
	case PayloadVerbose:
		var buf []byte
		for i := range m.Payload.Arguments {
			buf = m.Payload.Arguments[i].AppendBytes(buf, bo)
		}
		return buf
	case PayloadControl:
		buf := make([]byte, 0, 1+len(m.Payload.Data))
		buf = append(buf, m.Payload.ServiceID)
		return append(buf, m.Payload.Data...)
	default:
		buf := make([]byte, 0, 4+len(m.Payload.Data))
		buf = appendUint32(buf, bo, m.Payload.MessageID)
		return append(buf, m.Payload.Data...)
	}
}

// AsBytes re-encodes the message bit-identically to its wire form. The
// length field is recomputed from the actual payload.
func (m *Message) AsBytes() []byte {
	payload := m.payloadBytes()
	header := m.Header
	header.PayloadLength = uint16(len(payload))

	buf := make([]byte, 0, StorageHeaderLength+int(header.OverallLength()))
	if m.Storage != nil {
		buf = append(buf, m.Storage.AsBytes()...)
	}
	buf = append(buf, header.AsBytes()...)
	if m.Extended != nil {
		buf = append(buf, m.Extended.AsBytes()...)
	}
	return append(buf, payload...)
}
