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
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// Value is the typed content of a verbose argument. Implementations carry
// their decoded width so re-encoding reproduces the exact TYLE.
type Value interface {
	// String renders the value for inspection
	String() string

	value()
}

// BoolValue keeps the raw payload byte; any non-zero byte decodes as true
type BoolValue struct {
	Raw uint8 `json:"raw"`
}

func (v BoolValue) Bool() bool     { return v.Raw != 0 }
func (v BoolValue) String() string { return strconv.FormatBool(v.Bool()) }
func (v BoolValue) value()         {}

// I8Value ...
type I8Value struct {
	Val int8 `json:"val"`
}

func (v I8Value) String() string { return strconv.FormatInt(int64(v.Val), 10) }
func (v I8Value) value()         {}

// I16Value ...
type I16Value struct {
	Val int16 `json:"val"`
}

func (v I16Value) String() string { return strconv.FormatInt(int64(v.Val), 10) }
func (v I16Value) value()         {}

// I32Value ...
type I32Value struct {
	Val int32 `json:"val"`
}

func (v I32Value) String() string { return strconv.FormatInt(int64(v.Val), 10) }
func (v I32Value) value()         {}

// I64Value ...
type I64Value struct {
	Val int64 `json:"val"`
}

func (v I64Value) String() string { return strconv.FormatInt(v.Val, 10) }
func (v I64Value) value()         {}

// I128Value is kept opaque in the payload byte order
type I128Value struct {
	Raw [16]byte `json:"raw"`
}

func (v I128Value) String() string { return fmt.Sprintf("0x%x", v.Raw) }
func (v I128Value) value()         {}

// U8Value ...
type U8Value struct {
	Val uint8 `json:"val"`
}

func (v U8Value) String() string { return strconv.FormatUint(uint64(v.Val), 10) }
func (v U8Value) value()         {}

// U16Value ...
type U16Value struct {
	Val uint16 `json:"val"`
}

func (v U16Value) String() string { return strconv.FormatUint(uint64(v.Val), 10) }
func (v U16Value) value()         {}

// U32Value ...
type U32Value struct {
	Val uint32 `json:"val"`
}

func (v U32Value) String() string { return strconv.FormatUint(uint64(v.Val), 10) }
func (v U32Value) value()         {}

// U64Value ...
type U64Value struct {
	Val uint64 `json:"val"`
}

func (v U64Value) String() string { return strconv.FormatUint(v.Val, 10) }
func (v U64Value) value()         {}

// U128Value is kept opaque in the payload byte order
type U128Value struct {
	Raw [16]byte `json:"raw"`
}

func (v U128Value) String() string { return fmt.Sprintf("0x%x", v.Raw) }
func (v U128Value) value()         {}

// F16Value is kept opaque in the payload byte order
type F16Value struct {
	Raw [2]byte `json:"raw"`
}

func (v F16Value) String() string { return fmt.Sprintf("f16(0x%x)", v.Raw) }
func (v F16Value) value()         {}

// F32Value ...
type F32Value struct {
	Val float32 `json:"val"`
}

func (v F32Value) String() string {
	return strconv.FormatFloat(float64(v.Val), 'g', -1, 32)
}
func (v F32Value) value() {}

// F64Value ...
type F64Value struct {
	Val float64 `json:"val"`
}

func (v F64Value) String() string { return strconv.FormatFloat(v.Val, 'g', -1, 64) }
func (v F64Value) value()         {}

// F128Value is kept opaque in the payload byte order
type F128Value struct {
	Raw [16]byte `json:"raw"`
}

func (v F128Value) String() string { return fmt.Sprintf("f128(0x%x)", v.Raw) }
func (v F128Value) value()         {}

// StringValue keeps the exact wire bytes of the string body so that
// trailing terminators survive a round trip. Text strips them.
type StringValue struct {
	Data []byte `json:"data"`
}

// Text returns the string content without trailing NUL terminators
func (v StringValue) Text() string {
	return string(bytes.TrimRight(v.Data, "\x00"))
}

func (v StringValue) String() string { return v.Text() }
func (v StringValue) value()         {}

// RawValue ...
type RawValue struct {
	Data []byte `json:"data"`
}

func (v RawValue) String() string { return fmt.Sprintf("0x%x", v.Data) }
func (v RawValue) value()         {}

// StructValue holds the nested arguments of a struct argument
type StructValue struct {
	Fields []Argument `json:"fields"`
}

func (v StructValue) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i := range v.Fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(v.Fields[i].Value.String())
	}
	buf.WriteByte('}')
	return buf.String()
}
func (v StructValue) value() {}

// FixedPoint carries quantisation and offset read before a fixed-point
// value. The offset is sign-extended; Width selects the encoded size.
type FixedPoint struct {
	Quantization float32    `json:"quantization"`
	Offset       int64      `json:"offset"`
	Width        FloatWidth `json:"width"`
}

// Argument is one typed argument of a verbose payload. Name and Unit are
// only present on the wire when the type info has the variable-info flag;
// string, raw, bool and struct arguments carry a name but never a unit.
type Argument struct {
	TypeInfo   TypeInfo    `json:"type_info"`
	Name       string      `json:"name,omitempty"`
	Unit       string      `json:"unit,omitempty"`
	FixedPoint *FixedPoint `json:"fixed_point,omitempty"`
	Value      Value       `json:"value"`
}

func (a *Argument) String() string {
	if a.Value == nil {
		return ""
	}
	if a.TypeInfo.HasVariableInfo && a.Name != "" {
		if a.Unit != "" {
			return fmt.Sprintf("%s=%s %s", a.Name, a.Value.String(), a.Unit)
		}
		return fmt.Sprintf("%s=%s", a.Name, a.Value.String())
	}
	return a.Value.String()
}

// ScaledFloat applies quantisation and offset of a fixed-point argument
// to its integer value
func (a *Argument) ScaledFloat() (float64, bool) {
	if a.FixedPoint == nil {
		return 0, false
	}
	var base float64
	switch v := a.Value.(type) {
	case I32Value:
		base = float64(v.Val)
	case I64Value:
		base = float64(v.Val)
	case U32Value:
		base = float64(v.Val)
	case U64Value:
		base = float64(v.Val)
	default:
		return 0, false
	}
	if math.IsNaN(float64(a.FixedPoint.Quantization)) {
		return 0, false
	}
	return base*float64(a.FixedPoint.Quantization) + float64(a.FixedPoint.Offset), true
}
