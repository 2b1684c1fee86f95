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

// Package parse implements the resumable DLT record decoder. The decoder
// is state-free between records: every call consumes one message from the
// given byte slice and reports how many bytes it used.
package parse

import (
	"encoding/binary"
	"fmt"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
	"jinr.ru/greenlab/go-dlt/pkg/filtering"
	"jinr.ru/greenlab/go-dlt/pkg/log"
)

// Outcome discriminates the result of a successful decode
type Outcome uint8

const (
	// OutcomeItem means a message was decoded
	OutcomeItem Outcome = iota
	// OutcomeFilteredOut means the message was skipped due to filter conditions
	OutcomeFilteredOut
	// OutcomeInvalid means the message was structurally broken but the
	// decoder could step over its headers
	OutcomeInvalid
)

// ParsedMessage is the outcome of one decode call
type ParsedMessage struct {
	Outcome Outcome
	// Item is set for OutcomeItem
	Item *dlt.Message
	// Skipped is the number of payload bytes stepped over for OutcomeFilteredOut
	Skipped int
}

// Resolver maps a non-verbose message id to verbose-equivalent arguments.
// The extended header may be nil when the message carries none.
type Resolver interface {
	Resolve(extended *dlt.ExtendedHeader, messageID uint32, data []byte, bo binary.ByteOrder) ([]dlt.Argument, bool)
}

// DecodeStorageHeader scans the input for the next storage pattern and
// decodes the 16 byte storage header. The returned count includes the
// bytes dropped to reach the pattern.
func DecodeStorageHeader(input []byte) (int, *dlt.StorageHeader, error) {
	if len(input) < dlt.StorageHeaderLength {
		return 0, nil, ErrIncomplete{Needed: dlt.StorageHeaderLength - len(input)}
	}
	skipped, found := ForwardToNextStoragePattern(input)
	if !found {
		log.Warning("did not find another storage header in input")
		return 0, nil, ErrIncomplete{}
	}
	if skipped > 0 {
		log.Trace("dropped %d bytes to get to next message", skipped)
	}
	d := &decoder{buf: input, pos: skipped + len(dlt.StoragePattern)}
	seconds, err := d.u32(binary.LittleEndian)
	if err != nil {
		return 0, nil, err
	}
	microseconds, err := d.u32(binary.LittleEndian)
	if err != nil {
		return 0, nil, err
	}
	ecuID, err := d.fixedID()
	if err != nil {
		return 0, nil, err
	}
	return d.pos, &dlt.StorageHeader{
		Timestamp: dlt.DltTimeStamp{Seconds: seconds, Microseconds: microseconds},
		EcuID:     ecuID,
	}, nil
}

// DecodeStandardHeader decodes the standard header. The optional fields
// are always big endian, irrespective of the payload endianness flag.
func DecodeStandardHeader(input []byte) (int, dlt.StandardHeader, error) {
	var header dlt.StandardHeader
	d := &decoder{buf: input}
	headerType, err := d.u8()
	if err != nil {
		return 0, header, err
	}
	counter, err := d.u8()
	if err != nil {
		return 0, header, err
	}
	overallLength, err := d.u16(binary.BigEndian)
	if err != nil {
		return 0, header, err
	}
	if headerType&dlt.WithEcuIDFlag != 0 {
		ecuID, err := d.fixedID()
		if err != nil {
			return 0, header, err
		}
		header.EcuID = &ecuID
	}
	if headerType&dlt.WithSessionIDFlag != 0 {
		sessionID, err := d.u32(binary.BigEndian)
		if err != nil {
			return 0, header, err
		}
		header.SessionID = &sessionID
	}
	if headerType&dlt.WithTimestampFlag != 0 {
		timestamp, err := d.u32(binary.BigEndian)
		if err != nil {
			return 0, header, err
		}
		header.Timestamp = &timestamp
	}

	allHeadersLength := dlt.CalculateAllHeadersLength(headerType)
	if allHeadersLength > overallLength {
		return 0, header, ErrHickup{Reason: "header indicates wrong message length"}
	}

	header.Version = headerType >> 5 & 0b111
	if headerType&dlt.BigEndianFlag != 0 {
		header.Endianness = dlt.BigEndian
	} else {
		header.Endianness = dlt.LittleEndian
	}
	header.MessageCounter = counter
	header.HasExtendedHeader = headerType&dlt.WithExtendedHeaderFlag != 0
	header.PayloadLength = overallLength - allHeadersLength
	return d.pos, header, nil
}

// DecodeExtendedHeader decodes the extended header. A reserved message
// type combined with a verbose payload is rejected; non-verbose messages
// keep the raw bits.
func DecodeExtendedHeader(input []byte) (int, dlt.ExtendedHeader, error) {
	var header dlt.ExtendedHeader
	d := &decoder{buf: input}
	messageInfo, err := d.u8()
	if err != nil {
		return 0, header, err
	}
	argumentCount, err := d.u8()
	if err != nil {
		return 0, header, err
	}
	appID, err := d.fixedID()
	if err != nil {
		return 0, header, err
	}
	contextID, err := d.fixedID()
	if err != nil {
		return 0, header, err
	}
	header = dlt.ExtendedHeader{
		MessageInfo:   messageInfo,
		ArgumentCount: argumentCount,
		ApplicationID: appID,
		ContextID:     contextID,
	}
	if !header.KnownMessageType() {
		if header.Verbose() {
			return 0, header, ErrHickup{Reason: fmt.Sprintf("invalid message type in MSIN 0x%02X", messageInfo)}
		}
		log.Warning("unknown message type in MSIN 0x%02X", messageInfo)
	}
	if header.MessageType() == dlt.TypeLog && !dlt.KnownLogLevel(header.MessageTypeInfo()) {
		log.Warning("unknown log level %d", header.MessageTypeInfo())
	}
	return d.pos, header, nil
}

// DecodeTypeInfo reads and validates a type-info word in payload byte order
func DecodeTypeInfo(input []byte, bo binary.ByteOrder) (int, dlt.TypeInfo, error) {
	d := &decoder{buf: input}
	word, err := d.u32(bo)
	if err != nil {
		return 0, dlt.TypeInfo{}, err
	}
	info, err := dlt.TypeInfoFromWord(word)
	if err != nil {
		return 0, info, ErrHickup{Reason: err.Error()}
	}
	if log.TraceEnabled() {
		log.Trace("type info parsed: 0x%08X => %s", word, info.Kind)
	}
	return d.pos, info, nil
}

func (d *decoder) variableName(bo binary.ByteOrder) (string, error) {
	size, err := d.u16(bo)
	if err != nil {
		return "", err
	}
	return d.zeroTerminated(int(size))
}

func (d *decoder) variableNameAndUnit(bo binary.ByteOrder) (string, string, error) {
	nameSize, err := d.u16(bo)
	if err != nil {
		return "", "", err
	}
	unitSize, err := d.u16(bo)
	if err != nil {
		return "", "", err
	}
	name, err := d.zeroTerminated(int(nameSize))
	if err != nil {
		return "", "", err
	}
	unit, err := d.zeroTerminated(int(unitSize))
	if err != nil {
		return "", "", err
	}
	return name, unit, nil
}

func (d *decoder) fixedPoint(bo binary.ByteOrder, width dlt.FloatWidth) (*dlt.FixedPoint, error) {
	quantization, err := d.f32(bo)
	if err != nil {
		return nil, err
	}
	fp := &dlt.FixedPoint{Quantization: quantization, Width: width}
	if width == dlt.FloatWidth64 {
		v, err := d.u64(bo)
		if err != nil {
			return nil, err
		}
		fp.Offset = int64(v)
	} else {
		v, err := d.u32(bo)
		if err != nil {
			return nil, err
		}
		fp.Offset = int64(int32(v))
	}
	return fp, nil
}

func (d *decoder) signedValue(bo binary.ByteOrder, length dlt.TypeLength) (dlt.Value, error) {
	switch length {
	case dlt.TypeLength8Bit:
		v, err := d.u8()
		if err != nil {
			return nil, err
		}
		return dlt.I8Value{Val: int8(v)}, nil
	case dlt.TypeLength16Bit:
		v, err := d.u16(bo)
		if err != nil {
			return nil, err
		}
		return dlt.I16Value{Val: int16(v)}, nil
	case dlt.TypeLength32Bit:
		v, err := d.u32(bo)
		if err != nil {
			return nil, err
		}
		return dlt.I32Value{Val: int32(v)}, nil
	case dlt.TypeLength64Bit:
		v, err := d.u64(bo)
		if err != nil {
			return nil, err
		}
		return dlt.I64Value{Val: int64(v)}, nil
	default:
		view, err := d.take(16)
		if err != nil {
			return nil, err
		}
		value := dlt.I128Value{}
		copy(value.Raw[:], view)
		return value, nil
	}
}

func (d *decoder) unsignedValue(bo binary.ByteOrder, length dlt.TypeLength) (dlt.Value, error) {
	switch length {
	case dlt.TypeLength8Bit:
		v, err := d.u8()
		if err != nil {
			return nil, err
		}
		return dlt.U8Value{Val: v}, nil
	case dlt.TypeLength16Bit:
		v, err := d.u16(bo)
		if err != nil {
			return nil, err
		}
		return dlt.U16Value{Val: v}, nil
	case dlt.TypeLength32Bit:
		v, err := d.u32(bo)
		if err != nil {
			return nil, err
		}
		return dlt.U32Value{Val: v}, nil
	case dlt.TypeLength64Bit:
		v, err := d.u64(bo)
		if err != nil {
			return nil, err
		}
		return dlt.U64Value{Val: v}, nil
	default:
		view, err := d.take(16)
		if err != nil {
			return nil, err
		}
		value := dlt.U128Value{}
		copy(value.Raw[:], view)
		return value, nil
	}
}

func (d *decoder) floatValue(bo binary.ByteOrder, width dlt.FloatWidth) (dlt.Value, error) {
	switch width {
	case dlt.FloatWidth32:
		v, err := d.f32(bo)
		if err != nil {
			return nil, err
		}
		return dlt.F32Value{Val: v}, nil
	case dlt.FloatWidth64:
		v, err := d.f64(bo)
		if err != nil {
			return nil, err
		}
		return dlt.F64Value{Val: v}, nil
	case dlt.FloatWidth16:
		view, err := d.take(2)
		if err != nil {
			return nil, err
		}
		value := dlt.F16Value{}
		copy(value.Raw[:], view)
		return value, nil
	default:
		view, err := d.take(16)
		if err != nil {
			return nil, err
		}
		value := dlt.F128Value{}
		copy(value.Raw[:], view)
		return value, nil
	}
}

// DecodeArgument decodes one verbose argument in payload byte order
func DecodeArgument(input []byte, bo binary.ByteOrder) (int, dlt.Argument, error) {
	var argument dlt.Argument
	n, info, err := DecodeTypeInfo(input, bo)
	if err != nil {
		return 0, argument, err
	}
	argument.TypeInfo = info
	d := &decoder{buf: input, pos: n}

	switch info.Kind {
	case dlt.KindBool:
		if info.HasVariableInfo {
			if argument.Name, err = d.variableName(bo); err != nil {
				return 0, argument, err
			}
		}
		raw, err := d.u8()
		if err != nil {
			return 0, argument, err
		}
		argument.Value = dlt.BoolValue{Raw: raw}
	case dlt.KindString, dlt.KindRaw:
		size, err := d.u16(bo)
		if err != nil {
			return 0, argument, err
		}
		if info.HasVariableInfo {
			if argument.Name, err = d.variableName(bo); err != nil {
				return 0, argument, err
			}
		}
		data, err := d.take(int(size))
		if err != nil {
			return 0, argument, err
		}
		if info.Kind == dlt.KindString {
			argument.Value = dlt.StringValue{Data: data}
		} else {
			argument.Value = dlt.RawValue{Data: data}
		}
	case dlt.KindStruct:
		count, err := d.u16(bo)
		if err != nil {
			return 0, argument, err
		}
		if info.HasVariableInfo {
			if argument.Name, err = d.variableName(bo); err != nil {
				return 0, argument, err
			}
		}
		fields := make([]dlt.Argument, 0, count)
		for i := 0; i < int(count); i++ {
			n, field, err := DecodeArgument(input[d.pos:], bo)
			if err != nil {
				return 0, argument, err
			}
			d.pos += n
			fields = append(fields, field)
		}
		argument.Value = dlt.StructValue{Fields: fields}
	default:
		if info.HasVariableInfo {
			if argument.Name, argument.Unit, err = d.variableNameAndUnit(bo); err != nil {
				return 0, argument, err
			}
		}
		switch info.Kind {
		case dlt.KindSignedFixedPoint, dlt.KindUnsignedFixedPoint:
			if argument.FixedPoint, err = d.fixedPoint(bo, info.FloatWidth); err != nil {
				return 0, argument, err
			}
		}
		var value dlt.Value
		switch info.Kind {
		case dlt.KindSigned, dlt.KindSignedFixedPoint:
			value, err = d.signedValue(bo, info.TypeLength)
		case dlt.KindUnsigned, dlt.KindUnsignedFixedPoint:
			value, err = d.unsignedValue(bo, info.TypeLength)
		default:
			value, err = d.floatValue(bo, info.FloatWidth)
		}
		if err != nil {
			return 0, argument, err
		}
		argument.Value = value
	}
	return d.pos, argument, nil
}

// ValidatedPayloadLength checks the LEN field against the header sizes
// and the remaining input. A message longer than the remaining bytes is
// Incomplete with a byte hint; the u16 LEN field caps any message at
// 65535 bytes plus the storage header.
func ValidatedPayloadLength(header *dlt.StandardHeader, remaining int) (uint16, error) {
	messageLength := header.OverallLength()
	headersLength := dlt.CalculateAllHeadersLength(header.HeaderTypeByte())
	if messageLength < headersLength {
		return 0, ErrHickup{Reason: "parsed message length is less than the length of all headers"}
	}
	if int(messageLength) > remaining {
		return 0, ErrIncomplete{Needed: int(messageLength) - remaining}
	}
	return messageLength - headersLength, nil
}

func decodePayload(input []byte, bo binary.ByteOrder, verbose bool, isControl bool, argumentCount uint8, payloadLength uint16) (dlt.Payload, error) {
	if verbose {
		d := &decoder{buf: input[:payloadLength]}
		arguments := make([]dlt.Argument, 0, argumentCount)
		for i := 0; i < int(argumentCount); i++ {
			n, argument, err := DecodeArgument(d.buf[d.pos:], bo)
			if err != nil {
				if IsIncomplete(err) {
					// the full message is in the buffer, running past the
					// payload means the arguments are broken
					err = ErrHickup{Reason: "arguments exceed the declared payload length"}
				}
				return dlt.Payload{}, ErrHickup{Reason: fmt.Sprintf("problem parsing %d arguments: %v", argumentCount, err)}
			}
			d.pos += n
			arguments = append(arguments, argument)
		}
		if d.pos != int(payloadLength) {
			return dlt.Payload{}, ErrHickup{Reason: fmt.Sprintf("arguments consumed %d of %d payload bytes", d.pos, payloadLength)}
		}
		return dlt.Payload{Kind: dlt.PayloadVerbose, Arguments: arguments}, nil
	}
	if isControl {
		if payloadLength < 1 {
			return dlt.Payload{}, ErrUnrecoverable{Cause: fmt.Sprintf("control payload too short %d", payloadLength)}
		}
		return dlt.Payload{
			Kind:      dlt.PayloadControl,
			ServiceID: input[0],
			Data:      input[1:payloadLength],
		}, nil
	}
	if payloadLength < 4 {
		return dlt.Payload{}, ErrUnrecoverable{Cause: fmt.Sprintf("non-verbose payload too short %d", payloadLength)}
	}
	return dlt.Payload{
		Kind:      dlt.PayloadNonVerbose,
		MessageID: bo.Uint32(input[:4]),
		Data:      input[4:payloadLength],
	}, nil
}

// Message decodes the next DLT message from the input. It returns the
// number of bytes consumed together with the outcome; on error nothing
// was consumed and the error taxonomy tells the caller how to proceed
// (refill on ErrIncomplete, skip ResyncQuantum bytes on ErrHickup,
// abort on ErrUnrecoverable).
func Message(input []byte, filter *filtering.ProcessedFilterConfig, withStorageHeader bool) (int, ParsedMessage, error) {
	return MessageWithResolver(input, nil, filter, withStorageHeader)
}

// MessageWithResolver decodes like Message and additionally resolves
// non-verbose payloads through the given resolver. A resolution miss is
// not an error, the raw bytes pass through.
func MessageWithResolver(input []byte, resolver Resolver, filter *filtering.ProcessedFilterConfig, withStorageHeader bool) (int, ParsedMessage, error) {
	offset := 0
	var storage *dlt.StorageHeader
	if withStorageHeader {
		n, hdr, err := DecodeStorageHeader(input)
		if err != nil {
			return 0, ParsedMessage{}, err
		}
		storage = hdr
		offset = n
	}
	afterStorage := input[offset:]

	n, header, err := DecodeStandardHeader(afterStorage)
	if err != nil {
		return 0, ParsedMessage{}, err
	}
	offsetAfterStandard := offset + n
	log.Trace("standard header: counter=%d endianness=%s payload=%d", header.MessageCounter, header.Endianness, header.PayloadLength)

	payloadLength, lengthErr := ValidatedPayloadLength(&header, len(afterStorage))

	var extended *dlt.ExtendedHeader
	offset = offsetAfterStandard
	if header.HasExtendedHeader {
		n, ext, err := DecodeExtendedHeader(input[offset:])
		if err != nil {
			return 0, ParsedMessage{}, err
		}
		extended = &ext
		offset += n
		log.Trace("extended header: app=%s ctx=%s args=%d verbose=%t", ext.ApplicationID, ext.ContextID, ext.ArgumentCount, ext.Verbose())
	}

	if lengthErr != nil {
		if IsIncomplete(lengthErr) {
			return 0, ParsedMessage{}, lengthErr
		}
		log.Warning("no validated payload length: %v", lengthErr)
		return offsetAfterStandard, ParsedMessage{Outcome: OutcomeInvalid}, nil
	}

	if filter != nil && filter.FilteredOut(extended, header.EcuID) {
		return offset + int(payloadLength), ParsedMessage{
			Outcome: OutcomeFilteredOut,
			Skipped: int(payloadLength),
		}, nil
	}

	isControl := extended != nil && extended.MessageType() == dlt.TypeControl
	var argumentCount uint8
	if extended != nil {
		argumentCount = extended.ArgumentCount
	}
	// a verbose marker with zero arguments but payload bytes left is
	// handled like a non-verbose message
	verbose := extended != nil && extended.Verbose() &&
		(argumentCount > 0 || payloadLength == 0)
	payload, err := decodePayload(input[offset:], header.Endianness.ByteOrder(), verbose, isControl, argumentCount, payloadLength)
	if err != nil {
		return 0, ParsedMessage{}, err
	}
	if payload.Kind == dlt.PayloadNonVerbose && resolver != nil {
		if arguments, ok := resolver.Resolve(extended, payload.MessageID, payload.Data, header.Endianness.ByteOrder()); ok {
			payload.Resolved = arguments
		} else {
			log.Trace("no metadata for non-verbose message id %d", payload.MessageID)
		}
	}
	offset += int(payloadLength)

	return offset, ParsedMessage{
		Outcome: OutcomeItem,
		Item: &dlt.Message{
			Storage:  storage,
			Header:   header,
			Extended: extended,
			Payload:  payload,
		},
	}, nil
}
