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

// Package dlt contains the data structures for AUTOSAR DLT messages and
// their bit-exact binary serialization.
package dlt

import (
	"encoding/binary"
)

const (
	// StorageHeaderLength is the fixed on-disk prefix per message
	StorageHeaderLength = 16
	// HeaderMinLength is the mandatory part of the standard header
	HeaderMinLength = 4
	// HeaderMaxLength is the standard header with all optional fields present
	HeaderMaxLength = 16
	// ExtendedHeaderLength ...
	ExtendedHeaderLength = 10
)

// Standard header HTYP flags
const (
	WithExtendedHeaderFlag uint8 = 1 << 0
	BigEndianFlag          uint8 = 1 << 1
	WithEcuIDFlag          uint8 = 1 << 2
	WithSessionIDFlag      uint8 = 1 << 3
	WithTimestampFlag      uint8 = 1 << 4
)

// Extended header MSIN layout
const (
	VerboseFlag          uint8 = 1 << 0
	MessageTypeMask      uint8 = 0x0e
	MessageTypeShift           = 1
	MessageTypeInfoMask  uint8 = 0xf0
	MessageTypeInfoShift       = 4
)

// StoragePattern marks the beginning of a storage header
var StoragePattern = []byte{0x44, 0x4C, 0x54, 0x01}

// Endianness of the payload as selected by the MSBF flag
type Endianness uint8

const (
	LittleEndian Endianness = iota
	BigEndian
)

func (e Endianness) ByteOrder() binary.ByteOrder {
	if e == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (e Endianness) String() string {
	if e == BigEndian {
		return "big"
	}
	return "little"
}

// MessageType is the MSTP field of the extended header
type MessageType uint8

const (
	TypeLog MessageType = iota
	TypeAppTrace
	TypeNetworkTrace
	TypeControl
)

func (t MessageType) String() string {
	switch t {
	case TypeLog:
		return "log"
	case TypeAppTrace:
		return "app_trace"
	case TypeNetworkTrace:
		return "nw_trace"
	case TypeControl:
		return "control"
	}
	return "reserved"
}

// LogLevel is the MTIN field for log messages
type LogLevel uint8

const (
	LevelFatal LogLevel = iota + 1
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
	LevelVerbose
)

// KnownLogLevel answers if the raw MTIN value is an official log level
func KnownLogLevel(level uint8) bool {
	return level >= uint8(LevelFatal) && level <= uint8(LevelVerbose)
}

func (l LogLevel) String() string {
	switch l {
	case LevelFatal:
		return "fatal"
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	case LevelVerbose:
		return "verbose"
	}
	return "invalid"
}

// Control MTIN values
const (
	ControlRequest  uint8 = 0x1
	ControlResponse uint8 = 0x2
	ControlTime     uint8 = 0x3
)

// DltTimeStamp is the reception time carried by the storage header
type DltTimeStamp struct {
	Seconds      uint32 `json:"seconds"`
	Microseconds uint32 `json:"microseconds"`
}

// StorageHeader is the 16 byte prefix used when messages are stored in files
type StorageHeader struct {
	Timestamp DltTimeStamp `json:"timestamp"`
	EcuID     string       `json:"ecu_id"`
}

// StandardHeader is part of every DLT message. The optional fields are
// present iff the corresponding flag bit is set; they are always encoded
// big endian, only the payload honours the MSBF flag.
type StandardHeader struct {
	Version           uint8      `json:"version"`
	Endianness        Endianness `json:"endianness"`
	MessageCounter    uint8      `json:"message_counter"`
	HasExtendedHeader bool       `json:"has_extended_header"`
	PayloadLength     uint16     `json:"payload_length"`
	EcuID             *string    `json:"ecu_id,omitempty"`
	SessionID         *uint32    `json:"session_id,omitempty"`
	Timestamp         *uint32    `json:"timestamp,omitempty"`
}

// HeaderTypeByte reassembles the HTYP bit-field from the header fields
func (h *StandardHeader) HeaderTypeByte() uint8 {
	htyp := h.Version << 5
	if h.HasExtendedHeader {
		htyp |= WithExtendedHeaderFlag
	}
	if h.Endianness == BigEndian {
		htyp |= BigEndianFlag
	}
	if h.EcuID != nil {
		htyp |= WithEcuIDFlag
	}
	if h.SessionID != nil {
		htyp |= WithSessionIDFlag
	}
	if h.Timestamp != nil {
		htyp |= WithTimestampFlag
	}
	return htyp
}

// StandardHeaderLength is the encoded size of this header
func (h *StandardHeader) StandardHeaderLength() uint16 {
	return CalculateStandardHeaderLength(h.HeaderTypeByte())
}

// OverallLength is the value of the LEN field: all headers plus payload,
// the storage header excluded
func (h *StandardHeader) OverallLength() uint16 {
	return CalculateAllHeadersLength(h.HeaderTypeByte()) + h.PayloadLength
}

// CalculateStandardHeaderLength returns the size of the standard header
// for the given HTYP byte
func CalculateStandardHeaderLength(headerType uint8) uint16 {
	length := uint16(HeaderMinLength)
	if headerType&WithEcuIDFlag != 0 {
		length += 4
	}
	if headerType&WithSessionIDFlag != 0 {
		length += 4
	}
	if headerType&WithTimestampFlag != 0 {
		length += 4
	}
	return length
}

// CalculateAllHeadersLength returns the size of standard plus extended
// header for the given HTYP byte
func CalculateAllHeadersLength(headerType uint8) uint16 {
	length := CalculateStandardHeaderLength(headerType)
	if headerType&WithExtendedHeaderFlag != 0 {
		length += ExtendedHeaderLength
	}
	return length
}

// ExtendedHeader is present iff the WithExtendedHeaderFlag is set. The
// MessageInfo byte is kept raw so that re-encoding reproduces reserved
// bit patterns verbatim.
type ExtendedHeader struct {
	MessageInfo   uint8  `json:"message_info"`
	ArgumentCount uint8  `json:"argument_count"`
	ApplicationID string `json:"application_id"`
	ContextID     string `json:"context_id"`
}

// Verbose answers if the payload is self-describing
func (h *ExtendedHeader) Verbose() bool {
	return h.MessageInfo&VerboseFlag != 0
}

// MessageType extracts the MSTP bits
func (h *ExtendedHeader) MessageType() MessageType {
	return MessageType((h.MessageInfo & MessageTypeMask) >> MessageTypeShift)
}

// KnownMessageType answers if MSTP is one of the official message types
func (h *ExtendedHeader) KnownMessageType() bool {
	return h.MessageType() <= TypeControl
}

// MessageTypeInfo extracts the raw MTIN bits whose meaning depends on MSTP
func (h *ExtendedHeader) MessageTypeInfo() uint8 {
	return (h.MessageInfo & MessageTypeInfoMask) >> MessageTypeInfoShift
}

// LogLevel is only meaningful for log messages
func (h *ExtendedHeader) LogLevel() LogLevel {
	return LogLevel(h.MessageTypeInfo())
}

// SkipWithLevel answers if a log message with this header is less severe
// than the given level. Non-log messages are never skipped.
func (h *ExtendedHeader) SkipWithLevel(min LogLevel) bool {
	if h.MessageType() != TypeLog {
		return false
	}
	return h.LogLevel() > min
}

// PayloadKind discriminates the payload variants of a message
type PayloadKind uint8

const (
	PayloadVerbose PayloadKind = iota
	PayloadNonVerbose
	PayloadControl
)

// Payload is the tagged content of a DLT message.
//
// Verbose payloads carry Arguments. Non-verbose payloads carry a message
// id plus opaque bytes; Resolved holds the verbose-equivalent arguments
// when an external signal description could interpret them (the wire
// bytes stay authoritative for re-encoding). Control payloads carry the
// service id and the raw service data.
type Payload struct {
	Kind      PayloadKind `json:"kind"`
	Arguments []Argument  `json:"arguments,omitempty"`
	MessageID uint32      `json:"message_id,omitempty"`
	ServiceID uint8       `json:"service_id,omitempty"`
	Data      []byte      `json:"data,omitempty"`
	Resolved  []Argument  `json:"resolved,omitempty"`
}

// Message is a complete DLT record
type Message struct {
	Storage  *StorageHeader  `json:"storage,omitempty"`
	Header   StandardHeader  `json:"header"`
	Extended *ExtendedHeader `json:"extended,omitempty"`
	Payload  Payload         `json:"payload"`
}

// ExtendedHeaderConfig describes the extended header of a message to be built
type ExtendedHeaderConfig struct {
	MessageInfo   uint8
	ApplicationID string
	ContextID     string
}

// MessageConfig describes a message to be built programmatically
type MessageConfig struct {
	Version    uint8
	Endianness Endianness
	Counter    uint8
	EcuID      *string
	SessionID  *uint32
	Timestamp  *uint32
	Payload    Payload
	Extended   *ExtendedHeaderConfig
}

// NewMessage assembles a message from the given configuration. The payload
// length and the argument count are computed from the payload.
func NewMessage(cfg MessageConfig, storage *StorageHeader) *Message {
	msg := &Message{
		Storage: storage,
		Header: StandardHeader{
			Version:           cfg.Version,
			Endianness:        cfg.Endianness,
			MessageCounter:    cfg.Counter,
			HasExtendedHeader: cfg.Extended != nil,
			EcuID:             cfg.EcuID,
			SessionID:         cfg.SessionID,
			Timestamp:         cfg.Timestamp,
		},
		Payload: cfg.Payload,
	}
	if cfg.Extended != nil {
		msg.Extended = &ExtendedHeader{
			MessageInfo:   cfg.Extended.MessageInfo,
			ArgumentCount: uint8(len(cfg.Payload.Arguments)),
			ApplicationID: cfg.Extended.ApplicationID,
			ContextID:     cfg.Extended.ContextID,
		}
	}
	msg.Header.PayloadLength = uint16(len(msg.payloadBytes()))
	return msg
}
