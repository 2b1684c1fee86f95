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

// Package fibex loads non-verbose message descriptions from FIBEX files
// (Field Bus Exchange Format) and resolves numeric message ids into
// verbose-equivalent argument lists.
package fibex

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
	"jinr.ru/greenlab/go-dlt/pkg/log"
	"jinr.ru/greenlab/go-dlt/pkg/parse"
)

// Config lists the FIBEX files that should be combined into one model
type Config struct {
	FibexFilePaths []string `json:"fibex_file_paths"`
}

// FrameKey identifies a frame by app id, context id and frame id
type FrameKey struct {
	ApplicationID string
	ContextID     string
	FrameID       string
}

// FrameMetadata describes one non-verbose message layout
type FrameMetadata struct {
	ShortName     string
	Pdus          []PduMetadata
	ApplicationID string
	ContextID     string
	MessageType   string
	MessageInfo   string
}

// PduMetadata describes one PDU of a frame. ByteLength is the declared
// extent of the PDU within the payload, 0 when the file does not state
// one.
type PduMetadata struct {
	Description string
	ByteLength  int
	SignalTypes []dlt.TypeInfo
}

// Metadata is the combined model of all loaded FIBEX files. It is
// immutable after construction and safe for concurrent readers.
type Metadata struct {
	framesByKey map[FrameKey]*FrameMetadata
	framesByID  map[string]*FrameMetadata
}

// Lookup finds the metadata for a message id using the app and context
// ids from the extended header
func (m *Metadata) Lookup(applicationID, contextID string, messageID uint32) *FrameMetadata {
	return m.framesByKey[FrameKey{
		ApplicationID: applicationID,
		ContextID:     contextID,
		FrameID:       frameIDText(messageID),
	}]
}

// LookupByID finds the metadata for a message id alone; used when no
// extended header is present
func (m *Metadata) LookupByID(messageID uint32) *FrameMetadata {
	return m.framesByID[frameIDText(messageID)]
}

// Frames returns all frames sorted by frame id, for inspection
func (m *Metadata) Frames() []*FrameMetadata {
	ids := make([]string, 0, len(m.framesByID))
	for id := range m.framesByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	frames := make([]*FrameMetadata, 0, len(ids))
	for _, id := range ids {
		frames = append(frames, m.framesByID[id])
	}
	return frames
}

func frameIDText(messageID uint32) string {
	return fmt.Sprintf("ID_%d", messageID)
}

// Resolve implements the parse.Resolver contract: it decodes a
// non-verbose payload into the arguments described by the frame's PDU
// signals. A miss or a mismatch between the description and the actual
// bytes leaves the message unresolved.
func (m *Metadata) Resolve(extended *dlt.ExtendedHeader, messageID uint32, data []byte, bo binary.ByteOrder) ([]dlt.Argument, bool) {
	var frame *FrameMetadata
	if extended != nil {
		frame = m.Lookup(extended.ApplicationID, extended.ContextID, messageID)
		if frame == nil {
			// frames without app and context ids act as wildcards
			if candidate := m.LookupByID(messageID); candidate != nil &&
				candidate.ApplicationID == "" && candidate.ContextID == "" {
				frame = candidate
			}
		}
	} else {
		frame = m.LookupByID(messageID)
	}
	if frame == nil {
		return nil, false
	}
	var arguments []dlt.Argument
	offset := 0
	for pduIndex, pdu := range frame.Pdus {
		pduStart := offset
		lastPdu := pduIndex == len(frame.Pdus)-1
		for signalIndex, info := range pdu.SignalTypes {
			switch info.Kind {
			case dlt.KindString, dlt.KindRaw:
				size, ok := variableSignalSize(&pdu, signalIndex, offset-pduStart, len(data)-offset, lastPdu)
				if !ok || offset+size > len(data) {
					log.Warning("frame %s: cannot size string/raw signal %d of pdu %d", frame.ShortName, signalIndex, pduIndex)
					return nil, false
				}
				slice := data[offset : offset+size]
				if info.Kind == dlt.KindString {
					arguments = append(arguments, dlt.Argument{TypeInfo: info, Value: dlt.StringValue{Data: slice}})
				} else {
					arguments = append(arguments, dlt.Argument{TypeInfo: info, Value: dlt.RawValue{Data: slice}})
				}
				offset += size
			default:
				n, value, err := parse.DecodeValue(data[offset:], bo, info)
				if err != nil {
					log.Warning("frame %s does not match payload: %v", frame.ShortName, err)
					return nil, false
				}
				arguments = append(arguments, dlt.Argument{TypeInfo: info, Value: value})
				offset += n
			}
		}
		// the declared byte length is the extent of the PDU in the payload
		if pdu.ByteLength > 0 {
			end := pduStart + pdu.ByteLength
			if offset > end || end > len(data) {
				log.Warning("frame %s: pdu %d exceeds its declared byte length", frame.ShortName, pduIndex)
				return nil, false
			}
			offset = end
		}
	}
	if offset < len(data) {
		// the description does not cover the whole payload, keep the rest
		arguments = append(arguments, dlt.Argument{
			TypeInfo: dlt.TypeInfo{Kind: dlt.KindRaw},
			Value:    dlt.RawValue{Data: data[offset:]},
		})
	}
	return arguments, true
}

// fixedSignalSize is the encoded size of a fixed-width signal
func fixedSignalSize(info dlt.TypeInfo) (int, bool) {
	switch info.Kind {
	case dlt.KindBool:
		return 1, true
	case dlt.KindSigned, dlt.KindUnsigned:
		return info.TypeLength.ByteSize(), true
	case dlt.KindFloat:
		return int(info.FloatWidth) / 8, true
	}
	return 0, false
}

// variableSignalSize derives the extent of a string or raw signal. The
// size is whatever the PDU's declared byte length leaves after the
// signal's fixed-width neighbours; a PDU without a byte length is only
// sizable when the signal extends to the end of the payload.
func variableSignalSize(pdu *PduMetadata, signalIndex, consumedInPdu, remaining int, lastPdu bool) (int, bool) {
	tail := 0
	for _, info := range pdu.SignalTypes[signalIndex+1:] {
		size, ok := fixedSignalSize(info)
		if !ok {
			// two variable-size signals in one PDU cannot be separated
			return 0, false
		}
		tail += size
	}
	if pdu.ByteLength > 0 {
		size := pdu.ByteLength - consumedInPdu - tail
		if size < 0 {
			return 0, false
		}
		return size, true
	}
	if !lastPdu {
		return 0, false
	}
	size := remaining - tail
	if size < 0 {
		return 0, false
	}
	return size, true
}

var _ parse.Resolver = (*Metadata)(nil)

// GatherFibexData reads all configured FIBEX files into one model.
// Returns nil when no paths are configured or reading fails.
func GatherFibexData(cfg Config) *Metadata {
	if len(cfg.FibexFilePaths) == 0 {
		return nil
	}
	metadata, err := ReadFibexFiles(cfg.FibexFilePaths)
	if err != nil {
		log.Warning("error reading fibex: %v", err)
		return nil
	}
	return metadata
}

// ReadFibexFiles combines several FIBEX files into one model. Duplicate
// frame keys warn and the last definition wins.
func ReadFibexFiles(paths []string) (*Metadata, error) {
	builder := newBuilder()
	for _, path := range paths {
		log.Debug("reading fibex from %s", path)
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		err = builder.readFrom(f)
		f.Close()
		if err != nil {
			return nil, err
		}
	}
	return builder.build(), nil
}

// ReadFibex reads one FIBEX document
func ReadFibex(r io.Reader) (*Metadata, error) {
	builder := newBuilder()
	if err := builder.readFrom(r); err != nil {
		return nil, err
	}
	return builder.build(), nil
}

type pduReadData struct {
	description string
	byteLength  int
	signalRefs  []string
}

type frameReadData struct {
	shortName     string
	applicationID string
	contextID     string
	messageType   string
	messageInfo   string
	pduRefs       []string
}

type pduEntry struct {
	id   string
	data pduReadData
}

type frameEntry struct {
	id   string
	data frameReadData
}

type builder struct {
	pdus    []pduEntry
	frames  []frameEntry
	signals map[string]string // signal id -> coding ref
	codings map[string]string // coding id -> base data type
}

func newBuilder() *builder {
	return &builder{
		signals: make(map[string]string),
		codings: make(map[string]string),
	}
}

func (b *builder) build() *Metadata {
	pduByID := make(map[string]*PduMetadata, len(b.pdus))
	for _, pdu := range b.pdus {
		if _, ok := pduByID[pdu.id]; ok {
			log.Warning("duplicate PDU ID %s found in fibexes", pdu.id)
			continue
		}
		metadata := &PduMetadata{
			Description: pdu.data.description,
			ByteLength:  pdu.data.byteLength,
		}
		for _, ref := range pdu.data.signalRefs {
			if info, ok := typeInfoForSignalRef(ref, b.signals, b.codings); ok {
				metadata.SignalTypes = append(metadata.SignalTypes, info)
			}
		}
		pduByID[pdu.id] = metadata
	}
	metadata := &Metadata{
		framesByKey: make(map[FrameKey]*FrameMetadata, len(b.frames)),
		framesByID:  make(map[string]*FrameMetadata, len(b.frames)),
	}
	for _, item := range b.frames {
		frame := &FrameMetadata{
			ShortName:     item.data.shortName,
			ApplicationID: item.data.applicationID,
			ContextID:     item.data.contextID,
			MessageType:   item.data.messageType,
			MessageInfo:   item.data.messageInfo,
		}
		broken := false
		for _, ref := range item.data.pduRefs {
			pdu := pduByID[ref]
			if pdu == nil {
				log.Warning("pdu %s not found for frame %s", ref, item.id)
				broken = true
				break
			}
			frame.Pdus = append(frame.Pdus, *pdu)
		}
		if broken {
			continue
		}
		if frame.ApplicationID != "" && frame.ContextID != "" {
			key := FrameKey{
				ApplicationID: frame.ApplicationID,
				ContextID:     frame.ContextID,
				FrameID:       item.id,
			}
			if _, ok := metadata.framesByKey[key]; ok {
				log.Warning("duplicate frame app=%s ctx=%s id=%s", key.ApplicationID, key.ContextID, key.FrameID)
			}
			metadata.framesByKey[key] = frame
		}
		if _, ok := metadata.framesByID[item.id]; ok {
			log.Warning("duplicate frame id=%s", item.id)
		}
		metadata.framesByID[item.id] = frame
	}
	return metadata
}

func typeInfoForSignalRef(ref string, signals, codings map[string]string) (dlt.TypeInfo, bool) {
	switch ref {
	case "S_BOOL":
		return dlt.TypeInfo{Kind: dlt.KindBool, TypeLength: dlt.TypeLength8Bit}, true
	case "S_SINT8":
		return dlt.TypeInfo{Kind: dlt.KindSigned, TypeLength: dlt.TypeLength8Bit}, true
	case "S_UINT8":
		return dlt.TypeInfo{Kind: dlt.KindUnsigned, TypeLength: dlt.TypeLength8Bit}, true
	case "S_SINT16":
		return dlt.TypeInfo{Kind: dlt.KindSigned, TypeLength: dlt.TypeLength16Bit}, true
	case "S_UINT16":
		return dlt.TypeInfo{Kind: dlt.KindUnsigned, TypeLength: dlt.TypeLength16Bit}, true
	case "S_SINT32":
		return dlt.TypeInfo{Kind: dlt.KindSigned, TypeLength: dlt.TypeLength32Bit}, true
	case "S_UINT32":
		return dlt.TypeInfo{Kind: dlt.KindUnsigned, TypeLength: dlt.TypeLength32Bit}, true
	case "S_SINT64":
		return dlt.TypeInfo{Kind: dlt.KindSigned, TypeLength: dlt.TypeLength64Bit}, true
	case "S_UINT64":
		return dlt.TypeInfo{Kind: dlt.KindUnsigned, TypeLength: dlt.TypeLength64Bit}, true
	case "S_FLOA16":
		log.Warning("16-bit float signals are not supported")
		return dlt.TypeInfo{}, false
	case "S_FLOA32":
		return dlt.TypeInfo{Kind: dlt.KindFloat, TypeLength: dlt.TypeLength32Bit, FloatWidth: dlt.FloatWidth32}, true
	case "S_FLOA64":
		return dlt.TypeInfo{Kind: dlt.KindFloat, TypeLength: dlt.TypeLength64Bit, FloatWidth: dlt.FloatWidth64}, true
	case "S_STRG_ASCII":
		return dlt.TypeInfo{Kind: dlt.KindString, Coding: dlt.CodingASCII}, true
	case "S_STRG_UTF8":
		return dlt.TypeInfo{Kind: dlt.KindString, Coding: dlt.CodingUTF8}, true
	case "S_RAWD", "S_RAW":
		return dlt.TypeInfo{Kind: dlt.KindRaw}, true
	}
	baseType, ok := codings[signals[ref]]
	if !ok {
		log.Warning("signal ref %s is not supported", ref)
		return dlt.TypeInfo{}, false
	}
	switch baseType {
	case "A_UINT8":
		return dlt.TypeInfo{Kind: dlt.KindUnsigned, TypeLength: dlt.TypeLength8Bit}, true
	case "A_INT8", "A_SINT8":
		return dlt.TypeInfo{Kind: dlt.KindSigned, TypeLength: dlt.TypeLength8Bit}, true
	case "A_UINT16":
		return dlt.TypeInfo{Kind: dlt.KindUnsigned, TypeLength: dlt.TypeLength16Bit}, true
	case "A_INT16", "A_SINT16":
		return dlt.TypeInfo{Kind: dlt.KindSigned, TypeLength: dlt.TypeLength16Bit}, true
	case "A_UINT32":
		return dlt.TypeInfo{Kind: dlt.KindUnsigned, TypeLength: dlt.TypeLength32Bit}, true
	case "A_INT32", "A_SINT32":
		return dlt.TypeInfo{Kind: dlt.KindSigned, TypeLength: dlt.TypeLength32Bit}, true
	case "A_UINT64":
		return dlt.TypeInfo{Kind: dlt.KindUnsigned, TypeLength: dlt.TypeLength64Bit}, true
	case "A_INT64", "A_SINT64":
		return dlt.TypeInfo{Kind: dlt.KindSigned, TypeLength: dlt.TypeLength64Bit}, true
	case "A_FLOAT32":
		return dlt.TypeInfo{Kind: dlt.KindFloat, TypeLength: dlt.TypeLength32Bit, FloatWidth: dlt.FloatWidth32}, true
	case "A_FLOAT64":
		return dlt.TypeInfo{Kind: dlt.KindFloat, TypeLength: dlt.TypeLength64Bit, FloatWidth: dlt.FloatWidth64}, true
	case "A_ASCIISTRING":
		return dlt.TypeInfo{Kind: dlt.KindString, Coding: dlt.CodingASCII}, true
	case "A_UNICODE2STRING":
		return dlt.TypeInfo{Kind: dlt.KindString, Coding: dlt.CodingUTF8}, true
	}
	log.Warning("signal %s found but base type %s is not known", ref, baseType)
	return dlt.TypeInfo{}, false
}
