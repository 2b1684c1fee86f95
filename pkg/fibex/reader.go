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

package fibex

import (
	"encoding/xml"
	"io"
	"sort"
	"strconv"
	"strings"

	"jinr.ru/greenlab/go-dlt/pkg/log"
)

// Element and attribute names of the FIBEX schema fragment used for DLT.
// Everything else is skipped.
const (
	elemPdu            = "PDU"
	elemFrame          = "FRAME"
	elemShortName      = "SHORT-NAME"
	elemByteLength     = "BYTE-LENGTH"
	elemDesc           = "DESC"
	elemSignalInstance = "SIGNAL-INSTANCE"
	elemSequenceNumber = "SEQUENCE-NUMBER"
	elemSignalRef      = "SIGNAL-REF"
	elemPduInstance    = "PDU-INSTANCE"
	elemPduRef         = "PDU-REF"
	elemManufacturer   = "MANUFACTURER-EXTENSION"
	elemApplicationID  = "APPLICATION_ID"
	elemContextID      = "CONTEXT_ID"
	elemMessageType    = "MESSAGE_TYPE"
	elemMessageInfo    = "MESSAGE_INFO"
	elemSignal         = "SIGNAL"
	elemCoding         = "CODING"
	elemCodingRef      = "CODING-REF"
	elemCodedType      = "CODED-TYPE"

	attrID           = "ID"
	attrIDRef        = "ID-REF"
	attrBaseDataType = "BASE-DATA-TYPE"
)

type sequenced struct {
	number int
	ref    string
}

// readFrom scans one FIBEX document with a streaming pull parser and
// collects PDUs, frames, signals and codings into the builder. A single
// malformed element is skipped with a warning and loading goes on; a
// document that is not well-formed XML fails to load.
func (b *builder) readFrom(r io.Reader) error {
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case elemPdu:
			id, ok := attr(start, attrID)
			if !ok {
				log.Warning("PDU without ID attribute, skipping")
				continue
			}
			data, err := b.readPdu(decoder)
			if err != nil {
				return err
			}
			b.pdus = append(b.pdus, pduEntry{id: id, data: data})
		case elemFrame:
			id, ok := attr(start, attrID)
			if !ok {
				log.Warning("FRAME without ID attribute, skipping")
				continue
			}
			data, err := b.readFrame(decoder)
			if err != nil {
				return err
			}
			b.frames = append(b.frames, frameEntry{id: id, data: data})
		case elemSignal:
			id, ok := attr(start, attrID)
			if !ok {
				log.Warning("SIGNAL without ID attribute, skipping")
				continue
			}
			codingRef, err := b.readSignal(decoder)
			if err != nil {
				return err
			}
			if codingRef != "" {
				log.Debug("found signal %s (coding-ref=%s)", id, codingRef)
				b.signals[id] = codingRef
			}
		case elemCoding:
			id, ok := attr(start, attrID)
			if !ok {
				log.Warning("CODING without ID attribute, skipping")
				continue
			}
			baseType, err := b.readCoding(decoder)
			if err != nil {
				return err
			}
			if baseType != "" {
				b.codings[id] = baseType
			}
		}
	}
}

// readPdu consumes a PDU element collecting description and ordered
// signal refs
func (b *builder) readPdu(decoder *xml.Decoder) (pduReadData, error) {
	data := pduReadData{}
	var signals []sequenced
	var instance sequenced
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return data, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case elemDesc:
				data.description, err = readText(decoder)
			case elemByteLength:
				var text string
				if text, err = readText(decoder); err == nil {
					length, convErr := strconv.Atoi(strings.TrimSpace(text))
					if convErr != nil {
						log.Warning("ignoring malformed PDU byte length %q", text)
					} else {
						data.byteLength = length
					}
				}
			case elemSignalInstance:
				instance = sequenced{}
				depth++
			case elemSequenceNumber:
				var text string
				if text, err = readText(decoder); err == nil {
					number, convErr := strconv.Atoi(strings.TrimSpace(text))
					if convErr != nil {
						log.Warning("ignoring malformed sequence number %q", text)
					} else {
						instance.number = number
					}
				}
			case elemSignalRef:
				if ref, ok := attr(t, attrIDRef); ok {
					instance.ref = ref
				}
				depth++
			default:
				depth++
			}
			if err != nil {
				return data, err
			}
		case xml.EndElement:
			if t.Name.Local == elemSignalInstance && instance.ref != "" {
				signals = append(signals, instance)
			}
			depth--
		}
	}
	sort.SliceStable(signals, func(i, j int) bool { return signals[i].number < signals[j].number })
	for _, s := range signals {
		data.signalRefs = append(data.signalRefs, s.ref)
	}
	return data, nil
}

// readFrame consumes a FRAME element collecting the short name, ordered
// pdu refs and the manufacturer extension ids
func (b *builder) readFrame(decoder *xml.Decoder) (frameReadData, error) {
	data := frameReadData{}
	var pdus []sequenced
	var instance sequenced
	inManufacturer := false
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return data, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case elemShortName:
				if data.shortName == "" {
					data.shortName, err = readText(decoder)
				} else {
					depth++
				}
			case elemPduInstance:
				instance = sequenced{}
				depth++
			case elemSequenceNumber:
				var text string
				if text, err = readText(decoder); err == nil {
					number, convErr := strconv.Atoi(strings.TrimSpace(text))
					if convErr != nil {
						log.Warning("ignoring malformed sequence number %q", text)
					} else {
						instance.number = number
					}
				}
			case elemPduRef:
				if ref, ok := attr(t, attrIDRef); ok {
					instance.ref = ref
				}
				depth++
			case elemManufacturer:
				inManufacturer = true
				depth++
			case elemApplicationID:
				if inManufacturer {
					data.applicationID, err = readText(decoder)
				} else {
					depth++
				}
			case elemContextID:
				if inManufacturer {
					data.contextID, err = readText(decoder)
				} else {
					depth++
				}
			case elemMessageType:
				if inManufacturer {
					data.messageType, err = readText(decoder)
				} else {
					depth++
				}
			case elemMessageInfo:
				if inManufacturer {
					data.messageInfo, err = readText(decoder)
				} else {
					depth++
				}
			default:
				depth++
			}
			if err != nil {
				return data, err
			}
		case xml.EndElement:
			switch t.Name.Local {
			case elemPduInstance:
				if instance.ref != "" {
					pdus = append(pdus, instance)
				}
			case elemManufacturer:
				inManufacturer = false
			}
			depth--
		}
	}
	sort.SliceStable(pdus, func(i, j int) bool { return pdus[i].number < pdus[j].number })
	for _, p := range pdus {
		data.pduRefs = append(data.pduRefs, p.ref)
	}
	return data, nil
}

// readSignal consumes a SIGNAL element and returns its coding ref
func (b *builder) readSignal(decoder *xml.Decoder) (string, error) {
	codingRef := ""
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return codingRef, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == elemCodingRef {
				if ref, ok := attr(t, attrIDRef); ok {
					codingRef = ref
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return codingRef, nil
}

// readCoding consumes a CODING element and returns the base data type of
// its coded type
func (b *builder) readCoding(decoder *xml.Decoder) (string, error) {
	baseType := ""
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return baseType, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == elemCodedType {
				if v, ok := attr(t, attrBaseDataType); ok {
					baseType = v
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return baseType, nil
}

// readText reads the character data of the current element up to its end
// tag
func readText(decoder *xml.Decoder) (string, error) {
	var text strings.Builder
	depth := 1
	for depth > 0 {
		token, err := decoder.Token()
		if err != nil {
			return "", err
		}
		switch t := token.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return strings.TrimSpace(text.String()), nil
}

// attr finds an attribute by local name, tolerating namespace prefixes
func attr(start xml.StartElement, name string) (string, bool) {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
