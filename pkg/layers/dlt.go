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

// Package layers contains the gopacket layer for wire-format DLT. One
// transport datagram carries one or more messages without storage
// headers.
package layers

import (
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
	"jinr.ru/greenlab/go-dlt/pkg/log"
	"jinr.ru/greenlab/go-dlt/pkg/parse"
)

const (
	// DLTLayerNum identifies the layer
	DLTLayerNum = 1999
)

// DLTLayer holds the messages decoded from one datagram
type DLTLayer struct {
	layers.BaseLayer
	Messages []*dlt.Message
}

var DLTLayerType = gopacket.RegisterLayerType(DLTLayerNum,
	gopacket.LayerTypeMetadata{Name: "DLTLayerType", Decoder: gopacket.DecodeFunc(DecodeDLTLayer)})

// LayerType returns the type of the DLT layer in the layer catalog
func (l *DLTLayer) LayerType() gopacket.LayerType {
	return DLTLayerType
}

// DecodeFromBytes decodes all messages of a datagram
func (l *DLTLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	log.Debug("DecodeFromBytes: decoding DLT layer, data length: %d", len(data))
	if len(data) < dlt.HeaderMinLength {
		df.SetTruncated()
		return errors.New("DLT datagram too short")
	}

	l.BaseLayer = layers.BaseLayer{
		Contents: []byte{},
		Payload:  data,
	}

	offset := 0
	for offset < len(data) {
		consumed, outcome, err := parse.Message(data[offset:], nil, false)
		if err != nil {
			if parse.IsIncomplete(err) {
				df.SetTruncated()
			}
			return err
		}
		if outcome.Outcome == parse.OutcomeItem {
			l.Messages = append(l.Messages, outcome.Item)
		}
		offset += consumed
	}
	return nil
}

// SerializeTo serializes the DLT layer into bytes and writes the bytes
// to the SerializeBuffer
func (l *DLTLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	for _, message := range l.Messages {
		encoded := message.AsBytes()
		buf, err := b.AppendBytes(len(encoded))
		if err != nil {
			return err
		}
		copy(buf, encoded)
	}
	return nil
}

// DecodeDLTLayer ...
func DecodeDLTLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &DLTLayer{}
	err := l.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(l)
	return nil
}
