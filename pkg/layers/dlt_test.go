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

package layers

import (
	"testing"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// one wire-format verbose bool message, no storage header
var wireBoolMessage = []byte{
	0x21, 0x0A, 0x00, 0x13,
	0x41, 0x01,
	0x4C, 0x4F, 0x47, 0x00,
	0x54, 0x45, 0x53, 0x32,
	0x10, 0x00, 0x00, 0x00,
	0x6F,
}

func TestDecodeFromBytes(t *testing.T) {
	datagram := append(append([]byte{}, wireBoolMessage...), wireBoolMessage...)

	layer := &DLTLayer{}
	err := layer.DecodeFromBytes(datagram, gopacket.NilDecodeFeedback)
	require.NoError(t, err)
	require.Len(t, layer.Messages, 2)
	for _, message := range layer.Messages {
		assert.Equal(t, "LOG", message.Extended.ApplicationID)
		assert.Equal(t, wireBoolMessage, message.AsBytes())
	}
}

func TestSerializeTo(t *testing.T) {
	layer := &DLTLayer{}
	require.NoError(t, layer.DecodeFromBytes(wireBoolMessage, gopacket.NilDecodeFeedback))

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, layer.SerializeTo(buf, gopacket.SerializeOptions{}))
	assert.Equal(t, wireBoolMessage, buf.Bytes())
}

func TestDecodeTruncatedDatagram(t *testing.T) {
	layer := &DLTLayer{}
	err := layer.DecodeFromBytes(wireBoolMessage[:10], gopacket.NilDecodeFeedback)
	require.Error(t, err)
}

func TestPacketDecoding(t *testing.T) {
	packet := gopacket.NewPacket(wireBoolMessage, DLTLayerType, gopacket.Default)
	layer := packet.Layer(DLTLayerType)
	require.NotNil(t, layer)
	dltLayer, ok := layer.(*DLTLayer)
	require.True(t, ok)
	require.Len(t, dltLayer.Messages, 1)
}
