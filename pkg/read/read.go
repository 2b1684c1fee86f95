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

// Package read provides buffered reading of DLT message slices from a
// byte source.
package read

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
	"jinr.ru/greenlab/go-dlt/pkg/filtering"
	"jinr.ru/greenlab/go-dlt/pkg/parse"
)

const (
	// DefaultBufferCapacity of the internal buffered reader
	DefaultBufferCapacity = 10 * 1024 * 1024
	// DefaultMessageMaxLen is the largest message the wire format allows:
	// the LEN field is a u16, plus the storage header
	DefaultMessageMaxLen = dlt.StorageHeaderLength + math.MaxUint16
)

// MessageReader reads exact message slices from a source. It assumes an
// intact stream; resynchronization on corrupt input is the business of
// the slice based decoder.
type MessageReader struct {
	source            *bufio.Reader
	withStorageHeader bool
	buffer            []byte
}

// NewMessageReader creates a reader for the given source
func NewMessageReader(source io.Reader, withStorageHeader bool) *MessageReader {
	return NewMessageReaderWithCapacity(DefaultBufferCapacity, DefaultMessageMaxLen, source, withStorageHeader)
}

// NewMessageReaderWithCapacity creates a reader with specific capacities
func NewMessageReaderWithCapacity(bufferCapacity, messageMaxLen int, source io.Reader, withStorageHeader bool) *MessageReader {
	return &MessageReader{
		source:            bufio.NewReaderSize(source, bufferCapacity),
		withStorageHeader: withStorageHeader,
		buffer:            make([]byte, messageMaxLen),
	}
}

// WithStorageHeader answers if message slices contain a storage header
func (r *MessageReader) WithStorageHeader() bool {
	return r.withStorageHeader
}

// NextMessageSlice reads the next message slice from the source, or an
// empty slice if no more message could be read. The slice is only valid
// until the next call.
func (r *MessageReader) NextMessageSlice() ([]byte, error) {
	storageLen := 0
	if r.withStorageHeader {
		storageLen = dlt.StorageHeaderLength
	}
	headerLen := storageLen + dlt.HeaderMinLength

	if _, err := io.ReadFull(r.source, r.buffer[:headerLen]); err != nil {
		return nil, nil
	}

	messageLen := int(binary.BigEndian.Uint16(r.buffer[storageLen+2 : storageLen+4]))
	totalLen := storageLen + messageLen
	if totalLen < headerLen {
		// a broken length field, hand the headers to the decoder so it
		// can report the hickup
		return r.buffer[:headerLen], nil
	}

	if _, err := io.ReadFull(r.source, r.buffer[headerLen:totalLen]); err != nil {
		return nil, parse.ErrIncomplete{Needed: totalLen - headerLen}
	}
	return r.buffer[:totalLen], nil
}

// ReadMessage reads and decodes the next message from the reader, if
// any. It returns nil when the source is exhausted.
func ReadMessage(r *MessageReader, filter *filtering.ProcessedFilterConfig) (*parse.ParsedMessage, error) {
	return ReadMessageWithResolver(r, nil, filter)
}

// ReadMessageWithResolver reads like ReadMessage and resolves non-verbose
// payloads through the given resolver.
func ReadMessageWithResolver(r *MessageReader, resolver parse.Resolver, filter *filtering.ProcessedFilterConfig) (*parse.ParsedMessage, error) {
	slice, err := r.NextMessageSlice()
	if err != nil {
		return nil, err
	}
	if len(slice) == 0 {
		return nil, nil
	}
	_, message, err := parse.MessageWithResolver(slice, resolver, filter, r.withStorageHeader)
	if err != nil {
		return nil, err
	}
	return &message, nil
}
