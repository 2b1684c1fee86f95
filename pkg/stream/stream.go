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

// Package stream is an asynchronous adapter around the synchronous
// decoder. Messages are delivered on a channel until the source is
// exhausted or the context is cancelled.
package stream

import (
	"context"
	"io"

	"jinr.ru/greenlab/go-dlt/pkg/filtering"
	"jinr.ru/greenlab/go-dlt/pkg/parse"
	"jinr.ru/greenlab/go-dlt/pkg/read"
)

// Result carries one decoded message or the error that ended the stream
type Result struct {
	Message *parse.ParsedMessage
	Err     error
}

// Messages starts a goroutine reading messages from the source and
// returns the channel it delivers on. The channel is closed when the
// source is exhausted, an error occurs or the context is cancelled.
func Messages(ctx context.Context, source io.Reader, filter *filtering.ProcessedFilterConfig, withStorageHeader bool) <-chan Result {
	return MessagesWithResolver(ctx, source, nil, filter, withStorageHeader)
}

// MessagesWithResolver streams like Messages and resolves non-verbose
// payloads through the given resolver.
func MessagesWithResolver(ctx context.Context, source io.Reader, resolver parse.Resolver, filter *filtering.ProcessedFilterConfig, withStorageHeader bool) <-chan Result {
	ch := make(chan Result)
	reader := read.NewMessageReader(source, withStorageHeader)
	go func() {
		defer close(ch)
		for {
			message, err := read.ReadMessageWithResolver(reader, resolver, filter)
			if err != nil {
				select {
				case ch <- Result{Err: err}:
				case <-ctx.Done():
				}
				return
			}
			if message == nil {
				return
			}
			select {
			case ch <- Result{Message: message}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
