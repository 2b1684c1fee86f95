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

package stream

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-dlt/pkg/parse"
)

var storedBoolMessage = []byte{
	0x44, 0x4C, 0x54, 0x01,
	0x2B, 0x2C, 0xC9, 0x4D,
	0x7A, 0xE8, 0x01, 0x00,
	0x45, 0x43, 0x55, 0x00,
	0x21, 0x0A, 0x00, 0x13,
	0x41, 0x01,
	0x4C, 0x4F, 0x47, 0x00,
	0x54, 0x45, 0x53, 0x32,
	0x10, 0x00, 0x00, 0x00,
	0x6F,
}

func TestMessages(t *testing.T) {
	var input []byte
	for i := 0; i < 3; i++ {
		input = append(input, storedBoolMessage...)
	}
	ch := Messages(context.Background(), bytes.NewReader(input), nil, true)
	received := 0
	for result := range ch {
		require.NoError(t, result.Err)
		require.NotNil(t, result.Message)
		require.Equal(t, parse.OutcomeItem, result.Message.Outcome)
		require.Equal(t, storedBoolMessage, result.Message.Item.AsBytes())
		received++
	}
	assert.Equal(t, 3, received)
}

func TestMessagesCancellation(t *testing.T) {
	var input []byte
	for i := 0; i < 100; i++ {
		input = append(input, storedBoolMessage...)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := Messages(ctx, bytes.NewReader(input), nil, true)

	result := <-ch
	require.NoError(t, result.Err)
	cancel()

	// the channel closes once the goroutine observes the cancellation
	for range ch {
	}
}
