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

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"error", "warning", "info", "debug", "trace"} {
		level, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, name, levelNames[level])
	}
	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "debug")
	defer Init(&buf, "info")

	Trace("decision point %d", 1)
	assert.False(t, TraceEnabled())
	assert.Empty(t, buf.String())

	Debug("visible %s", "message")
	Warning("also visible")
	output := buf.String()
	assert.Contains(t, output, "[go-dlt] [debug] visible message")
	assert.Contains(t, output, "[go-dlt] [warning] also visible")
	assert.Equal(t, 2, strings.Count(output, "\n"))

	require.NoError(t, SetLevel("trace"))
	assert.True(t, TraceEnabled())
	Trace("now visible")
	assert.Contains(t, buf.String(), "[go-dlt] [trace] now visible")
}
