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

package filtering

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
)

const filterConfigJSON = `{
	"app_ids": {"A1": 6, "A2": 5, "A3": 4},
	"ecu_ids": {"E1": 3},
	"context_ids": {"C1": 2, "C2": 1},
	"app_id_count": 3,
	"context_id_count": 2
}`

func TestLoadFilterConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filter.json")
	require.NoError(t, ioutil.WriteFile(path, []byte(filterConfigJSON), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), cfg.AppIDs["A1"])
	assert.Equal(t, uint8(3), cfg.EcuIDs["E1"])
	assert.Equal(t, int64(3), cfg.AppIDCount)
	assert.Equal(t, int64(2), cfg.ContextIDCount)

	processed := cfg.Process()
	assert.Equal(t, dlt.LevelVerbose, processed.AppIDs["A1"])
	assert.Equal(t, dlt.LevelDebug, processed.AppIDs["A2"])
	assert.Equal(t, dlt.LevelInfo, processed.AppIDs["A3"])
	assert.Equal(t, dlt.LevelWarn, processed.EcuIDs["E1"])
	assert.Equal(t, dlt.LevelError, processed.ContextIDs["C1"])
	assert.Equal(t, dlt.LevelFatal, processed.ContextIDs["C2"])
	assert.Nil(t, processed.MinLogLevel)
}

func TestFilteredOutByIDs(t *testing.T) {
	cfg := &FilterConfig{
		AppIDs:     map[string]uint8{"APP": 6},
		AppIDCount: 1,
	}
	processed := cfg.Process()

	match := &dlt.ExtendedHeader{MessageInfo: 0x41, ApplicationID: "APP", ContextID: "CTX"}
	assert.False(t, processed.FilteredOut(match, nil))

	other := &dlt.ExtendedHeader{MessageInfo: 0x41, ApplicationID: "FOO", ContextID: "CTX"}
	assert.True(t, processed.FilteredOut(other, nil))
}

func TestFilteredOutByLevel(t *testing.T) {
	cfg := &FilterConfig{MinLogLevel: uint8(dlt.LevelWarn)}
	processed := cfg.Process()
	require.NotNil(t, processed.MinLogLevel)

	warn := &dlt.ExtendedHeader{MessageInfo: 0x31} // log warn
	info := &dlt.ExtendedHeader{MessageInfo: 0x41} // log info
	control := &dlt.ExtendedHeader{MessageInfo: 0x16}
	assert.False(t, processed.FilteredOut(warn, nil))
	assert.True(t, processed.FilteredOut(info, nil))
	assert.False(t, processed.FilteredOut(control, nil))
}

func TestFilteredOutByEcu(t *testing.T) {
	cfg := &FilterConfig{EcuIDs: map[string]uint8{"ECU1": 6}}
	processed := cfg.Process()

	header := &dlt.ExtendedHeader{MessageInfo: 0x41, ApplicationID: "APP", ContextID: "CTX"}
	ecu := "ECU1"
	otherEcu := "ECU2"
	assert.False(t, processed.FilteredOut(header, &ecu))
	assert.True(t, processed.FilteredOut(header, &otherEcu))
	assert.False(t, processed.FilteredOut(header, nil))
}

func TestFilteredOutWithoutExtendedHeader(t *testing.T) {
	restricted := (&FilterConfig{
		AppIDs:     map[string]uint8{"A1": 6},
		AppIDCount: 2,
	}).Process()
	assert.True(t, restricted.FilteredOut(nil, nil))

	complete := (&FilterConfig{
		AppIDs:     map[string]uint8{"A1": 6},
		AppIDCount: 1,
	}).Process()
	assert.False(t, complete.FilteredOut(nil, nil))
}

const dlfDocumentXML = `
<dltfilter>
    <filter>
        <ecuid>E1</ecuid>
        <applicationid>A1</applicationid>
        <contextid>C1</contextid>
        <logLevelMax>7</logLevelMax>
        <enableecuid>1</enableecuid>
        <enableapplicationid>1</enableapplicationid>
        <enablecontextid>1</enablecontextid>
        <enableLogLevelMax>1</enableLogLevelMax>
        <enablefilter>1</enablefilter>
    </filter>
    <filter>
        <applicationid>A2</applicationid>
        <logLevelMax>4</logLevelMax>
        <enableapplicationid>1</enableapplicationid>
        <enableLogLevelMax>1</enableLogLevelMax>
        <enablefilter>0</enablefilter>
    </filter>
</dltfilter>
`

func TestReadDlf(t *testing.T) {
	cfg, err := ReadDlf(strings.NewReader(dlfDocumentXML))
	require.NoError(t, err)
	assert.Equal(t, map[string]uint8{"A1": 7}, cfg.AppIDs)
	assert.Equal(t, map[string]uint8{"E1": 7}, cfg.EcuIDs)
	assert.Equal(t, map[string]uint8{"C1": 7}, cfg.ContextIDs)
	assert.Equal(t, int64(1), cfg.AppIDCount)
	assert.Equal(t, int64(1), cfg.ContextIDCount)
}
