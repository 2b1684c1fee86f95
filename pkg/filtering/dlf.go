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
	"encoding/xml"
	"io"
	"os"
)

// dlfFilter mirrors one <filter> element of a DLT-viewer filter file
type dlfFilter struct {
	EcuID             string `xml:"ecuid"`
	AppID             string `xml:"applicationid"`
	ContextID         string `xml:"contextid"`
	LogLevelMax       uint8  `xml:"logLevelMax"`
	EnableEcuID       int    `xml:"enableecuid"`
	EnableAppID       int    `xml:"enableapplicationid"`
	EnableContextID   int    `xml:"enablecontextid"`
	EnableLogLevelMax int    `xml:"enableLogLevelMax"`
	EnableFilter      int    `xml:"enablefilter"`
}

type dlfDocument struct {
	XMLName xml.Name    `xml:"dltfilter"`
	Filters []dlfFilter `xml:"filter"`
}

// ReadDlf parses a DLF filter definition into a FilterConfig. Disabled
// filters and filters without a log level are ignored.
func ReadDlf(r io.Reader) (*FilterConfig, error) {
	doc := &dlfDocument{}
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, err
	}
	cfg := &FilterConfig{}
	for _, filter := range doc.Filters {
		if filter.EnableFilter != 1 || filter.EnableLogLevelMax != 1 {
			continue
		}
		if filter.EnableEcuID == 1 && filter.EcuID != "" {
			if cfg.EcuIDs == nil {
				cfg.EcuIDs = make(map[string]uint8)
			}
			cfg.EcuIDs[filter.EcuID] = filter.LogLevelMax
		}
		if filter.EnableAppID == 1 && filter.AppID != "" {
			if cfg.AppIDs == nil {
				cfg.AppIDs = make(map[string]uint8)
			}
			cfg.AppIDs[filter.AppID] = filter.LogLevelMax
			cfg.AppIDCount++
		}
		if filter.EnableContextID == 1 && filter.ContextID != "" {
			if cfg.ContextIDs == nil {
				cfg.ContextIDs = make(map[string]uint8)
			}
			cfg.ContextIDs[filter.ContextID] = filter.LogLevelMax
			cfg.ContextIDCount++
		}
	}
	return cfg, nil
}

// ReadDlfFile parses a DLF filter definition file
func ReadDlfFile(path string) (*FilterConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDlf(f)
}
