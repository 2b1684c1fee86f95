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

// Package filtering describes which DLT messages to skip based on
// log level and app/context/ECU ids.
package filtering

import (
	"io/ioutil"

	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
)

// FilterConfig is the serialized filter description. Ids map to a log
// level; Process keeps only ids whose level is known, and FilteredOut
// checks id membership only, the per-id level is not compared with the
// message level. Known levels:
//
//	1 => FATAL
//	2 => ERROR
//	3 => WARN
//	4 => INFO
//	5 => DEBUG
//	6 => VERBOSE
type FilterConfig struct {
	// MinLogLevel skips all log messages less severe than this level
	MinLogLevel uint8 `json:"min_log_level,omitempty"`
	// AppIDs lists the allowed app ids with their log levels
	AppIDs map[string]uint8 `json:"app_ids,omitempty"`
	// EcuIDs lists the allowed ECU ids with their log levels
	EcuIDs map[string]uint8 `json:"ecu_ids,omitempty"`
	// ContextIDs lists the allowed context ids with their log levels
	ContextIDs map[string]uint8 `json:"context_ids,omitempty"`
	// AppIDCount is how many app ids exist in total
	AppIDCount int64 `json:"app_id_count"`
	// ContextIDCount is how many context ids exist in total
	ContextIDCount int64 `json:"context_id_count"`
}

// Load reads a filter config from a YAML or JSON file
func Load(path string) (*FilterConfig, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &FilterConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ProcessedFilterConfig is the form used during parsing
type ProcessedFilterConfig struct {
	MinLogLevel    *dlt.LogLevel
	AppIDs         map[string]dlt.LogLevel
	EcuIDs         map[string]dlt.LogLevel
	ContextIDs     map[string]dlt.LogLevel
	AppIDCount     int64
	ContextIDCount int64
}

// Process converts the serialized config into its processed form
func (c *FilterConfig) Process() *ProcessedFilterConfig {
	processed := &ProcessedFilterConfig{
		AppIDs:         mapFilterLevels(c.AppIDs),
		EcuIDs:         mapFilterLevels(c.EcuIDs),
		ContextIDs:     mapFilterLevels(c.ContextIDs),
		AppIDCount:     c.AppIDCount,
		ContextIDCount: c.ContextIDCount,
	}
	if dlt.KnownLogLevel(c.MinLogLevel) {
		level := dlt.LogLevel(c.MinLogLevel)
		processed.MinLogLevel = &level
	}
	return processed
}

func mapFilterLevels(ids map[string]uint8) map[string]dlt.LogLevel {
	if ids == nil {
		return nil
	}
	levels := make(map[string]dlt.LogLevel, len(ids))
	for id, level := range ids {
		if dlt.KnownLogLevel(level) {
			levels[id] = dlt.LogLevel(level)
		}
	}
	return levels
}

// FilteredOut decides if a message with the given extended header and
// ECU id should be skipped. Messages without extended header are only
// skipped when the filter restricts the id space.
func (c *ProcessedFilterConfig) FilteredOut(extended *dlt.ExtendedHeader, ecuID *string) bool {
	if extended != nil {
		if c.MinLogLevel != nil && extended.SkipWithLevel(*c.MinLogLevel) {
			return true
		}
		if c.AppIDs != nil {
			if _, ok := c.AppIDs[extended.ApplicationID]; !ok {
				return true
			}
		}
		if c.ContextIDs != nil {
			if _, ok := c.ContextIDs[extended.ContextID]; !ok {
				return true
			}
		}
		if c.EcuIDs != nil && ecuID != nil {
			if _, ok := c.EcuIDs[*ecuID]; !ok {
				return true
			}
		}
		return false
	}
	if c.AppIDs != nil && c.AppIDCount > int64(len(c.AppIDs)) {
		// some app id was filtered, ignore this entry
		return true
	}
	if c.ContextIDs != nil && c.ContextIDCount > int64(len(c.ContextIDs)) {
		return true
	}
	return false
}
