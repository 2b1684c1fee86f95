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

// Package stats rapidly gathers statistics about a DLT source without
// materializing the records.
package stats

import (
	"bufio"
	"errors"
	"io"
	"os"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
	"jinr.ru/greenlab/go-dlt/pkg/log"
	"jinr.ru/greenlab/go-dlt/pkg/parse"
)

const (
	binReaderCapacity = 10 * 1024 * 1024
	binMinBufferSpace = 10 * 1024
)

// RowInfo is what one message contributes to the statistics
type RowInfo struct {
	AppID     string       `json:"app_id,omitempty"`
	ContextID string       `json:"context_id,omitempty"`
	HasIDs    bool         `json:"has_ids"`
	EcuID     string       `json:"ecu_id,omitempty"`
	HasEcuID  bool         `json:"has_ecu_id"`
	Level     dlt.LogLevel `json:"level,omitempty"`
	HasLevel  bool         `json:"has_level"`
	LevelRaw  uint8        `json:"level_raw,omitempty"`
	Verbose   bool         `json:"verbose"`
}

// StatisticRowInfo decodes just enough of the next message to fill a
// RowInfo. The payload is skipped, not decoded.
func StatisticRowInfo(input []byte, withStorageHeader bool) (int, RowInfo, error) {
	row := RowInfo{}
	offset := 0
	if withStorageHeader {
		n, err := parse.SkipTillAfterNextStorageHeader(input)
		if err != nil {
			return 0, row, err
		}
		offset = n
	}
	afterStorage := input[offset:]
	n, header, err := parse.DecodeStandardHeader(afterStorage)
	if err != nil {
		return 0, row, err
	}
	offset += n
	if header.EcuID != nil {
		row.EcuID = *header.EcuID
		row.HasEcuID = true
	}

	payloadLength, err := parse.ValidatedPayloadLength(&header, len(afterStorage))
	if err != nil {
		if parse.IsIncomplete(err) {
			return 0, row, err
		}
		// broken length field, report what we have and continue after the headers
		return offset, row, nil
	}
	if !header.HasExtendedHeader {
		return offset + int(payloadLength), row, nil
	}

	n, extended, err := parse.DecodeExtendedHeader(input[offset:])
	if err != nil {
		return 0, row, err
	}
	offset += n + int(payloadLength)
	row.AppID = extended.ApplicationID
	row.ContextID = extended.ContextID
	row.HasIDs = true
	row.Verbose = extended.Verbose()
	if extended.MessageType() == dlt.TypeLog {
		row.HasLevel = true
		row.LevelRaw = extended.MessageTypeInfo()
		row.Level = extended.LogLevel()
	}
	return offset, row, nil
}

// RowFromMessage extracts the statistics row of an already decoded
// message, used by live sources that materialize records anyway
func RowFromMessage(message *dlt.Message) RowInfo {
	row := RowInfo{}
	if message.Header.EcuID != nil {
		row.EcuID = *message.Header.EcuID
		row.HasEcuID = true
	}
	if extended := message.Extended; extended != nil {
		row.AppID = extended.ApplicationID
		row.ContextID = extended.ContextID
		row.HasIDs = true
		row.Verbose = extended.Verbose()
		if extended.MessageType() == dlt.TypeLog {
			row.HasLevel = true
			row.LevelRaw = extended.MessageTypeInfo()
			row.Level = extended.LogLevel()
		}
	}
	return row
}

// LevelDistribution counts messages per log level
type LevelDistribution struct {
	NonLog     uint64 `json:"non_log"`
	LogFatal   uint64 `json:"log_fatal"`
	LogError   uint64 `json:"log_error"`
	LogWarning uint64 `json:"log_warning"`
	LogInfo    uint64 `json:"log_info"`
	LogDebug   uint64 `json:"log_debug"`
	LogVerbose uint64 `json:"log_verbose"`
	LogInvalid uint64 `json:"log_invalid"`
}

// Add counts one message with the given level information
func (d *LevelDistribution) Add(row RowInfo) {
	switch {
	case !row.HasLevel:
		d.NonLog++
	case row.Level == dlt.LevelFatal:
		d.LogFatal++
	case row.Level == dlt.LevelError:
		d.LogError++
	case row.Level == dlt.LevelWarn:
		d.LogWarning++
	case row.Level == dlt.LevelInfo:
		d.LogInfo++
	case row.Level == dlt.LevelDebug:
		d.LogDebug++
	case row.Level == dlt.LevelVerbose:
		d.LogVerbose++
	default:
		d.LogInvalid++
	}
}

// Merge adds the counts of another distribution
func (d *LevelDistribution) Merge(other *LevelDistribution) {
	d.NonLog += other.NonLog
	d.LogFatal += other.LogFatal
	d.LogError += other.LogError
	d.LogWarning += other.LogWarning
	d.LogInfo += other.LogInfo
	d.LogDebug += other.LogDebug
	d.LogVerbose += other.LogVerbose
	d.LogInvalid += other.LogInvalid
}

// NoneID is used for messages that carry no id of the given kind
const NoneID = "NONE"

// StatisticInfo holds the level distribution for all app, context and
// ECU ids of a source
type StatisticInfo struct {
	AppIDs              map[string]*LevelDistribution `json:"app_ids"`
	ContextIDs          map[string]*LevelDistribution `json:"context_ids"`
	EcuIDs              map[string]*LevelDistribution `json:"ecu_ids"`
	Messages            uint64                        `json:"messages"`
	ContainedNonVerbose bool                          `json:"contained_non_verbose"`
}

// NewStatisticInfo ...
func NewStatisticInfo() *StatisticInfo {
	return &StatisticInfo{
		AppIDs:     make(map[string]*LevelDistribution),
		ContextIDs: make(map[string]*LevelDistribution),
		EcuIDs:     make(map[string]*LevelDistribution),
	}
}

func addForLevel(ids map[string]*LevelDistribution, id string, row RowInfo) {
	distribution := ids[id]
	if distribution == nil {
		distribution = &LevelDistribution{}
		ids[id] = distribution
	}
	distribution.Add(row)
}

// Account adds one row to the statistics
func (s *StatisticInfo) Account(row RowInfo) {
	s.Messages++
	s.ContainedNonVerbose = s.ContainedNonVerbose || !row.Verbose
	if row.HasIDs {
		addForLevel(s.AppIDs, row.AppID, row)
		addForLevel(s.ContextIDs, row.ContextID, row)
	} else {
		addForLevel(s.AppIDs, NoneID, row)
		addForLevel(s.ContextIDs, NoneID, row)
	}
	if row.HasEcuID {
		addForLevel(s.EcuIDs, row.EcuID, row)
	} else {
		addForLevel(s.EcuIDs, NoneID, row)
	}
}

// Merge combines the statistics of another source
func (s *StatisticInfo) Merge(other *StatisticInfo) {
	mergeLevels(s.AppIDs, other.AppIDs)
	mergeLevels(s.ContextIDs, other.ContextIDs)
	mergeLevels(s.EcuIDs, other.EcuIDs)
	s.Messages += other.Messages
	s.ContainedNonVerbose = s.ContainedNonVerbose || other.ContainedNonVerbose
}

func mergeLevels(owner, incoming map[string]*LevelDistribution) {
	for id, distribution := range incoming {
		if existing := owner[id]; existing != nil {
			existing.Merge(distribution)
		} else {
			merged := *distribution
			owner[id] = &merged
		}
	}
}

// Collect scans all messages of the source and accumulates statistics.
// Corrupt stretches are skipped with the usual resync quantum.
func Collect(source io.Reader, withStorageHeader bool) (*StatisticInfo, error) {
	reader := bufio.NewReaderSize(source, binReaderCapacity)
	info := NewStatisticInfo()
	peek := binMinBufferSpace
	for {
		window, err := reader.Peek(peek)
		if len(window) == 0 {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			if err != nil {
				return nil, parse.ErrUnrecoverable{Cause: err.Error()}
			}
		}
		atEOF := err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF)
		consumed, row, rowErr := StatisticRowInfo(window, withStorageHeader)
		if rowErr != nil {
			if parse.IsIncomplete(rowErr) {
				if atEOF {
					// trailing bytes do not form a full message
					break
				}
				// message longer than the current window, widen it
				peek *= 2
				if peek > binReaderCapacity {
					return nil, parse.ErrUnrecoverable{Cause: "message exceeds reader capacity"}
				}
				continue
			}
			if parse.IsHickup(rowErr) {
				log.Debug("error parsing 1 dlt message, try to continue parsing: %v", rowErr)
				skip := parse.ResyncQuantum
				if skip > len(window) {
					skip = len(window)
				}
				if _, err := reader.Discard(skip); err != nil {
					break
				}
				continue
			}
			return nil, rowErr
		}
		info.Account(row)
		if _, err := reader.Discard(consumed); err != nil {
			break
		}
		peek = binMinBufferSpace
	}
	return info, nil
}

// CollectFile gathers statistics for a DLT file with storage headers
func CollectFile(path string) (*StatisticInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, parse.ErrUnrecoverable{Cause: err.Error()}
	}
	defer f.Close()
	return Collect(f, true)
}

// CountMessages counts the messages of a file. The file must carry
// storage headers.
func CountMessages(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, parse.ErrUnrecoverable{Cause: err.Error()}
	}
	defer f.Close()

	reader := bufio.NewReaderSize(f, binReaderCapacity)
	var count uint64
	peek := binMinBufferSpace
	for {
		window, err := reader.Peek(peek)
		if len(window) == 0 {
			break
		}
		atEOF := err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF)
		consumed, ok, cerr := parse.ConsumeMessage(window)
		if cerr != nil {
			if parse.IsIncomplete(cerr) && !atEOF && peek <= binReaderCapacity/2 {
				peek *= 2
				continue
			}
			break
		}
		if !ok {
			break
		}
		count++
		if _, err := reader.Discard(consumed); err != nil {
			break
		}
		peek = binMinBufferSpace
	}
	return count, nil
}
