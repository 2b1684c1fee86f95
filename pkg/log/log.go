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

// Package log is the leveled logger of the DLT tooling. The trace level
// exists for per-byte parse decision points: a multi-gigabyte scan emits
// millions of those, so they are gated separately from ordinary debug
// output.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

type Level int

const (
	ErrorLevel Level = iota
	WarningLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

var levelNames = map[Level]string{
	ErrorLevel:   "error",
	WarningLevel: "warning",
	InfoLevel:    "info",
	DebugLevel:   "debug",
	TraceLevel:   "trace",
}

// HelpLevels lists the accepted level names for flag help texts
var HelpLevels = "Must be one of: " + strings.Join(levelNameList(), ", ") + "."

func levelNameList() []string {
	names := make([]string, 0, len(levelNames))
	for l := ErrorLevel; l <= TraceLevel; l++ {
		names = append(names, levelNames[l])
	}
	return names
}

// ParseLevel maps a level name to its Level
func ParseLevel(name string) (Level, error) {
	for level, levelName := range levelNames {
		if levelName == name {
			return level, nil
		}
	}
	return ErrorLevel, fmt.Errorf("wrong log level %q. %s", name, HelpLevels)
}

type logger struct {
	mu    sync.Mutex
	level Level
	out   io.Writer
}

var std = &logger{
	level: InfoLevel,
	out:   os.Stderr,
}

func (l *logger) log(level Level, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level > l.level {
		return
	}
	fmt.Fprintf(l.out, "[go-dlt] [%s] %s\n", levelNames[level], fmt.Sprintf(format, v...))
}

// SetLevel changes the active level by name
func SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	std.mu.Lock()
	std.level = level
	std.mu.Unlock()
	return nil
}

// Init directs the output to the given writer and sets the level
func Init(out io.Writer, name string) {
	std.mu.Lock()
	std.out = out
	std.mu.Unlock()
	if err := SetLevel(name); err != nil {
		panic(err)
	}
}

// TraceEnabled answers if parse decision points are logged at all, so
// hot loops can skip building their arguments
func TraceEnabled() bool {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.level >= TraceLevel
}

func Error(format string, v ...interface{}) {
	std.log(ErrorLevel, format, v...)
}

func Warning(format string, v ...interface{}) {
	std.log(WarningLevel, format, v...)
}

func Info(format string, v ...interface{}) {
	std.log(InfoLevel, format, v...)
}

func Debug(format string, v ...interface{}) {
	std.log(DebugLevel, format, v...)
}

// Trace reports a parse decision point
func Trace(format string, v ...interface{}) {
	std.log(TraceLevel, format, v...)
}
