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

package parse

import (
	"errors"
	"fmt"
)

// ResyncQuantum is the number of bytes a caller should skip after an
// ErrHickup before retrying. Four bytes is the minimal header slack; a
// caller may additionally scan for the next storage pattern to skip
// large corrupt stretches.
const ResyncQuantum = 4

// ErrIncomplete is returned when the input ends in the middle of a
// message. Nothing was consumed; Needed is the minimum number of
// additional bytes required, or 0 if unknown.
type ErrIncomplete struct {
	Needed int
}

func (e ErrIncomplete) Error() string {
	if e.Needed > 0 {
		return fmt.Sprintf("parsing could not complete, needed: %d", e.Needed)
	}
	return "parsing could not complete"
}

// ErrHickup is a recoverable structural violation. The caller skips
// ResyncQuantum bytes and retries; the decoder itself keeps no state.
type ErrHickup struct {
	Reason string
}

func (e ErrHickup) Error() string {
	return fmt.Sprintf("parsing error, try to continue: %s", e.Reason)
}

// ErrUnrecoverable means further decoding of this stream is meaningless
type ErrUnrecoverable struct {
	Cause string
}

func (e ErrUnrecoverable) Error() string {
	return fmt.Sprintf("parsing stopped, cannot continue: %s", e.Cause)
}

// IsIncomplete ...
func IsIncomplete(err error) bool {
	var e ErrIncomplete
	return errors.As(err, &e)
}

// IsHickup ...
func IsHickup(err error) bool {
	var e ErrHickup
	return errors.As(err, &e)
}

// IsUnrecoverable ...
func IsUnrecoverable(err error) bool {
	var e ErrUnrecoverable
	return errors.As(err, &e)
}
