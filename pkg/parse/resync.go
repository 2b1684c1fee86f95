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
	"bytes"

	"jinr.ru/greenlab/go-dlt/pkg/dlt"
)

// ForwardToNextStoragePattern locates the next storage pattern in the
// input. It returns the number of bytes to drop; found is false when no
// pattern exists in the input. Nothing is dropped if the input already
// begins with a storage header.
func ForwardToNextStoragePattern(input []byte) (int, bool) {
	index := bytes.Index(input, dlt.StoragePattern)
	if index < 0 {
		return 0, false
	}
	return index, true
}

// SkipStorageHeader steps over a storage header that must be at the very
// beginning of the input
func SkipStorageHeader(input []byte) (int, error) {
	if len(input) < dlt.StorageHeaderLength {
		return 0, ErrIncomplete{Needed: dlt.StorageHeaderLength - len(input)}
	}
	if !bytes.HasPrefix(input, dlt.StoragePattern) {
		return 0, ErrHickup{Reason: "did not match DLT storage pattern"}
	}
	return dlt.StorageHeaderLength, nil
}

// SkipTillAfterNextStorageHeader drops everything up to and including the
// next storage header. Used to resynchronize after a corrupt stretch.
func SkipTillAfterNextStorageHeader(input []byte) (int, error) {
	dropped, found := ForwardToNextStoragePattern(input)
	if !found {
		return 0, ErrHickup{Reason: "did not find another storage header"}
	}
	skipped, err := SkipStorageHeader(input[dropped:])
	if err != nil {
		return 0, err
	}
	return dropped + skipped, nil
}

// ConsumeMessage steps over one stored message without decoding the
// payload. It returns the consumed length and whether a message was
// present; the input must carry storage headers.
func ConsumeMessage(input []byte) (int, bool, error) {
	if len(input) == 0 {
		return 0, false, nil
	}
	skipped, err := SkipStorageHeader(input)
	if err != nil {
		return 0, false, err
	}
	_, header, err := DecodeStandardHeader(input[skipped:])
	if err != nil {
		return 0, false, err
	}
	overallLength := int(header.OverallLength())
	if len(input)-skipped < overallLength {
		return 0, false, ErrIncomplete{Needed: overallLength - (len(input) - skipped)}
	}
	return skipped + overallLength, true, nil
}
