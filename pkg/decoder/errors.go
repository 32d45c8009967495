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

package decoder

import (
	"errors"
	"fmt"

	"github.com/prototypefund/runde15-psylink/pkg/layers"
)

var (
	ErrMissingTick         = DecodeError{Field: layers.FieldTick}
	ErrMissingDelay        = DecodeError{Field: layers.FieldDelay}
	ErrMissingMotion       = DecodeError{Field: layers.FieldMotion}
	ErrInvalidChannelCount = errors.New("channel count must be positive")
)

// DecodeError returned when a payload is too short to contain one of the header fields.
// The packet should be dropped, decoding of the following packets is not affected.
type DecodeError struct {
	Field string
	Err   error
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("Failed to decode packet, no %s supplied", e.Field)
}

func (e DecodeError) Unwrap() error {
	return e.Err
}

// Is matches DecodeError values by field, so errors.Is(err, ErrMissingTick) works
// regardless of the wrapped cause.
func (e DecodeError) Is(target error) bool {
	t, ok := target.(DecodeError)
	if !ok {
		return false
	}
	return t.Field == e.Field
}
