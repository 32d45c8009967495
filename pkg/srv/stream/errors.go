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
	"fmt"
)

// ErrStatsNotFound returned when no stats were persisted for a device
type ErrStatsNotFound struct {
	Device string
}

func (e ErrStatsNotFound) Error() string {
	return fmt.Sprintf("Stats not found: device: %s", e.Device)
}

// ErrFrameTooLong returned when a serial bridge frame announces a payload the firmware never sends
type ErrFrameTooLong struct {
	Length int
}

func (e ErrFrameTooLong) Error() string {
	return fmt.Sprintf("Serial frame too long: %d bytes", e.Length)
}
