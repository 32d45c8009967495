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
	"math"
)

// Firmware contract, versioned together with the device firmware.
// The delay code is logarithmic: code 2 means 1000, code 14 means 500000.
const (
	SampleDelayParamA = -11.338421672773078
	SampleDelayParamB = 1.9309343099280298
	// SampleValueOffset turns raw unsigned samples into values centered around zero
	SampleValueOffset = -127
	// MotionChannelCount is the number of channels synthesized from the IMU bytes
	MotionChannelCount = 6
)

// DecompressDelay decodes the delay byte into the approximate minimum and
// maximum delay between two samplings.
func DecompressDelay(delayByte byte) (float64, float64) {
	minDelay := (delayByte & 0xf0) >> 4
	maxDelay := delayByte & 0x0f
	return DelayFromCode(minDelay), DelayFromCode(maxDelay)
}

// DelayFromCode expands a 4 bit delay code. Only the low nibble of code is used.
func DelayFromCode(code uint8) float64 {
	return math.Exp((float64(code&0x0f) - SampleDelayParamA) / SampleDelayParamB)
}
