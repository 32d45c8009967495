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
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/prototypefund/runde15-psylink/pkg/log"
)

// Packet is one decoded payload.
// Samples[channel][timestep]; EMG channels first, then gyroscope x,y,z
// and accelerometer x,y,z, each holding SampleCount values.
type Packet struct {
	ChannelCount     int      `json:"channelCount"`
	Tick             uint8    `json:"tick"`
	MinSamplingDelay float64  `json:"minSamplingDelay"`
	MaxSamplingDelay float64  `json:"maxSamplingDelay"`
	SampleCount      int      `json:"sampleCount"`
	Samples          [][]byte `json:"-"`
	IsDuplicate      bool     `json:"isDuplicate"`
	LostPackets      int      `json:"lostPackets"`
}

// Channel returns the samples of channel i or nil if there is no such channel
func (p *Packet) Channel(i int) []byte {
	if i < 0 || i >= len(p.Samples) {
		return nil
	}
	return p.Samples[i]
}

// BaseChannels returns the sampled EMG channels
func (p *Packet) BaseChannels() [][]byte {
	return p.Samples[:p.baseCount()]
}

// MotionChannels returns gyroscope x,y,z and accelerometer x,y,z
func (p *Packet) MotionChannels() [][]byte {
	return p.Samples[p.baseCount():]
}

func (p *Packet) baseCount() int {
	n := p.ChannelCount - MotionChannelCount
	if n < 0 {
		return 0
	}
	return n
}

// SignedSamples returns the samples shifted by SampleValueOffset
func (p *Packet) SignedSamples() [][]int {
	result := make([][]int, len(p.Samples))
	for c, channel := range p.Samples {
		result[c] = make([]int, len(channel))
		for i, v := range channel {
			result[c][i] = int(v) + SampleValueOffset
		}
	}
	return result
}

type packetView struct {
	*Packet
	Samples [][]int `json:"samples"`
}

func (p *Packet) String() string {
	view := packetView{Packet: p, Samples: make([][]int, len(p.Samples))}
	for c, channel := range p.Samples {
		view.Samples[c] = make([]int, len(channel))
		for i, v := range channel {
			view.Samples[c][i] = int(v)
		}
	}
	result, err := yaml.Marshal(view)
	if err != nil {
		log.Info("Error occured while marshaling packet, %s", err)
		return ""
	}
	return fmt.Sprintf("---\n%s", string(result))
}
