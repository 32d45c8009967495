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

	"github.com/google/gopacket"

	"github.com/prototypefund/runde15-psylink/pkg/layers"
	"github.com/prototypefund/runde15-psylink/pkg/log"
)

// TickState is either NoPriorPacket or SeenTick
type TickState interface {
	isTickState()
}

// NoPriorPacket is the state of a decoder that has not decoded anything yet
type NoPriorPacket struct{}

// SeenTick holds the tick of the last successfully decoded packet
type SeenTick uint8

func (NoPriorPacket) isTickState() {}
func (SeenTick) isTickState()      {}

// Decoder turns raw payloads of one device stream into packets.
// Duplicate and loss detection are relative to the previous Decode call, so
// calls must be made in arrival order. A Decoder is not safe for concurrent use,
// every device stream needs its own.
type Decoder struct {
	channelCount int
	lastTick     TickState
}

func New(channelCount int) (*Decoder, error) {
	if channelCount <= 0 {
		return nil, ErrInvalidChannelCount
	}
	return &Decoder{
		channelCount: channelCount,
		lastTick:     NoPriorPacket{},
	}, nil
}

// MustNew is like New but panics on invalid channel count
func MustNew(channelCount int) *Decoder {
	d, err := New(channelCount)
	if err != nil {
		panic(err)
	}
	return d
}

// ChannelCount returns the number of EMG channels, synthesized motion channels excluded
func (d *Decoder) ChannelCount() int {
	return d.channelCount
}

func (d *Decoder) LastTick() TickState {
	return d.lastTick
}

// Reset forgets the last tick, e.g. after the device reconnected
func (d *Decoder) Reset() {
	d.lastTick = NoPriorPacket{}
}

// Decode parses one payload and advances the tick state. On error the state is unchanged.
func (d *Decoder) Decode(payload []byte, enableGyroscope, enableAccelerometer bool) (*Packet, error) {
	header := &layers.PsyLinkLayer{}
	if err := header.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, AsDecodeError(err)
	}
	return d.DecodeLayer(header, enableGyroscope, enableAccelerometer), nil
}

// AsDecodeError maps a layer truncation error to the DecodeError of the missing field.
// Other errors are returned as they are.
func AsDecodeError(err error) error {
	var truncated layers.ErrTruncated
	if errors.As(err, &truncated) {
		return DecodeError{Field: truncated.Field, Err: err}
	}
	return err
}

// DecodeLayer is Decode for a header gopacket has already parsed
func (d *Decoder) DecodeLayer(header *layers.PsyLinkLayer, enableGyroscope, enableAccelerometer bool) *Packet {
	tick := header.Tick
	minDelay, maxDelay := DecompressDelay(header.Delay)

	isDuplicate := false
	lost := 0
	switch last := d.lastTick.(type) {
	case SeenTick:
		isDuplicate = tick == uint8(last)
		lost = lostPackets(uint8(last), tick)
	case NoPriorPacket:
	}
	d.lastTick = SeenTick(tick)

	if isDuplicate {
		log.Debug("Duplicate packet: tick: %d", tick)
	} else if lost > 0 {
		log.Debug("Lost %d packet(s) before tick %d", lost, tick)
	}

	stream := header.Samples()
	sampleCount := len(stream) / d.channelCount
	totalChannels := d.channelCount + MotionChannelCount

	// one backing array for all channels
	backing := make([]byte, totalChannels*sampleCount)
	samples := make([][]byte, totalChannels)
	for c := range samples {
		samples[c] = backing[c*sampleCount : (c+1)*sampleCount : (c+1)*sampleCount]
	}

	for c := 0; c < d.channelCount; c++ {
		channel := samples[c]
		for i := 0; i < sampleCount; i++ {
			channel[i] = stream[c+i*d.channelCount]
		}
	}

	for i, value := range header.Motion() {
		enabled := enableGyroscope
		if i >= 3 {
			enabled = enableAccelerometer
		}
		if !enabled {
			// already zero
			continue
		}
		channel := samples[d.channelCount+i]
		for j := range channel {
			channel[j] = value
		}
	}

	return &Packet{
		ChannelCount:     totalChannels,
		Tick:             tick,
		MinSamplingDelay: minDelay,
		MaxSamplingDelay: maxDelay,
		SampleCount:      sampleCount,
		Samples:          samples,
		IsDuplicate:      isDuplicate,
		LostPackets:      lost,
	}
}

// lostPackets assumes at most one wraparound between two packets,
// more than 255 lost packets in a row are not detected.
func lostPackets(last, tick uint8) int {
	effective := int(tick)
	if tick < last {
		effective += 256
	}
	lost := effective - int(last) - 1
	if lost < 0 {
		return 0
	}
	return lost
}
