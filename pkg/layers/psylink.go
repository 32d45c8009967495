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

package layers

import (
	"encoding/hex"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/prototypefund/runde15-psylink/pkg/log"
)

const (
	// PsyLinkLayerNum identifies the layer
	PsyLinkLayerNum = 2001
	// HeaderLen is the offset of the interleaved sample stream, shared with the firmware
	HeaderLen = 8
	// MotionLen is the number of IMU bytes: gyroscope x,y,z then accelerometer x,y,z
	MotionLen = 6
	// MaxPayloadLen is the largest BLE characteristic value the firmware sends
	MaxPayloadLen = 512
)

const (
	tickOffset   = 0
	delayOffset  = 1
	motionOffset = 2
)

/*
 PsyLink payload as it arrives from the BLE characteristic:

 offset  field
 0       tick, 8 bit counter, wraps 255 -> 0
 1       delay byte, high nibble = min delay code, low nibble = max delay code
 2..4    gyroscope x,y,z
 5..7    accelerometer x,y,z
 8..     samples, interleaved with stride = number of EMG channels
*/

// PsyLinkLayer ...
type PsyLinkLayer struct {
	layers.BaseLayer
	Tick          uint8
	Delay         uint8
	Gyroscope     [3]uint8
	Accelerometer [3]uint8
}

var PsyLinkLayerType = gopacket.RegisterLayerType(PsyLinkLayerNum,
	gopacket.LayerTypeMetadata{Name: "PsyLinkLayerType", Decoder: gopacket.DecodeFunc(DecodePsyLinkLayer)})

// LayerType returns the type of the PsyLink layer in the layer catalog
func (pl *PsyLinkLayer) LayerType() gopacket.LayerType {
	return PsyLinkLayerType
}

// CanDecode is from the DecodingLayer interface
func (pl *PsyLinkLayer) CanDecode() gopacket.LayerClass {
	return PsyLinkLayerType
}

// NextLayerType is from the DecodingLayer interface.
// Samples are not a layer on their own, they are available via LayerPayload.
func (pl *PsyLinkLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypeZero
}

// Motion returns gyroscope and accelerometer bytes in wire order
func (pl *PsyLinkLayer) Motion() [MotionLen]uint8 {
	return [MotionLen]uint8{
		pl.Gyroscope[0], pl.Gyroscope[1], pl.Gyroscope[2],
		pl.Accelerometer[0], pl.Accelerometer[1], pl.Accelerometer[2],
	}
}

// Samples returns the interleaved sample stream following the header
func (pl *PsyLinkLayer) Samples() []byte {
	return pl.Payload
}

// DecodeFromBytes parses the fixed header. The first missing field is reported
// as ErrTruncated and the layer is left untouched in that case.
func (pl *PsyLinkLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	switch {
	case len(data) <= tickOffset:
		df.SetTruncated()
		return ErrTruncated{Field: FieldTick, Length: len(data)}
	case len(data) <= delayOffset:
		df.SetTruncated()
		return ErrTruncated{Field: FieldDelay, Length: len(data)}
	case len(data) < HeaderLen:
		df.SetTruncated()
		return ErrTruncated{Field: FieldMotion, Length: len(data)}
	}

	if log.Level() >= log.DebugLevel {
		log.Debug("PsyLinkLayer.DecodeFromBytes: header: %s", hex.EncodeToString(data[:HeaderLen]))
	}

	pl.Tick = data[tickOffset]
	pl.Delay = data[delayOffset]
	copy(pl.Gyroscope[:], data[motionOffset:motionOffset+3])
	copy(pl.Accelerometer[:], data[motionOffset+3:HeaderLen])
	pl.BaseLayer = layers.BaseLayer{
		Contents: data[:HeaderLen],
		Payload:  data[HeaderLen:],
	}
	return nil
}

// SerializeTo writes the header followed by the sample stream kept in Payload
func (pl *PsyLinkLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(HeaderLen + len(pl.Payload))
	if err != nil {
		return err
	}
	bytes[tickOffset] = pl.Tick
	bytes[delayOffset] = pl.Delay
	motion := pl.Motion()
	copy(bytes[motionOffset:HeaderLen], motion[:])
	copy(bytes[HeaderLen:], pl.Payload)
	return nil
}

// Interleave lays out per-channel samples the way the firmware does, stride = len(channels).
// All channels must have the same number of samples, extra samples of longer channels are ignored.
func Interleave(channels [][]byte) []byte {
	if len(channels) == 0 {
		return []byte{}
	}
	sampleCount := len(channels[0])
	for _, ch := range channels[1:] {
		if len(ch) < sampleCount {
			sampleCount = len(ch)
		}
	}
	out := make([]byte, 0, sampleCount*len(channels))
	for i := 0; i < sampleCount; i++ {
		for _, ch := range channels {
			out = append(out, ch[i])
		}
	}
	return out
}

func DecodePsyLinkLayer(data []byte, p gopacket.PacketBuilder) error {
	pl := &PsyLinkLayer{}
	err := pl.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(pl)
	return nil
}
