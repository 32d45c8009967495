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
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"time"

	"github.com/google/gopacket"
	"go.bug.st/serial"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/layers"
	"github.com/prototypefund/runde15-psylink/pkg/log"
	"github.com/prototypefund/runde15-psylink/pkg/srv"
)

// SerialFrameHeaderLen is the size of the big endian payload length
// the BLE to serial bridge puts in front of every payload
const SerialFrameHeaderLen = 2

// SerialAddr identifies packets received from a serial bridge
type SerialAddr string

func (a SerialAddr) Network() string {
	return "serial"
}

func (a SerialAddr) String() string {
	return string(a)
}

func OpenSerial(device *config.Device) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: device.SerialBaudRate(),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	log.Info("Opening serial bridge: device: %s port: %s baud: %d", device.Name, device.SerialPort, mode.BaudRate)
	return serial.Open(device.SerialPort, mode)
}

// ReadFrames splits the bridge byte stream into payloads and passes them to emit in order.
// Empty frames are keep-alives and are skipped. Oversized frames are discarded and
// reported to drop, which may be nil. It returns when r fails or ctx is done.
func ReadFrames(ctx context.Context, r io.Reader, deviceName string, addr SerialAddr, emit func(srv.InPacket), drop func(error)) error {
	reader := bufio.NewReader(r)
	header := make([]byte, SerialFrameHeaderLen)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if _, err := io.ReadFull(reader, header); err != nil {
			return err
		}
		length := int(binary.BigEndian.Uint16(header))
		if length == 0 {
			continue
		}
		if length > layers.MaxPayloadLen {
			if _, err := reader.Discard(length); err != nil {
				return err
			}
			if drop != nil {
				drop(ErrFrameTooLong{Length: length})
			}
			continue
		}
		data := make([]byte, length)
		if _, err := io.ReadFull(reader, data); err != nil {
			return err
		}
		emit(srv.InPacket{
			Data: data,
			CaptureInfo: gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{addr, deviceName},
			},
		})
	}
}

// WriteFrame writes one payload in bridge framing
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > layers.MaxPayloadLen {
		return ErrFrameTooLong{Length: len(payload)}
	}
	header := make([]byte, SerialFrameHeaderLen)
	binary.BigEndian.PutUint16(header, uint16(len(payload)))
	if _, err := w.Write(header); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
