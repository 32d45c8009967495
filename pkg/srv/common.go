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

package srv

import (
	"context"
	"io"
	"net"

	"github.com/google/gopacket"
)

// InPacket is a raw payload together with the capture metadata.
// AncillaryData holds the sender address and the device name.
type InPacket struct {
	Data []byte
	gopacket.CaptureInfo
}

// PacketSource is an ordered input queue of one device stream.
// It implements gopacket.PacketDataSource.
type PacketSource struct {
	context.Context
	ChIn chan InPacket
}

func NewPacketSource(ctx context.Context, size int) *PacketSource {
	return &PacketSource{
		Context: ctx,
		ChIn:    make(chan InPacket, size),
	}
}

// ReadPacketData blocks until a packet is queued. It returns io.EOF once the context is done,
// which ends gopacket.PacketSource.Packets().
func (ps *PacketSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	select {
	case <-ps.Context.Done():
		return nil, gopacket.CaptureInfo{}, io.EOF
	case p := <-ps.ChIn:
		return p.Data, p.CaptureInfo, nil
	}
}

// Offer queues the packet without blocking. It returns false if the queue is full.
func (ps *PacketSource) Offer(p InPacket) bool {
	select {
	case ps.ChIn <- p:
		return true
	default:
		return false
	}
}

// GetAddr returns the address of the peer that sent the packet, if any
func GetAddr(packet gopacket.Packet) (net.Addr, error) {
	meta := packet.Metadata()
	if len(meta.CaptureInfo.AncillaryData) >= 1 {
		addr, ok := meta.CaptureInfo.AncillaryData[0].(net.Addr)
		if !ok {
			return nil, ErrGetAddr{}
		}
		return addr, nil
	}
	return nil, ErrGetAddr{}
}

// GetDeviceName returns the name of the device the packet belongs to
func GetDeviceName(packet gopacket.Packet) (string, error) {
	meta := packet.Metadata()
	if len(meta.CaptureInfo.AncillaryData) >= 2 {
		deviceName, ok := meta.CaptureInfo.AncillaryData[1].(string)
		if !ok {
			return "", ErrGetDeviceName{What: "can not cast ancillary data to string"}
		}
		return deviceName, nil
	}
	return "", ErrGetDeviceName{What: "not enough ancillary data"}
}
