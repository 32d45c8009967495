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
	"context"
	"time"

	"github.com/google/gopacket"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/dataset"
	"github.com/prototypefund/runde15-psylink/pkg/decoder"
	"github.com/prototypefund/runde15-psylink/pkg/layers"
	"github.com/prototypefund/runde15-psylink/pkg/log"
	"github.com/prototypefund/runde15-psylink/pkg/srv"
)

// DeviceStream is the pipeline of one device: an ordered input queue drained by a
// single goroutine that owns the decoder.
type DeviceStream struct {
	*config.Device
	Source  *srv.PacketSource
	Stats   *StatsAccumulator
	Dataset *dataset.Dataset
	Hub     *Hub
	decoder *decoder.Decoder
	resetCh chan struct{}
}

func NewDeviceStream(ctx context.Context, device *config.Device, queueSize int) (*DeviceStream, error) {
	d, err := decoder.New(device.Channels)
	if err != nil {
		return nil, err
	}
	return &DeviceStream{
		Device:  device,
		Source:  srv.NewPacketSource(ctx, queueSize),
		Stats:   NewStatsAccumulator(device.Name),
		Dataset: dataset.New(),
		Hub:     NewHub(),
		decoder: d,
		resetCh: make(chan struct{}, 1),
	}, nil
}

// Enqueue is called by transports. Packets are dropped when the queue is full.
func (ds *DeviceStream) Enqueue(p srv.InPacket) {
	ds.Stats.AddReceived()
	if !ds.Source.Offer(p) {
		ds.Stats.AddOverflow()
		log.Warning("Drop packet. Input queue is full: device: %s", ds.Name)
	}
}

// Reset makes the decoder forget the last tick before the next packet
func (ds *DeviceStream) Reset() {
	select {
	case ds.resetCh <- struct{}{}:
	default:
	}
}

// Run decodes queued packets in arrival order until the source context is done
func (ds *DeviceStream) Run() {
	log.Debug("Starting device stream: device: %s channels: %d", ds.Name, ds.Channels)
	source := gopacket.NewPacketSource(ds.Source, layers.PsyLinkLayerType)
	packets := source.Packets()
	for {
		select {
		case <-ds.resetCh:
			log.Info("Reset decoder: device: %s", ds.Name)
			ds.decoder.Reset()
		case packet, ok := <-packets:
			if !ok {
				log.Debug("Device stream stopped: device: %s", ds.Name)
				return
			}
			ds.handlePacket(packet)
		}
	}
}

// handlePacket checks that the captured packet was attributed to this device before decoding it
func (ds *DeviceStream) handlePacket(packet gopacket.Packet) {
	name, err := srv.GetDeviceName(packet)
	if err != nil {
		log.Warning("Drop packet: device: %s: %s", ds.Name, err)
		ds.Stats.AddError()
		return
	}
	if name != ds.Name {
		log.Warning("Drop packet of device %s queued for device %s", name, ds.Name)
		ds.Stats.AddError()
		return
	}
	if log.Level() >= log.DebugLevel {
		if addr, err := srv.GetAddr(packet); err == nil {
			log.Debug("Packet received: device: %s from: %s length: %d", ds.Name, addr, len(packet.Data()))
		}
	}
	ts := packet.Metadata().Timestamp
	// the header was parsed by the packet source already
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		ds.drop(decoder.AsDecodeError(errLayer.Error()))
		return
	}
	header, ok := packet.Layer(layers.PsyLinkLayerType).(*layers.PsyLinkLayer)
	if !ok {
		_, _ = ds.handle(packet.Data(), ts)
		return
	}
	ds.accept(ds.decoder.DecodeLayer(header, ds.Gyroscope, ds.Accelerometer), packet.Data(), ts)
}

// handle decodes a raw payload, used when no parsed layer is at hand
func (ds *DeviceStream) handle(raw []byte, ts time.Time) (*decoder.Packet, error) {
	p, err := ds.decoder.Decode(raw, ds.Gyroscope, ds.Accelerometer)
	if err != nil {
		ds.drop(err)
		return nil, err
	}
	ds.accept(p, raw, ts)
	return p, nil
}

func (ds *DeviceStream) drop(err error) {
	ds.Stats.AddError()
	log.Warning("Drop packet: device: %s: %s", ds.Name, err)
}

func (ds *DeviceStream) accept(p *decoder.Packet, raw []byte, ts time.Time) {
	if p.LostPackets > 0 {
		log.Debug("Packets lost: device: %s tick: %d lost: %d", ds.Name, p.Tick, p.LostPackets)
	}
	ds.Stats.AddPacket(p, ts)
	ds.Dataset.AddPacket(raw)
	if missed := ds.Hub.Publish(p); missed > 0 {
		log.Debug("Slow subscribers missed packet: device: %s tick: %d subscribers: %d", ds.Name, p.Tick, missed)
	}
}
