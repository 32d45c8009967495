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
	"net"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/gopacket"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/decoder"
	"github.com/prototypefund/runde15-psylink/pkg/layers"
	"github.com/prototypefund/runde15-psylink/pkg/log"
	"github.com/prototypefund/runde15-psylink/pkg/srv"
)

const (
	// ReadBufferSize is larger than any BLE payload, a bridge never merges payloads
	ReadBufferSize = 4096
)

type StreamServer struct {
	context.Context
	*config.Config
	*net.UDPAddr
	conn    *net.UDPConn
	state   *State
	api     *ApiServer
	streams map[string]*DeviceStream
}

func NewStreamServer(ctx context.Context, cfg *config.Config) (*StreamServer, error) {
	log.Info("Initializing stream server with address: %s", cfg.Address)

	uaddr, err := net.ResolveUDPAddr("udp", cfg.Address)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.DBPath()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}
	state, err := NewState(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	s := &StreamServer{
		Context: ctx,
		Config:  cfg,
		UDPAddr: uaddr,
		state:   state,
		streams: make(map[string]*DeviceStream),
	}

	for _, device := range cfg.Devices {
		ds, err := NewDeviceStream(ctx, device, cfg.QueueSize)
		if err != nil {
			state.Close()
			return nil, err
		}
		if persisted, err := state.GetStats(device.Name); err == nil {
			log.Debug("Restoring stats: device: %s decoded: %d", device.Name, persisted.Decoded)
			ds.Stats.Restore(persisted)
		}
		s.streams[device.Name] = ds
	}

	apiServer, err := NewApiServer(ctx, cfg, s)
	if err != nil {
		state.Close()
		return nil, err
	}
	s.api = apiServer

	return s, nil
}

// Listen binds the UDP socket. Run calls it if it was not called before.
func (s *StreamServer) Listen() error {
	conn, err := net.ListenUDP("udp", s.UDPAddr)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// LocalAddr returns the bound address, nil before Listen
func (s *StreamServer) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

func (s *StreamServer) Stream(deviceName string) (*DeviceStream, error) {
	ds, ok := s.streams[deviceName]
	if !ok {
		return nil, config.ErrDeviceNotFound{Name: deviceName}
	}
	return ds, nil
}

// Streams returns device streams sorted by device name
func (s *StreamServer) Streams() []*DeviceStream {
	result := make([]*DeviceStream, 0, len(s.streams))
	for _, ds := range s.streams {
		result = append(result, ds)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Subscribe returns decoded packets of the device, see Hub.Subscribe
func (s *StreamServer) Subscribe(deviceName string, size int) (<-chan *decoder.Packet, func(), error) {
	ds, err := s.Stream(deviceName)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := ds.Hub.Subscribe(size)
	return ch, cancel, nil
}

func (s *StreamServer) Run() error {
	if s.conn == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	log.Info("Stream server is listening: %s", s.conn.LocalAddr())

	defer s.Close()
	defer s.conn.Close()

	errChan := make(chan error, 1)
	fail := func(err error) {
		select {
		case errChan <- err:
		default:
		}
	}

	go func() {
		<-s.Context.Done()
		s.conn.Close()
	}()

	// Read packets from wire and put them to the input queue of the device
	go func() {
		buffer := make([]byte, ReadBufferSize)
		for {
			length, addr, readErr := s.conn.ReadFromUDP(buffer)
			if readErr != nil {
				if s.Context.Err() == nil {
					fail(readErr)
				}
				return
			}
			device, getdevErr := s.GetDeviceByIP(addr.IP)
			if getdevErr != nil {
				log.Debug("Drop packet. Device not found for given IP: %s", addr.IP)
				continue
			}
			if length > layers.MaxPayloadLen {
				log.Warning("Drop packet. Payload too long: device: %s length: %d", device.Name, length)
				continue
			}
			captureInfo := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{addr, device.Name},
			}
			packet := srv.InPacket{CaptureInfo: captureInfo, Data: make([]byte, length)}
			copy(packet.Data, buffer[:length])
			s.streams[device.Name].Enqueue(packet)
		}
	}()

	for _, ds := range s.streams {
		ds := ds
		if ds.SerialPort != "" {
			go func() {
				if err := s.runSerial(ds); err != nil {
					fail(err)
				}
			}()
		}
		go ds.Run()
	}

	go func() {
		if err := s.api.Run(); err != nil {
			fail(err)
		}
	}()

	go s.flushStats()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		return err
	}
}

func (s *StreamServer) runSerial(ds *DeviceStream) error {
	port, err := OpenSerial(ds.Device)
	if err != nil {
		return err
	}
	go func() {
		<-s.Context.Done()
		port.Close()
	}()
	err = ReadFrames(s.Context, port, ds.Name, SerialAddr(ds.SerialPort), ds.Enqueue, ds.drop)
	if s.Context.Err() != nil {
		return nil
	}
	return err
}

func (s *StreamServer) flushStats() {
	interval := s.FlushInterval.Duration
	if interval <= 0 {
		interval = config.DefaultFlushInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.Context.Done():
			return
		case <-ticker.C:
			s.PersistStats()
		}
	}
}

// PersistStats writes the current stats of all devices to the state database
func (s *StreamServer) PersistStats() {
	for _, ds := range s.streams {
		if err := s.state.SetStats(ds.Stats.Snapshot()); err != nil {
			log.Error("Error while persisting stats: device: %s error: %s", ds.Name, err)
		}
	}
}

// PersistedStats flushes the live stats and returns everything in the state database,
// including devices that are no longer configured
func (s *StreamServer) PersistedStats() ([]Stats, error) {
	s.PersistStats()
	return s.state.GetAllStats()
}

// Close persists stats and closes the state database. Run calls it on return.
func (s *StreamServer) Close() error {
	s.PersistStats()
	return s.state.Close()
}
