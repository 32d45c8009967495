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

package dataset

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Lookbehind is the number of packets preceding a datapoint used as its features
const Lookbehind = 10

// Datapoint marks the packet that was current when the user performed the labeled movement.
// It is only meaningful within the Dataset it was recorded in.
type Datapoint struct {
	PacketIndex int   `json:"packetIndex"`
	Label       uint8 `json:"label"`
}

// TrainingSample is a Datapoint expanded to the raw packets preceding it
type TrainingSample struct {
	Features [][]byte `json:"features"`
	Label    uint8    `json:"label"`
}

type Summary struct {
	Session    string        `json:"session"`
	Started    time.Time     `json:"started"`
	Packets    int           `json:"packets"`
	Datapoints int           `json:"datapoints"`
	Labels     map[uint8]int `json:"labels"`
}

// Dataset keeps every raw payload received in a session along with the labeled datapoints.
// It is safe for concurrent use.
type Dataset struct {
	mu         sync.RWMutex
	session    uuid.UUID
	started    time.Time
	packets    [][]byte
	datapoints []Datapoint
}

func New() *Dataset {
	return &Dataset{
		session: uuid.New(),
		started: time.Now(),
	}
}

func (d *Dataset) Session() uuid.UUID {
	return d.session
}

// AddPacket stores a copy of the raw payload
func (d *Dataset) AddPacket(raw []byte) {
	packet := make([]byte, len(raw))
	copy(packet, raw)
	d.mu.Lock()
	d.packets = append(d.packets, packet)
	d.mu.Unlock()
}

func (d *Dataset) AddDatapoint(datapoint Datapoint) {
	d.mu.Lock()
	d.datapoints = append(d.datapoints, datapoint)
	d.mu.Unlock()
}

// CurrentIndex is the index the next datapoint refers to.
// Add the packet first, then the datapoint.
func (d *Dataset) CurrentIndex() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.packets)
}

// Label records a datapoint for the current packet index
func (d *Dataset) Label(label uint8) Datapoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	datapoint := Datapoint{PacketIndex: len(d.packets), Label: label}
	d.datapoints = append(d.datapoints, datapoint)
	return datapoint
}

// Get returns the training sample of the i-th datapoint. There is no sample
// if the datapoint has not enough packets in front of it.
func (d *Dataset) Get(i int) (TrainingSample, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if i < 0 || i >= len(d.datapoints) {
		return TrainingSample{}, false
	}
	datapoint := d.datapoints[i]
	if datapoint.PacketIndex <= Lookbehind || datapoint.PacketIndex > len(d.packets) {
		return TrainingSample{}, false
	}
	start := datapoint.PacketIndex - Lookbehind
	features := make([][]byte, Lookbehind)
	copy(features, d.packets[start:datapoint.PacketIndex])
	return TrainingSample{
		Features: features,
		Label:    datapoint.Label,
	}, true
}

// Len returns the number of datapoints
func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.datapoints)
}

func (d *Dataset) PacketCount() int {
	return d.CurrentIndex()
}

func (d *Dataset) Summary() Summary {
	d.mu.RLock()
	defer d.mu.RUnlock()
	labels := make(map[uint8]int)
	for _, datapoint := range d.datapoints {
		labels[datapoint.Label]++
	}
	return Summary{
		Session:    d.session.String(),
		Started:    d.started,
		Packets:    len(d.packets),
		Datapoints: len(d.datapoints),
		Labels:     labels,
	}
}
