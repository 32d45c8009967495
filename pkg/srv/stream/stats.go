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
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/prototypefund/runde15-psylink/pkg/decoder"
)

// StatsWindow is the number of recent packets used for the delay means
const StatsWindow = 128

type Stats struct {
	Device     string    `json:"device"`
	Received   uint64    `json:"received"`
	Decoded    uint64    `json:"decoded"`
	Errors     uint64    `json:"errors"`
	Overflows  uint64    `json:"overflows"`
	Duplicates uint64    `json:"duplicates"`
	Lost       uint64    `json:"lost"`
	LastTick   *uint8    `json:"lastTick,omitempty"`
	LastSeen   time.Time `json:"lastSeen,omitempty"`
	// means over the last StatsWindow decoded packets
	MeanMinDelay float64 `json:"meanMinDelay"`
	MeanMaxDelay float64 `json:"meanMaxDelay"`
}

// LossRatio is the share of packets the device sent but we never decoded
func (s Stats) LossRatio() float64 {
	total := s.Decoded - s.Duplicates + s.Lost
	if total == 0 {
		return 0
	}
	return float64(s.Lost) / float64(total)
}

// StatsAccumulator collects Stats of one device. It is safe for concurrent use.
type StatsAccumulator struct {
	mu        sync.Mutex
	stats     Stats
	minDelays []float64
	maxDelays []float64
	next      int
}

func NewStatsAccumulator(device string) *StatsAccumulator {
	return &StatsAccumulator{
		stats:     Stats{Device: device},
		minDelays: make([]float64, 0, StatsWindow),
		maxDelays: make([]float64, 0, StatsWindow),
	}
}

// Restore continues counting from previously persisted stats
func (a *StatsAccumulator) Restore(s Stats) {
	a.mu.Lock()
	defer a.mu.Unlock()
	device := a.stats.Device
	a.stats = s
	a.stats.Device = device
}

func (a *StatsAccumulator) AddReceived() {
	a.mu.Lock()
	a.stats.Received++
	a.mu.Unlock()
}

func (a *StatsAccumulator) AddOverflow() {
	a.mu.Lock()
	a.stats.Overflows++
	a.mu.Unlock()
}

func (a *StatsAccumulator) AddError() {
	a.mu.Lock()
	a.stats.Errors++
	a.mu.Unlock()
}

func (a *StatsAccumulator) AddPacket(p *decoder.Packet, ts time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats.Decoded++
	if p.IsDuplicate {
		a.stats.Duplicates++
	}
	a.stats.Lost += uint64(p.LostPackets)
	tick := p.Tick
	a.stats.LastTick = &tick
	a.stats.LastSeen = ts

	if len(a.minDelays) < StatsWindow {
		a.minDelays = append(a.minDelays, p.MinSamplingDelay)
		a.maxDelays = append(a.maxDelays, p.MaxSamplingDelay)
	} else {
		a.minDelays[a.next] = p.MinSamplingDelay
		a.maxDelays[a.next] = p.MaxSamplingDelay
	}
	a.next = (a.next + 1) % StatsWindow
}

func (a *StatsAccumulator) Snapshot() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	if a.stats.LastTick != nil {
		tick := *a.stats.LastTick
		s.LastTick = &tick
	}
	if len(a.minDelays) > 0 {
		s.MeanMinDelay = stat.Mean(a.minDelays, nil)
		s.MeanMaxDelay = stat.Mean(a.maxDelays, nil)
	}
	return s
}
