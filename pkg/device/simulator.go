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

package device

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/google/gopacket"

	"github.com/prototypefund/runde15-psylink/pkg/layers"
	"github.com/prototypefund/runde15-psylink/pkg/log"
	"github.com/prototypefund/runde15-psylink/pkg/srv/stream"
)

const (
	DefaultTimesteps = 25
	// DefaultDelay is min code 1, max code 5, as seen on real hardware
	DefaultDelay = 0x15
	// MaxDropsInRow keeps the gap between two emitted ticks below one counter wrap
	MaxDropsInRow = 200
)

type SimulatorConfig struct {
	Channels      int
	Timesteps     int
	Delay         uint8
	DropRate      float64
	DuplicateRate float64
	Seed          int64
}

// ErrInvalidSimulator ...
type ErrInvalidSimulator struct {
	What string
}

func (e ErrInvalidSimulator) Error() string {
	return "Invalid simulator config: " + e.What
}

func (c *SimulatorConfig) Validate() error {
	switch {
	case c.Channels <= 0:
		return ErrInvalidSimulator{What: "channel count must be positive"}
	case c.Timesteps < 0:
		return ErrInvalidSimulator{What: "timesteps must not be negative"}
	case layers.HeaderLen+c.Channels*c.Timesteps > layers.MaxPayloadLen:
		return ErrInvalidSimulator{What: "payload does not fit into one packet"}
	case c.DropRate < 0 || c.DropRate >= 1:
		return ErrInvalidSimulator{What: "drop rate must be in [0, 1)"}
	case c.DuplicateRate < 0 || c.DuplicateRate >= 1:
		return ErrInvalidSimulator{What: "duplicate rate must be in [0, 1)"}
	}
	return nil
}

// Simulator produces PsyLink payloads the way the firmware does. Samples are
// sine waves with noise, one frequency per channel. The sequence of payloads
// only depends on the config, so a seed reproduces a run.
type Simulator struct {
	SimulatorConfig
	rng        *rand.Rand
	started    bool
	tick       uint8
	step       int
	last       []byte
	emitted    int
	dropped    int
	duplicated int
}

func NewSimulator(cfg SimulatorConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		SimulatorConfig: cfg,
		rng:             rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Next returns the next payload. A duplicate repeats the previous payload,
// dropped ticks are skipped without being emitted.
func (s *Simulator) Next() []byte {
	s.emitted++
	if s.started && s.rng.Float64() < s.DuplicateRate {
		s.duplicated++
		return append([]byte(nil), s.last...)
	}

	if s.started {
		s.tick++
		for i := 0; i < MaxDropsInRow && s.rng.Float64() < s.DropRate; i++ {
			s.tick++
			s.dropped++
		}
	}
	s.started = true

	pl := &layers.PsyLinkLayer{
		Tick:          s.tick,
		Delay:         s.Delay,
		Gyroscope:     [3]uint8{s.motion(0), s.motion(1), s.motion(2)},
		Accelerometer: [3]uint8{s.motion(3), s.motion(4), s.motion(5)},
	}
	pl.Payload = layers.Interleave(s.samples())

	buf := gopacket.NewSerializeBuffer()
	if err := pl.SerializeTo(buf, gopacket.SerializeOptions{}); err != nil {
		// a plain serialize buffer never fails to grow
		panic(err)
	}
	s.last = buf.Bytes()
	return append([]byte(nil), s.last...)
}

func (s *Simulator) samples() [][]byte {
	channels := make([][]byte, s.Channels)
	for ch := range channels {
		channels[ch] = make([]byte, s.Timesteps)
		freq := 0.01 * float64(ch+1)
		for i := range channels[ch] {
			value := 127 + 80*math.Sin(2*math.Pi*freq*float64(s.step+i)) + s.rng.NormFloat64()*8
			channels[ch][i] = clamp(value)
		}
	}
	s.step += s.Timesteps
	return channels
}

func (s *Simulator) motion(axis int) uint8 {
	return clamp(127 + 40*math.Sin(float64(s.step)/200+float64(axis)))
}

func clamp(v float64) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(math.Round(v))
}

func (s *Simulator) Emitted() int {
	return s.emitted
}

// Dropped returns the number of ticks skipped so far
func (s *Simulator) Dropped() int {
	return s.dropped
}

func (s *Simulator) Duplicated() int {
	return s.duplicated
}

// Run writes one payload per interval to w until the context is done or count
// payloads were written. Zero count means no limit.
func (s *Simulator) Run(ctx context.Context, w io.Writer, interval time.Duration, count int) error {
	if interval <= 0 {
		return ErrInvalidSimulator{What: fmt.Sprintf("interval must be positive: %s", interval)}
	}
	log.Info("Starting simulator: channels: %d timesteps: %d interval: %s", s.Channels, s.Timesteps, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for count == 0 || s.emitted < count {
		if _, err := w.Write(s.Next()); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	log.Info("Simulator finished: emitted: %d dropped: %d duplicated: %d", s.emitted, s.dropped, s.duplicated)
	return nil
}

// FrameWriter length-prefixes every payload for the serial bridge
type FrameWriter struct {
	io.Writer
}

func (f FrameWriter) Write(p []byte) (int, error) {
	if err := stream.WriteFrame(f.Writer, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
