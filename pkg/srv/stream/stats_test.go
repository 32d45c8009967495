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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prototypefund/runde15-psylink/pkg/decoder"
)

func TestStatsAccumulator(t *testing.T) {
	a := NewStatsAccumulator("dev")
	now := time.Now()

	a.AddReceived()
	a.AddReceived()
	a.AddReceived()
	a.AddError()
	a.AddOverflow()
	a.AddPacket(&decoder.Packet{Tick: 5, MinSamplingDelay: 100, MaxSamplingDelay: 300}, now)
	a.AddPacket(&decoder.Packet{Tick: 8, LostPackets: 2, MinSamplingDelay: 200, MaxSamplingDelay: 500}, now)
	a.AddPacket(&decoder.Packet{Tick: 8, IsDuplicate: true, MinSamplingDelay: 300, MaxSamplingDelay: 700}, now)

	s := a.Snapshot()
	assert.Equal(t, "dev", s.Device)
	assert.Equal(t, uint64(3), s.Received)
	assert.Equal(t, uint64(3), s.Decoded)
	assert.Equal(t, uint64(1), s.Errors)
	assert.Equal(t, uint64(1), s.Overflows)
	assert.Equal(t, uint64(1), s.Duplicates)
	assert.Equal(t, uint64(2), s.Lost)
	require.NotNil(t, s.LastTick)
	assert.Equal(t, uint8(8), *s.LastTick)
	assert.Equal(t, now, s.LastSeen)
	assert.InDelta(t, 200.0, s.MeanMinDelay, 1e-9)
	assert.InDelta(t, 500.0, s.MeanMaxDelay, 1e-9)
	assert.InDelta(t, 0.5, s.LossRatio(), 1e-9)
}

func TestStatsWindow(t *testing.T) {
	a := NewStatsAccumulator("dev")
	for i := 0; i < StatsWindow; i++ {
		a.AddPacket(&decoder.Packet{MinSamplingDelay: 1, MaxSamplingDelay: 1}, time.Now())
	}
	for i := 0; i < StatsWindow; i++ {
		a.AddPacket(&decoder.Packet{MinSamplingDelay: 3, MaxSamplingDelay: 5}, time.Now())
	}
	s := a.Snapshot()
	assert.InDelta(t, 3.0, s.MeanMinDelay, 1e-9)
	assert.InDelta(t, 5.0, s.MeanMaxDelay, 1e-9)
	assert.Equal(t, uint64(2*StatsWindow), s.Decoded)
}

func TestStatsSnapshotIsACopy(t *testing.T) {
	a := NewStatsAccumulator("dev")
	a.AddPacket(&decoder.Packet{Tick: 1}, time.Now())
	s := a.Snapshot()
	a.AddPacket(&decoder.Packet{Tick: 2}, time.Now())
	assert.Equal(t, uint8(1), *s.LastTick)
}

func TestStatsRestore(t *testing.T) {
	a := NewStatsAccumulator("dev")
	a.Restore(Stats{Device: "other", Decoded: 40, Lost: 2})
	a.AddPacket(&decoder.Packet{LostPackets: 1}, time.Now())
	s := a.Snapshot()
	assert.Equal(t, "dev", s.Device)
	assert.Equal(t, uint64(41), s.Decoded)
	assert.Equal(t, uint64(3), s.Lost)
}

func TestLossRatioEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Stats{}.LossRatio())
}
