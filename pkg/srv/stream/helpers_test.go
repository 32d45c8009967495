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
	"path/filepath"
	"testing"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/layers"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.SetPath(filepath.Join(t.TempDir(), config.ConfigFile))
	cfg.Address = "127.0.0.1:0"
	cfg.ApiAddress = "127.0.0.1:0"
	cfg.QueueSize = 16
	cfg.Devices = []*config.Device{
		{Name: "psylink0", IP: "127.0.0.1", Channels: 2, Gyroscope: true},
		{Name: "psylink1", IP: "10.255.0.1", Channels: 4, Accelerometer: true},
	}
	return cfg
}

// testPayload builds a payload with two timesteps for a 2 channel device
func testPayload(tick uint8) []byte {
	pl := &layers.PsyLinkLayer{
		Tick:          tick,
		Delay:         0x15,
		Gyroscope:     [3]uint8{1, 2, 3},
		Accelerometer: [3]uint8{4, 5, 6},
	}
	data := make([]byte, 0, layers.HeaderLen+4)
	data = append(data, pl.Tick, pl.Delay)
	motion := pl.Motion()
	data = append(data, motion[:]...)
	return append(data, layers.Interleave([][]byte{{10, 11}, {20, 21}})...)
}
