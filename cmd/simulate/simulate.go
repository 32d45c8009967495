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

package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/device"
	"github.com/prototypefund/runde15-psylink/pkg/srv/stream"
)

const (
	TargetOptionName        = "target"
	SerialPortOptionName    = "serial-port"
	ChannelsOptionName      = "channels"
	TimestepsOptionName     = "timesteps"
	IntervalOptionName      = "interval"
	CountOptionName         = "count"
	DropRateOptionName      = "drop-rate"
	DuplicateRateOptionName = "duplicate-rate"
	SeedOptionName          = "seed"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	var target, serialPort string
	var interval time.Duration
	var count int
	simCfg := device.SimulatorConfig{Delay: device.DefaultDelay}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Emit synthetic PsyLink packets to a stream server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return device.ErrInvalidSimulator{What: fmt.Sprintf("--%s must be positive: %s", IntervalOptionName, interval)}
			}
			if !cmd.Flags().Changed(ChannelsOptionName) && len(cfg.Devices) > 0 {
				simCfg.Channels = cfg.Devices[0].Channels
			}
			sim, err := device.NewSimulator(simCfg)
			if err != nil {
				return err
			}

			var w io.WriteCloser
			if serialPort != "" {
				port, err := stream.OpenSerial(&config.Device{Name: "simulator", SerialPort: serialPort})
				if err != nil {
					return err
				}
				w = port
			} else {
				conn, err := net.Dial("udp", target)
				if err != nil {
					return err
				}
				w = conn
			}
			defer w.Close()

			var sink io.Writer = w
			if serialPort != "" {
				sink = device.FrameWriter{Writer: w}
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			err = sim.Run(ctx, sink, interval, count)
			fmt.Fprintf(cmd.OutOrStdout(), "Emitted: %d dropped: %d duplicated: %d\n", sim.Emitted(), sim.Dropped(), sim.Duplicated())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&target, TargetOptionName, config.DefaultDeviceIP+":33401", "UDP address of the stream server")
	cmd.Flags().StringVar(&serialPort, SerialPortOptionName, "", "Write framed packets to a serial port instead of UDP")
	cmd.Flags().IntVar(&simCfg.Channels, ChannelsOptionName, config.DefaultDeviceChannels, "Number of EMG channels")
	cmd.Flags().IntVar(&simCfg.Timesteps, TimestepsOptionName, device.DefaultTimesteps, "Samples per channel and packet")
	cmd.Flags().DurationVar(&interval, IntervalOptionName, config.DefaultSimulatorInterval, "Time between two packets")
	cmd.Flags().IntVar(&count, CountOptionName, 0, "Number of packets to emit, 0 means until interrupted")
	cmd.Flags().Float64Var(&simCfg.DropRate, DropRateOptionName, 0, "Probability to skip a tick")
	cmd.Flags().Float64Var(&simCfg.DuplicateRate, DuplicateRateOptionName, 0, "Probability to repeat the previous packet")
	cmd.Flags().Int64Var(&simCfg.Seed, SeedOptionName, 1, "Random seed")
	return cmd
}
