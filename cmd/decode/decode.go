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

package decode

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/decoder"
	"github.com/prototypefund/runde15-psylink/pkg/log"
)

const (
	DeviceOptionName        = "device"
	ChannelsOptionName      = "channels"
	GyroscopeOptionName     = "gyroscope"
	AccelerometerOptionName = "accelerometer"
)

// NewCommand decodes hex payloads offline. All payloads go through one decoder
// in the given order, so lost packets are counted between them.
func NewCommand(cfg *config.Config) *cobra.Command {
	var deviceName string
	var channels int
	var gyroscope, accelerometer bool
	cmd := &cobra.Command{
		Use:   "decode <hex>...",
		Short: "Decode hex encoded PsyLink payloads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if deviceName != "" {
				device, err := cfg.GetDeviceByName(deviceName)
				if err != nil {
					return err
				}
				if !cmd.Flags().Changed(ChannelsOptionName) {
					channels = device.Channels
				}
				if !cmd.Flags().Changed(GyroscopeOptionName) {
					gyroscope = device.Gyroscope
				}
				if !cmd.Flags().Changed(AccelerometerOptionName) {
					accelerometer = device.Accelerometer
				}
			}

			d, err := decoder.New(channels)
			if err != nil {
				return err
			}
			var firstErr error
			failed := 0
			for i, arg := range args {
				packet, err := decodeArg(d, arg, gyroscope, accelerometer)
				if err != nil {
					// the packet is dropped, the decoder state is untouched
					log.Warning("Skip payload %d: %s", i, err)
					failed++
					if firstErr == nil {
						firstErr = fmt.Errorf("payload %d: %w", i, err)
					}
					continue
				}
				fmt.Fprint(cmd.OutOrStdout(), packet.String())
			}
			if firstErr != nil {
				return fmt.Errorf("%d of %d payloads failed, first: %w", failed, len(args), firstErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&deviceName, DeviceOptionName, "", "Take channel count and IMU flags from the configured device")
	cmd.Flags().IntVar(&channels, ChannelsOptionName, config.DefaultDeviceChannels, "Number of EMG channels")
	cmd.Flags().BoolVar(&gyroscope, GyroscopeOptionName, false, "Append gyroscope channels")
	cmd.Flags().BoolVar(&accelerometer, AccelerometerOptionName, false, "Append accelerometer channels")
	return cmd
}

func decodeArg(d *decoder.Decoder, arg string, gyroscope, accelerometer bool) (*decoder.Packet, error) {
	payload, err := hex.DecodeString(strings.TrimPrefix(strings.ReplaceAll(arg, ":", ""), "0x"))
	if err != nil {
		return nil, fmt.Errorf("not hex: %w", err)
	}
	return d.Decode(payload, gyroscope, accelerometer)
}
