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
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/prototypefund/runde15-psylink/pkg/command"
	"github.com/prototypefund/runde15-psylink/pkg/config"
)

const (
	SampleOptionName = "sample"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Label movements and inspect recorded training data",
	}
	cmd.AddCommand(NewLabelCommand(cfg))
	cmd.AddCommand(NewShowCommand(cfg))
	return cmd
}

func NewLabelCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label <device> <label>",
		Short: "Record a datapoint at the current packet of a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := strconv.ParseUint(args[1], 10, 8)
			if err != nil {
				return fmt.Errorf("label must be in 0..255: %w", err)
			}
			datapoint, err := command.NewApiClient(cfg).Label(args[0], uint8(label))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Datapoint recorded: packet: %d label: %d\n", datapoint.PacketIndex, datapoint.Label)
			return nil
		},
	}
	return cmd
}

func NewShowCommand(cfg *config.Config) *cobra.Command {
	var sample int
	cmd := &cobra.Command{
		Use:   "show <device>",
		Short: "Show the dataset summary or one training sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			var result interface{}
			if sample >= 0 {
				trainingSample, err := apiClient.TrainingSample(args[0], sample)
				if err != nil {
					return err
				}
				result = trainingSample
			} else {
				summary, err := apiClient.Dataset(args[0])
				if err != nil {
					return err
				}
				result = summary
			}
			data, err := yaml.Marshal(result)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().IntVar(&sample, SampleOptionName, -1, "Show the training sample of the given datapoint")
	return cmd
}
