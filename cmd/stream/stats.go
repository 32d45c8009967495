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
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/prototypefund/runde15-psylink/pkg/command"
	"github.com/prototypefund/runde15-psylink/pkg/config"
)

const (
	PersistedOptionName = "persisted"
)

func NewStatsCommand(cfg *config.Config) *cobra.Command {
	var persisted bool
	cmd := &cobra.Command{
		Use:   "stats [device]",
		Short: "Show stream statistics of one or all devices",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			var result interface{}
			if persisted {
				if len(args) == 1 {
					return fmt.Errorf("--%s shows all devices, no device argument expected", PersistedOptionName)
				}
				stats, err := apiClient.PersistedStats()
				if err != nil {
					return err
				}
				result = stats
			} else if len(args) == 1 {
				stats, err := apiClient.Stats(args[0])
				if err != nil {
					return err
				}
				result = stats
			} else {
				stats, err := apiClient.AllStats()
				if err != nil {
					return err
				}
				result = stats
			}
			data, err := yaml.Marshal(result)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&persisted, PersistedOptionName, false, "Show stats from the state database, including devices no longer configured")
	return cmd
}
