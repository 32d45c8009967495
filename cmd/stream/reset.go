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

	"github.com/prototypefund/runde15-psylink/pkg/command"
	"github.com/prototypefund/runde15-psylink/pkg/config"
)

func NewResetCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <device>",
		Short: "Make the decoder of a device forget the last tick",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := command.NewApiClient(cfg).Reset(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Decoder reset: %s\n", args[0])
			return nil
		},
	}
	return cmd
}
