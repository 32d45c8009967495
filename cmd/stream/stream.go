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
	"github.com/spf13/cobra"

	"github.com/prototypefund/runde15-psylink/pkg/config"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Receive PsyLink streams and query the stream server",
	}
	cmd.AddCommand(NewServeCommand(cfg))
	cmd.AddCommand(NewStatsCommand(cfg))
	cmd.AddCommand(NewResetCommand(cfg))
	return cmd
}
