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
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prototypefund/runde15-psylink/pkg/config"
	"github.com/prototypefund/runde15-psylink/pkg/log"
	"github.com/prototypefund/runde15-psylink/pkg/srv/stream"
)

const (
	AddressOptionName    = "address"
	ApiAddressOptionName = "api-address"
	DBPathOptionName     = "db-path"
)

func NewServeCommand(cfg *config.Config) *cobra.Command {
	var address, apiAddress, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start stream server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.Address = address
			}
			if apiAddress != "" {
				cfg.ApiAddress = apiAddress
			}
			if dbPath != "" {
				cfg.StreamConfig.DBPath = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			server, err := stream.NewStreamServer(ctx, cfg)
			if err != nil {
				return err
			}
			err = server.Run()
			if errors.Is(err, context.Canceled) {
				log.Info("Stream server stopped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", fmt.Sprintf("UDP address to bind. E.g. %s", config.DefaultStreamAddress))
	cmd.Flags().StringVar(&apiAddress, ApiAddressOptionName, "", fmt.Sprintf("API address to bind. E.g. %s", config.DefaultApiAddress))
	cmd.Flags().StringVar(&dbPath, DBPathOptionName, "", "State database file")
	return cmd
}
