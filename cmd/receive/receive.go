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

package receive

import (
	"context"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dlt/pkg/config"
	"jinr.ru/greenlab/go-dlt/pkg/dlt"
	"jinr.ru/greenlab/go-dlt/pkg/log"
	"jinr.ru/greenlab/go-dlt/pkg/service"
	"jinr.ru/greenlab/go-dlt/pkg/srv"
	"jinr.ru/greenlab/go-dlt/pkg/stats"
)

const (
	AddressOptionName = "address"
	PortOptionName    = "port"
)

// NewCommand creates the command that listens for wire-format DLT on
// UDP and serves the accumulated statistics over HTTP
func NewCommand(cfg *config.Config) *cobra.Command {
	var address string
	var port int
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Receive DLT messages over UDP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.ReceiveConfig.Address = address
			}
			if port != 0 {
				cfg.ReceiveConfig.Port = port
			}

			ctx := context.Background()
			receiver, err := srv.NewReceiveServer(ctx, cfg)
			if err != nil {
				return err
			}

			var store *stats.Store
			if cfg.DBPath != "" {
				if store, err = stats.NewStore(cfg.DBPath); err != nil {
					return err
				}
				defer store.Close()
			}
			api, err := srv.NewApiServer(ctx, cfg, receiver, store)
			if err != nil {
				return err
			}

			go func() {
				for message := range receiver.Messages {
					extended := message.Extended
					if extended == nil {
						continue
					}
					if message.Payload.Kind == dlt.PayloadControl {
						if info, ok := service.Lookup(message.Payload.ServiceID); ok {
							log.Debug("control message received: app=%s service=%s", extended.ApplicationID, info.Name)
							continue
						}
					}
					log.Debug("message received: app=%s ctx=%s", extended.ApplicationID, extended.ContextID)
				}
			}()
			go api.Run()

			return receiver.Run()
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", "Address to bind. E.g. 0.0.0.0")
	cmd.Flags().IntVar(&port, PortOptionName, 0, "Port number to bind. E.g. 3490")
	return cmd
}
