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

package stats

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dlt/pkg/command"
	"jinr.ru/greenlab/go-dlt/pkg/config"
	pkgstats "jinr.ru/greenlab/go-dlt/pkg/stats"
)

const (
	NoCacheOptionName = "no-cache"
	RemoteOptionName  = "remote"
)

// NewCommand creates the command that gathers statistics for a DLT file
// without materializing records. Results are cached in the statistics
// database; --remote queries a running receive server instead.
func NewCommand(cfg *config.Config) *cobra.Command {
	var noCache bool
	var remote bool
	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Gather statistics about a DLT file or a running receiver",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")

			if remote {
				client := command.NewApiClient(cfg)
				info, err := client.LiveStatistics()
				if err != nil {
					return err
				}
				return encoder.Encode(info)
			}

			if len(args) == 0 {
				return fmt.Errorf("a file argument is required unless --remote is given")
			}
			path := args[0]
			var store *pkgstats.Store
			if !noCache && cfg.DBPath != "" {
				if s, err := pkgstats.NewStore(cfg.DBPath); err == nil {
					store = s
					defer store.Close()
				}
			}
			if store != nil {
				if info, err := store.Get(path); err == nil && info != nil {
					return encoder.Encode(info)
				}
			}
			info, err := pkgstats.CollectFile(path)
			if err != nil {
				return err
			}
			if store != nil {
				if err := store.Put(path, info); err != nil {
					return err
				}
			}
			return encoder.Encode(info)
		},
	}
	cmd.Flags().BoolVar(&noCache, NoCacheOptionName, false, "Do not use the statistics cache")
	cmd.Flags().BoolVar(&remote, RemoteOptionName, false, "Query a running receive server")
	return cmd
}
