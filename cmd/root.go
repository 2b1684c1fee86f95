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

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dlt/cmd/completion"
	cmdconfig "jinr.ru/greenlab/go-dlt/cmd/config"
	"jinr.ru/greenlab/go-dlt/cmd/count"
	"jinr.ru/greenlab/go-dlt/cmd/fibex"
	cmdparse "jinr.ru/greenlab/go-dlt/cmd/parse"
	"jinr.ru/greenlab/go-dlt/cmd/receive"
	"jinr.ru/greenlab/go-dlt/cmd/stats"
	pkgconfig "jinr.ru/greenlab/go-dlt/pkg/config"
	"jinr.ru/greenlab/go-dlt/pkg/log"
)

const (
	LogLevelOptionName = "log-level"
)

// NewRootCommand ...
func NewRootCommand(out io.Writer) *cobra.Command {
	var logLevel string
	cfg := pkgconfig.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "go-dlt",
		Short: "Tool to parse and inspect AUTOSAR DLT logs",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log.Init(cmd.ErrOrStderr(), cfg.LogLevel)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(cmdparse.NewCommand(cfg))
	cmd.AddCommand(stats.NewCommand(cfg))
	cmd.AddCommand(count.NewCommand(cfg))
	cmd.AddCommand(fibex.NewCommand(cfg))
	cmd.AddCommand(receive.NewCommand(cfg))
	cmd.AddCommand(cmdconfig.NewCommand(cfg))
	cmd.AddCommand(completion.NewCommand())
	cmd.PersistentFlags().StringVar(&logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	return cmd
}
