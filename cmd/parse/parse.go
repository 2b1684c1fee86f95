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

package parse

import (
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dlt/pkg/config"
	pkgfibex "jinr.ru/greenlab/go-dlt/pkg/fibex"
	"jinr.ru/greenlab/go-dlt/pkg/filtering"
	"jinr.ru/greenlab/go-dlt/pkg/log"
	pkgparse "jinr.ru/greenlab/go-dlt/pkg/parse"
)

const (
	FilterOptionName    = "filter"
	FibexOptionName     = "fibex"
	NoStorageOptionName = "no-storage-header"
)

// NewCommand creates the command that walks a DLT file message by
// message, resynchronizing over corrupt stretches
func NewCommand(cfg *config.Config) *cobra.Command {
	var filterPath string
	var fibexPaths []string
	var noStorageHeader bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a DLT file and report throughput",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if filterPath == "" {
				filterPath = cfg.FilterPath
			}
			if len(fibexPaths) == 0 {
				fibexPaths = cfg.FibexFilePaths
			}

			var filter *filtering.ProcessedFilterConfig
			if filterPath != "" {
				var filterConfig *filtering.FilterConfig
				var err error
				if strings.HasSuffix(filterPath, ".dlf") {
					filterConfig, err = filtering.ReadDlfFile(filterPath)
				} else {
					filterConfig, err = filtering.Load(filterPath)
				}
				if err != nil {
					return err
				}
				filter = filterConfig.Process()
			}
			var resolver pkgparse.Resolver
			if metadata := pkgfibex.GatherFibexData(pkgfibex.Config{FibexFilePaths: fibexPaths}); metadata != nil {
				resolver = metadata
			}

			content, err := ioutil.ReadFile(args[0])
			if err != nil {
				return err
			}

			var parsed, filtered, invalid, hickups uint64
			start := time.Now()
			rest := content
			for len(rest) > 0 {
				consumed, outcome, err := pkgparse.MessageWithResolver(rest, resolver, filter, !noStorageHeader)
				if err != nil {
					if pkgparse.IsIncomplete(err) {
						break
					}
					if pkgparse.IsHickup(err) {
						hickups++
						skip := pkgparse.ResyncQuantum
						if skip > len(rest) {
							skip = len(rest)
						}
						rest = rest[skip:]
						log.Debug("parse error, skipping %d bytes: %v", skip, err)
						continue
					}
					return err
				}
				switch outcome.Outcome {
				case pkgparse.OutcomeItem:
					parsed++
				case pkgparse.OutcomeFilteredOut:
					filtered++
				default:
					invalid++
				}
				rest = rest[consumed:]
			}

			elapsed := time.Since(start).Seconds()
			sizeMB := float64(len(content)) / 1024.0 / 1024.0
			fmt.Fprintf(cmd.OutOrStdout(),
				"parsed %d messages (%d filtered, %d invalid, %d hickups) in %.3fs (%.3f MB/s)\n",
				parsed, filtered, invalid, hickups, elapsed, sizeMB/elapsed)
			return nil
		},
	}
	cmd.Flags().StringVar(&filterPath, FilterOptionName, "", "Filter config file (YAML/JSON)")
	cmd.Flags().StringSliceVar(&fibexPaths, FibexOptionName, nil, "FIBEX files for non-verbose resolution")
	cmd.Flags().BoolVar(&noStorageHeader, NoStorageOptionName, false, "Input has no storage headers")
	return cmd
}
