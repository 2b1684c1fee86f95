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

package fibex

import (
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-dlt/pkg/config"
	pkgfibex "jinr.ru/greenlab/go-dlt/pkg/fibex"
)

// NewCommand creates the command that loads FIBEX files and dumps the
// frames of the combined model
func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fibex [file...]",
		Short: "Show the frames described by FIBEX files",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := args
			if len(paths) == 0 {
				paths = cfg.FibexFilePaths
			}
			if len(paths) == 0 {
				return fmt.Errorf("no fibex files given and none configured")
			}
			metadata, err := pkgfibex.ReadFibexFiles(paths)
			if err != nil {
				return err
			}
			for _, frame := range metadata.Frames() {
				signals := 0
				for _, pdu := range frame.Pdus {
					signals += len(pdu.SignalTypes)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s app=%s ctx=%s pdus=%d signals=%d\n",
					frame.ShortName, frame.ApplicationID, frame.ContextID, len(frame.Pdus), signals)
			}
			return nil
		},
	}
	return cmd
}
