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

package control

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"jinr.ru/greenlab/go-m72/pkg/command"
	"jinr.ru/greenlab/go-m72/pkg/config"
	"jinr.ru/greenlab/go-m72/pkg/device"
)

func NewStatCommand(cfg *config.Config) *cobra.Command {
	var ch int
	cmd := &cobra.Command{
		Use:   "stat",
		Short: "Get and set status codes of a channel",
	}
	addChFlag(cmd, &ch)
	cmd.AddCommand(newStatGetCommand(cfg, &ch))
	cmd.AddCommand(newStatSetCommand(cfg, &ch))
	cmd.AddCommand(newStatDumpCommand(cfg, &ch))
	return cmd
}

func codeHelp() string {
	return fmt.Sprintf("Status code name or number. One of: %s", strings.Join(device.StatNames(), ", "))
}

func newStatGetCommand(cfg *config.Config, ch *int) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read a status code",
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := command.NewApiClient(cfg).StatGet(*ch, code)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %d (0x%x)\n", code, value, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&code, CodeOptionName, "", codeHelp())
	cmd.MarkFlagRequired(CodeOptionName)
	return cmd
}

func newStatSetCommand(cfg *config.Config, ch *int) *cobra.Command {
	var code string
	var value uint32
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set a status code",
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.NewApiClient(cfg).StatSet(*ch, code, value)
		},
	}
	cmd.Flags().StringVar(&code, CodeOptionName, "", codeHelp())
	cmd.MarkFlagRequired(CodeOptionName)
	cmd.Flags().Uint32Var(&value, ValueOptionName, 0, "Value")
	cmd.MarkFlagRequired(ValueOptionName)
	return cmd
}

func newStatDumpCommand(cfg *config.Config, ch *int) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print every readable status code as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := command.NewApiClient(cfg).StatDump(*ch)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(snap)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
