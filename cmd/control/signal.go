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
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-m72/pkg/command"
	"jinr.ru/greenlab/go-m72/pkg/config"
)

const (
	KindOptionName    = "kind"
	TimeoutOptionName = "timeout"
)

func NewSignalCommand(cfg *config.Config) *cobra.Command {
	var ch int
	var kind string
	var code, timeout uint32
	cmd := &cobra.Command{
		Use:       "signal set|clear|wait",
		Short:     "Install, remove or wait for a channel signal",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"set", "clear", "wait"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			switch args[0] {
			case "set":
				return apiClient.SignalInstall(ch, kind, code)
			case "clear":
				return apiClient.SignalRemove(ch, kind)
			case "wait":
				if err := apiClient.SignalWait(ch, kind, timeout); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "channel %d: %s\n", ch, kind)
				return nil
			default:
				return errors.New("Wrong signal command. Must be one of set/clear/wait")
			}
		},
	}
	addChFlag(cmd, &ch)
	cmd.Flags().StringVar(&kind, KindOptionName, "", "Signal kind: ready, comp, cybw, lbreak or xin2")
	cmd.MarkFlagRequired(KindOptionName)
	cmd.Flags().Uint32Var(&code, CodeOptionName, 1, "Signal code to install")
	cmd.Flags().Uint32Var(&timeout, TimeoutOptionName, 0, "Wait timeout in milliseconds, 0 waits forever")
	return cmd
}
