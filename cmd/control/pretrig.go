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
	"os"
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-m72/pkg/command"
	"jinr.ru/greenlab/go-m72/pkg/config"
)

const (
	AutoOptionName   = "auto"
	PeriodOptionName = "period"
)

func NewPretrigCommand(cfg *config.Config) *cobra.Command {
	var value uint32
	var auto bool
	var period int
	cmd := &cobra.Command{
		Use:       "pretrig on|off|offset|toggle|show",
		Short:     "Control the pretrigger output",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off", "offset", "toggle", "show"},
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			switch args[0] {
			case "on", "off":
				enabled := args[0] == "on"
				return apiClient.PretrigSet(&enabled, nil)
			case "offset":
				if !cmd.Flags().Changed(ValueOptionName) {
					return fmt.Errorf("--%s is required", ValueOptionName)
				}
				return apiClient.PretrigSet(nil, &value)
			case "toggle":
				return command.TogglePretrig(apiClient, os.Stdin, cmd.OutOrStdout(),
					auto, time.Duration(period)*time.Millisecond)
			case "show":
				enabled, offset, err := apiClient.Pretrig()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "enabled: %t offset: %d\n", enabled, offset)
				return nil
			default:
				return errors.New("Wrong pretrigger command. Must be one of on/off/offset/toggle/show")
			}
		},
	}
	cmd.Flags().Uint32Var(&value, ValueOptionName, 0, "Offset in timer ticks")
	cmd.Flags().BoolVar(&auto, AutoOptionName, false, "Toggle every period instead of on key press")
	cmd.Flags().IntVar(&period, PeriodOptionName, command.DefaultTogglePeriod, "Auto toggle period in milliseconds")
	return cmd
}
