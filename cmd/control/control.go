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
	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-m72/cmd/control/reg"
	"jinr.ru/greenlab/go-m72/pkg/config"
)

const (
	ChOptionName    = "ch"
	CodeOptionName  = "code"
	ValueOptionName = "value"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Run the control server and talk to it",
	}
	cmd.AddCommand(NewStartCommand(cfg))
	cmd.AddCommand(NewStatCommand(cfg))
	cmd.AddCommand(NewCounterCommand(cfg))
	cmd.AddCommand(NewSignalCommand(cfg))
	cmd.AddCommand(NewPretrigCommand(cfg))
	cmd.AddCommand(reg.NewCommand(cfg))
	return cmd
}

func addChFlag(cmd *cobra.Command, ch *int) {
	cmd.PersistentFlags().IntVar(ch, ChOptionName, 0, "Channel number 0..3")
}
