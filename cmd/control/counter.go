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
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-m72/pkg/command"
	"jinr.ru/greenlab/go-m72/pkg/config"
)

const (
	LoopOptionName  = "loop"
	DelayOptionName = "delay"
)

func NewCounterCommand(cfg *config.Config) *cobra.Command {
	var ch int
	cmd := &cobra.Command{
		Use:   "counter",
		Short: "Read and write the counter of a channel",
	}
	addChFlag(cmd, &ch)
	cmd.AddCommand(newCounterReadCommand(cfg, &ch))
	cmd.AddCommand(newCounterWriteCommand(cfg, &ch))
	return cmd
}

func newCounterReadCommand(cfg *config.Config, ch *int) *cobra.Command {
	var loop bool
	var delay int
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read the counter using the channel read mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			for {
				value, err := apiClient.CounterRead(*ch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "channel %d: %d (0x%08x)\n", *ch, value, value)
				if !loop {
					return nil
				}
				time.Sleep(time.Duration(delay) * time.Millisecond)
			}
		},
	}
	cmd.Flags().BoolVar(&loop, LoopOptionName, false, "Read until interrupted")
	cmd.Flags().IntVar(&delay, DelayOptionName, 0, "Delay between reads in milliseconds")
	return cmd
}

func newCounterWriteCommand(cfg *config.Config, ch *int) *cobra.Command {
	var value uint32
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the counter using the channel write mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			return command.NewApiClient(cfg).CounterWrite(*ch, value)
		},
	}
	cmd.Flags().Uint32Var(&value, ValueOptionName, 0, "Value")
	cmd.MarkFlagRequired(ValueOptionName)
	return cmd
}
