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

package sim

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-m72/pkg/command"
	"jinr.ru/greenlab/go-m72/pkg/config"
)

const (
	AddrOptionName       = "addr"
	EdgeChOptionName     = "edge-ch"
	EdgePeriodOptionName = "edge-period"
)

func NewCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Simulated M72 module",
	}
	cmd.AddCommand(NewServeCommand(cfg))
	return cmd
}

func NewServeCommand(cfg *config.Config) *cobra.Command {
	var addr string
	var edgeCh, edgePeriod int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a simulated register file over MLink/UDP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.SimAddr = addr
			}
			return command.StartSimServer(cfg, edgeCh, time.Duration(edgePeriod)*time.Millisecond)
		},
	}
	cmd.Flags().StringVar(&addr, AddrOptionName, "", fmt.Sprintf("Address to bind. E.g. %s", config.DefaultSimAddr))
	cmd.Flags().IntVar(&edgeCh, EdgeChOptionName, 0, "Channel receiving simulated xIN2 edges")
	cmd.Flags().IntVar(&edgePeriod, EdgePeriodOptionName, 0, "xIN2 edge period in milliseconds, 0 disables")
	return cmd
}
