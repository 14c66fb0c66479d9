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
	"net"

	"github.com/spf13/cobra"

	"jinr.ru/greenlab/go-m72/pkg/command"
	"jinr.ru/greenlab/go-m72/pkg/config"
)

const (
	IPOptionName    = "ip"
	SimOptionName   = "sim"
	UIOOptionName   = "uio"
	StatsOptionName = "stats"
)

func NewStartCommand(cfg *config.Config) *cobra.Command {
	var ip, uio, stats string
	var sim bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start control server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ip != "" {
				if net.ParseIP(ip) == nil {
					return fmt.Errorf("wrong IP %q", ip)
				}
				cfg.Server.IP = ip
			}
			if sim {
				cfg.Server.Backend = config.BackendSim
			}
			if uio != "" {
				cfg.Server.UIOPath = uio
			}
			return command.StartControlServer(cfg, stats)
		},
	}
	cmd.Flags().StringVar(&ip, IPOptionName, "", fmt.Sprintf("IP to bind. E.g. %s", config.DefaultIP))
	cmd.Flags().BoolVar(&sim, SimOptionName, false, "Use the simulated register file")
	cmd.Flags().StringVar(&uio, UIOOptionName, "", "UIO device delivering interrupts. E.g. /dev/uio0")
	cmd.Flags().StringVar(&stats, StatsOptionName, "", "Serve runtime statistics on this address. E.g. localhost:18066")

	return cmd
}
