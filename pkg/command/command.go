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

package command

import (
	"context"
	"time"

	"jinr.ru/greenlab/go-m72/pkg/config"
	regsim "jinr.ru/greenlab/go-m72/pkg/regfile/sim"
	"jinr.ru/greenlab/go-m72/pkg/srv/control"
	"jinr.ru/greenlab/go-m72/pkg/srv/sim"
)

// StartSimServer serves a simulated module on the register protocol at
// cfg.Server.SimAddr until interrupted. A non zero edgePeriod feeds xIN2
// edges to channel edgeCh.
func StartSimServer(cfg *config.Config, edgeCh int, edgePeriod time.Duration) error {
	ctx, cancel := signalContext()
	defer cancel()

	model, _, err := control.NewSimModel(cfg.Device)
	if err != nil {
		return err
	}
	s, err := sim.NewServer(ctx, cfg.Server.SimAddr, model)
	if err != nil {
		return err
	}
	if edgePeriod > 0 {
		go feedEdges(ctx, model, edgeCh, edgePeriod)
	}
	err = s.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func feedEdges(ctx context.Context, model *regsim.Model, ch int, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			model.Edge(ch)
		}
	}
}
