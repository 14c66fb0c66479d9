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
	"os"
	"os/signal"
	"syscall"

	"jinr.ru/greenlab/go-m72/pkg/config"
	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/srv/control"
	"jinr.ru/greenlab/go-m72/pkg/statsview"
)

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// StartControlServer runs until interrupted. A non empty statsAddr also
// serves runtime statistics there.
func StartControlServer(cfg *config.Config, statsAddr string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if statsAddr != "" {
		statsview.Launch(statsAddr)
	}

	s, err := control.NewControlServer(ctx, cfg)
	if err != nil {
		return err
	}
	err = s.Run()
	if ctx.Err() != nil {
		log.Info("Control server stopped")
		return nil
	}
	return err
}
