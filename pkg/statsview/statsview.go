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

// Package statsview serves runtime statistics of the server process.
//
// After launch the charts are at http://<addr>/debug/statsview and the
// standard pprof endpoints at http://<addr>/debug/pprof/.
package statsview

import (
	"github.com/go-echarts/statsview"
	"github.com/go-echarts/statsview/viewer"

	"jinr.ru/greenlab/go-m72/pkg/log"
)

const Path = "/debug/statsview"

// Launch starts the statistics server in a new goroutine
func Launch(addr string) {
	go func() {
		viewer.SetConfiguration(viewer.WithAddr(addr))
		mgr := statsview.New()
		mgr.Start()
	}()
	log.Info("Stats server available at http://%s%s", addr, Path)
}
