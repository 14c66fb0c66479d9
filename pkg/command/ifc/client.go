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

package ifc

import (
	"jinr.ru/greenlab/go-m72/pkg/device"
)

type ApiClient interface {
	Info() (*device.Info, error)
	StatGet(ch int, code string) (uint32, error)
	StatSet(ch int, code string, value uint32) error
	StatDump(ch int) (map[string]uint32, error)
	CounterRead(ch int) (uint32, error)
	CounterWrite(ch int, value uint32) error
	SignalInstall(ch int, kind string, code uint32) error
	SignalRemove(ch int, kind string) error
	SignalWait(ch int, kind string, timeoutMs uint32) error
	Pretrig() (enabled bool, offset uint32, err error)
	PretrigSet(enabled *bool, offset *uint32) error
	RegRead(addr string) (string, error)
	RegReadAll() (map[string]string, error)
}
