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
	"context"

	"jinr.ru/greenlab/go-m72/pkg/device"
)

type ControlServer interface {
	Run() error

	Info() device.Info
	GetStat(ch int, code device.StatCode) (uint32, error)
	SetStat(ch int, code device.StatCode, value uint32) error
	Snapshot(ch int) (map[string]uint32, error)
	ReadCounter(ctx context.Context, ch int) (uint32, error)
	WriteCounter(ch int, value uint32) error
	InstallSignal(ch int, kind device.SignalKind, code uint32) error
	RemoveSignal(ch int, kind device.SignalKind) error
	WaitSignal(ctx context.Context, ch int, kind device.SignalKind) error
	Pretrigger() (enabled bool, offset uint32)
	SetPretrigger(enabled *bool, offset *uint32) error
	RegRead(addr uint16) (uint16, error)
	RegReadAll() (map[uint16]uint16, error)
}

type ApiServer interface {
	Run() error
}
