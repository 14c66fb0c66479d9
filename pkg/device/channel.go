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

package device

import (
	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// Channel is the software side of one counter channel. The count control
// and interrupt control words are the source of truth for every field they
// hold; the hardware registers are written from them and nothing else.
//
// irqCtrl, pending, readMode, readTimeout and signals are shared with the
// interrupt handler or with waiting readers and are only touched with the
// line masked.
type Channel struct {
	n int

	// the preload value lives only in the preload register

	countCtrl registers.CountCtrl
	irqCtrl   registers.IrqCtrl

	compA uint32
	compB uint32

	pending uint8

	readMode    registers.ReadMode
	readTimeout uint32
	writeMode   registers.WriteMode

	signals [NumSignalKinds]ifc.Signal
	ready   *semaphore
}

func newChannel(n int) *Channel {
	return &Channel{
		n:           n,
		readMode:    registers.ReadNow,
		readTimeout: registers.ReadTimeoutForever,
		writeMode:   registers.WriteNow,
		ready:       newSemaphore(),
	}
}

func (c *Channel) Mode() registers.Mode {
	return c.countCtrl.Mode()
}

func (c *Channel) PreloadCond() registers.LoadCond {
	return c.countCtrl.Preload()
}

func (c *Channel) ClearCond() registers.LoadCond {
	return c.countCtrl.Clear()
}

func (c *Channel) StoreCond() registers.StoreCond {
	return c.countCtrl.Store()
}

func (c *Channel) TimerStart() registers.TimerStart {
	return c.countCtrl.TimerStart()
}

func (c *Channel) IrqEnabled() bool {
	return c.irqCtrl.Enabled()
}

func (c *Channel) CountCtrl() registers.CountCtrl {
	return c.countCtrl
}

func (c *Channel) IrqCtrl() registers.IrqCtrl {
	return c.irqCtrl
}

func (c *Channel) reg(alias registers.RegAlias) uint16 {
	return registers.ChReg(c.n, alias)
}
