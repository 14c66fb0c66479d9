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
	"sync/atomic"

	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// Pretrigger channel roles
const (
	PretrigRef    = 0 // free running reference, latched and cleared on xIN2
	PretrigSlaveB = 1 // output 4 goes high when it reaches zero
	PretrigSlaveC = 2 // output 4 goes low when it reaches zero

	// PretrigMinOffset is the smallest offset in timer ticks
	PretrigMinOffset = 25
	// PretrigParked is loaded into both slaves when the pretrigger stops
	PretrigParked uint32 = 0x7fffffff
)

// pretrigger is written by configuration calls without masking the line and
// read by the handler on the next edge. Each field is a single word, so a
// reader sees either the old or the new value and the handler applies it
// to both slaves within one edge.
//
// armed is owned by the state machine: set by the arm sequence, cleared by
// the handler when it tears the waveform down.
type pretrigger struct {
	enabled atomic.Bool
	offset  atomic.Uint32
	armed   atomic.Bool
}

// SetPretriggerOffset sets the distance of the output pulse before the
// reference edge. Values below PretrigMinOffset are raised to it.
func (d *Device) SetPretriggerOffset(ticks uint32) {
	if ticks < PretrigMinOffset {
		ticks = PretrigMinOffset
	}
	d.pretrig.offset.Store(ticks)
}

func (d *Device) PretriggerOffset() uint32 {
	return d.pretrig.offset.Load()
}

func (d *Device) PretriggerEnabled() bool {
	return d.pretrig.enabled.Load()
}

// PretriggerArmed reports whether the waveform is running or waiting for
// the edge that stops it
func (d *Device) PretriggerArmed() bool {
	return d.pretrig.armed.Load()
}

// SetPretrigger starts the pretrigger synchronously. Stopping only records
// the request; the next interrupt edge parks the slaves and switches the
// reference interrupt off, so the output never shows half an update.
func (d *Device) SetPretrigger(on bool) error {
	if err := d.alive(); err != nil {
		return err
	}
	d.pretrig.enabled.Store(on)
	if !on {
		log.Info("%s: pretrigger off requested", d.Name)
		return nil
	}
	log.Info("%s: pretrigger on, offset %d", d.Name, d.PretriggerOffset())
	d.armPretrigger()
	return nil
}

// armPretrigger programs the reference and both slave channels and routes
// the slaves to output 4
func (d *Device) armPretrigger() {
	ref := d.ch[PretrigRef]
	d.write32(ref.reg(registers.RegPreloadLow), ref.reg(registers.RegPreloadHigh), 0)
	ref.compA = 0xffffffff
	d.regs.Write16(ref.reg(registers.RegCompAHigh), 0xffff)
	d.regs.Write16(ref.reg(registers.RegCompALow), 0xffff)
	// output 1 high keeps the reference counting up
	d.outSet = 0x1
	d.regs.Write16(registers.RegOutConfig, d.outSet)
	ref.countCtrl = registers.CountCtrl(0).
		WithClear(registers.LoadXin2).
		WithStore(registers.StoreXin2).
		WithTimerStart(registers.TimerNow).
		WithMode(registers.ModeTimer)
	d.writeCountCtrl(ref)

	for _, n := range []int{PretrigSlaveB, PretrigSlaveC} {
		c := d.ch[n]
		c.compA = 0
		d.write32(c.reg(registers.RegCompALow), c.reg(registers.RegCompAHigh), 0)
		// comparator equal stays internal, the channel enable is off
		d.updateIrqCtrl(c, func(registers.IrqCtrl) registers.IrqCtrl {
			return registers.IrqCtrl(0).WithComp(registers.CompEqual)
		})
		c.countCtrl = registers.CountCtrl(0).
			WithPreload(registers.LoadXin2).
			WithTimerStart(registers.TimerXin2).
			WithMode(registers.ModeTimer)
		d.writeCountCtrl(c)
	}

	out := registers.OutConfig(4, PretrigSlaveB, registers.OutHigh) |
		registers.OutConfig(4, PretrigSlaveC, registers.OutLow)
	d.setOutMode(out)

	d.pretrig.armed.Store(true)
	d.updateIrqCtrl(ref, func(w registers.IrqCtrl) registers.IrqCtrl {
		return w.WithEnabled(true)
	})
	d.updateIrqCtrl(ref, func(w registers.IrqCtrl) registers.IrqCtrl {
		return w.WithXin2(true)
	})
}

// PretrigPreloads returns the slave preload values for a reference count.
// The subtraction wraps like the hardware counters do.
func PretrigPreloads(v, offset uint32) (uint32, uint32) {
	return v - offset, v/2 - offset
}

// pretrigEdge runs in the handler on every edge claimed by the device
func (d *Device) pretrigEdge() {
	if !d.pretrig.armed.Load() {
		return
	}
	ref := d.ch[PretrigRef]
	lo := d.regs.Read16(ref.reg(registers.RegCountLow))
	hi := d.regs.Read16(ref.reg(registers.RegCountHigh))
	v := uint32(lo) | uint32(hi)<<16

	var b, c uint32
	if d.pretrig.enabled.Load() {
		b, c = PretrigPreloads(v, d.pretrig.offset.Load())
	} else {
		b, c = PretrigParked, PretrigParked
		ref.irqCtrl = ref.irqCtrl.WithXin2(false)
		d.regs.Write16(ref.reg(registers.RegIrqCtrl), uint16(ref.irqCtrl))
		ref.irqCtrl = ref.irqCtrl.WithEnabled(false)
		ref.pending = 0
		d.regs.Write16(ref.reg(registers.RegIrqCtrl), uint16(ref.irqCtrl))
		d.pretrig.armed.Store(false)
	}

	sb, sc := d.ch[PretrigSlaveB], d.ch[PretrigSlaveC]
	d.write32(sb.reg(registers.RegPreloadLow), sb.reg(registers.RegPreloadHigh), b)
	d.write32(sc.reg(registers.RegPreloadLow), sc.reg(registers.RegPreloadHigh), c)
	log.Debug("%s: pretrigger ref 0x%08x slaves 0x%08x 0x%08x", d.Name, v, b, c)
}
