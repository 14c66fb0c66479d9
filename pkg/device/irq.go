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
	"fmt"

	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// updateIrqCtrl applies f to the interrupt control shadow and writes it,
// with the handler kept out
func (d *Device) updateIrqCtrl(c *Channel, f func(registers.IrqCtrl) registers.IrqCtrl) {
	d.line.Mask()
	c.irqCtrl = f(c.irqCtrl)
	if !c.irqCtrl.Enabled() {
		c.pending = 0
	}
	d.regs.Write16(c.reg(registers.RegIrqCtrl), uint16(c.irqCtrl))
	d.line.Restore()
}

// SetIrqEnabled is the channel master gate. Disabling it drops the pending
// shadow.
func (d *Device) SetIrqEnabled(ch int, on bool) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	d.updateIrqCtrl(c, func(w registers.IrqCtrl) registers.IrqCtrl {
		return w.WithEnabled(on)
	})
	return nil
}

func (d *Device) SetCompIrq(ch int, cond registers.CompIrq) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !cond.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("comparator irq condition %d", cond)}
	}
	d.updateIrqCtrl(c, func(w registers.IrqCtrl) registers.IrqCtrl {
		return w.WithComp(cond)
	})
	return nil
}

func (d *Device) SetCybwIrq(ch int, cond registers.CybwIrq) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !cond.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("carry/borrow irq condition %d", cond)}
	}
	d.updateIrqCtrl(c, func(w registers.IrqCtrl) registers.IrqCtrl {
		return w.WithCybw(cond)
	})
	return nil
}

func (d *Device) SetLbreakIrq(ch int, on bool) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	d.updateIrqCtrl(c, func(w registers.IrqCtrl) registers.IrqCtrl {
		return w.WithLbreak(on)
	})
	return nil
}

func (d *Device) SetXin2Irq(ch int, on bool) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	d.updateIrqCtrl(c, func(w registers.IrqCtrl) registers.IrqCtrl {
		return w.WithXin2(on)
	})
	return nil
}

// irqCtrlOf reads the shadow under the mask
func (d *Device) irqCtrlOf(c *Channel) registers.IrqCtrl {
	d.line.Mask()
	defer d.line.Restore()
	return c.irqCtrl
}

// IntStatus returns the five status bits of a channel. With the channel
// interrupt disabled the hardware pending register is polled instead of the
// shadow, and events between two polls can be missed.
func (d *Device) IntStatus(ch int) (uint8, error) {
	c, err := d.channel(ch)
	if err != nil {
		return 0, err
	}
	d.line.Mask()
	defer d.line.Restore()
	if c.irqCtrl.Enabled() {
		return c.pending, nil
	}
	reg, shift := registers.IrqStateReg(ch)
	return uint8(d.regs.Read16(reg)>>shift) & registers.PendMask, nil
}

// ClearIntStatus clears the status bits set in mask
func (d *Device) ClearIntStatus(ch int, mask uint32) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if mask > uint32(registers.PendMask) {
		return ErrInvalidParameter{What: fmt.Sprintf("interrupt status mask 0x%x", mask)}
	}
	d.line.Mask()
	defer d.line.Restore()
	if c.irqCtrl.Enabled() {
		c.pending &^= uint8(mask)
		return nil
	}
	reg, shift := registers.IrqStateReg(ch)
	d.regs.Write16(reg, uint16(mask)<<shift)
	return nil
}

func (d *Device) readPending() uint32 {
	return uint32(d.regs.Read16(registers.RegIrqState1)) |
		uint32(d.regs.Read16(registers.RegIrqState2))<<16
}

func (d *Device) writePending(state uint32) {
	d.regs.Write16(registers.RegIrqState1, uint16(state))
	d.regs.Write16(registers.RegIrqState2, uint16(state>>16))
}

// clearPending acknowledges whatever is pending in hardware
func (d *Device) clearPending() {
	for _, reg := range []uint16{registers.RegIrqState1, registers.RegIrqState2} {
		if v := d.regs.Read16(reg); v != 0 {
			d.regs.Write16(reg, v)
		}
	}
}

// Irq is the top half attached to the interrupt line. It runs with the
// line held and returns false when the interrupt came from another device.
func (d *Device) Irq() bool {
	state := d.readPending()
	for _, c := range d.ch {
		shift := registers.PendShift(c.n)
		if c.irqCtrl.Enabled() {
			c.pending |= uint8(state>>shift) & registers.PendMask
		} else {
			c.pending = 0
			state &^= uint32(registers.PendMask) << shift
		}
	}
	d.writePending(state)
	if state == 0 {
		return false
	}

	d.pretrigEdge()

	// the registers are cleared before any waiter can observe the signal
	for _, c := range d.ch {
		if s := uint8(state>>registers.PendShift(c.n)) & registers.PendMask; s != 0 {
			c.notify(s)
		}
	}
	d.irqCount.Add(1)
	log.Debug("%s: irq state 0x%08x", d.Name, state)
	return true
}
