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
	"context"
	"errors"
	"fmt"

	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

func (d *Device) writeCountCtrl(c *Channel) {
	d.regs.Write16(c.reg(registers.RegCountCtrl), uint16(c.countCtrl))
}

// pulse writes a one-shot count control word and restores the persisted one
func (d *Device) pulse(c *Channel, w registers.CountCtrl) {
	d.regs.Write16(c.reg(registers.RegCountCtrl), uint16(w))
	d.writeCountCtrl(c)
}

func (d *Device) write32(lo, hi uint16, v uint32) {
	d.regs.Write16(lo, uint16(v))
	d.regs.Write16(hi, uint16(v>>16))
}

// counterStore latches the counter now or sets the latch condition. The
// caller has checked the range.
func (d *Device) counterStore(c *Channel, cond registers.StoreCond) {
	if cond == registers.StoreNow {
		d.pulse(c, c.countCtrl.WithStore(registers.StoreNow))
		return
	}
	c.countCtrl = c.countCtrl.WithStore(cond)
	d.writeCountCtrl(c)
}

// counterClear clears the counter now or sets the clear condition
func (d *Device) counterClear(c *Channel, cond registers.LoadCond) {
	if cond == registers.LoadNow {
		d.pulse(c, c.countCtrl.WithClear(registers.LoadNow))
		return
	}
	c.countCtrl = c.countCtrl.WithClear(cond)
	d.writeCountCtrl(c)
}

// counterLoad transfers the preload register now or sets the preload
// condition
func (d *Device) counterLoad(c *Channel, cond registers.LoadCond) {
	if cond == registers.LoadNow {
		d.pulse(c, c.countCtrl.WithPreload(registers.LoadNow))
		return
	}
	c.countCtrl = c.countCtrl.WithPreload(cond)
	d.writeCountCtrl(c)
}

// CounterStore ...
func (d *Device) CounterStore(ch int, cond registers.StoreCond) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !cond.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("store condition %d", cond)}
	}
	d.counterStore(c, cond)
	return nil
}

// CounterClear ...
func (d *Device) CounterClear(ch int, cond registers.LoadCond) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !cond.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("clear condition %d", cond)}
	}
	d.counterClear(c, cond)
	return nil
}

// CounterLoad ...
func (d *Device) CounterLoad(ch int, cond registers.LoadCond) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !cond.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("preload condition %d", cond)}
	}
	d.counterLoad(c, cond)
	return nil
}

// SetMode rejects the reserved mode 8 without touching the hardware
func (d *Device) SetMode(ch int, mode registers.Mode) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !mode.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("counter mode %d", mode)}
	}
	c.countCtrl = c.countCtrl.WithMode(mode)
	d.writeCountCtrl(c)
	return nil
}

func (d *Device) SetTimerStart(ch int, start registers.TimerStart) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !start.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("timer start %d", start)}
	}
	c.countCtrl = c.countCtrl.WithTimerStart(start)
	d.writeCountCtrl(c)
	return nil
}

// FreqStart opens one frequency measurement gate. The timebase bit clears
// itself in hardware and is not kept in the shadow.
func (d *Device) FreqStart(ch int) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if c.Mode() != registers.ModeFreq {
		return ErrInvalidParameter{What: fmt.Sprintf("frequency start in mode %s", c.Mode())}
	}
	d.regs.Write16(c.reg(registers.RegCountCtrl), uint16(c.countCtrl.WithTimebase()))
	return nil
}

func (d *Device) SetCompA(ch int, v uint32) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	c.compA = v
	d.write32(c.reg(registers.RegCompALow), c.reg(registers.RegCompAHigh), v)
	return nil
}

func (d *Device) SetCompB(ch int, v uint32) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	c.compB = v
	d.write32(c.reg(registers.RegCompBLow), c.reg(registers.RegCompBHigh), v)
	return nil
}

func (d *Device) SetReadMode(ch int, mode registers.ReadMode) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !mode.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("read mode %d", mode)}
	}
	d.line.Mask()
	c.readMode = mode
	d.line.Restore()
	return nil
}

func (d *Device) SetReadTimeout(ch int, ms uint32) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	d.line.Mask()
	c.readTimeout = ms
	d.line.Restore()
	return nil
}

func (d *Device) SetWriteMode(ch int, mode registers.WriteMode) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if !mode.Valid() {
		return ErrInvalidParameter{What: fmt.Sprintf("write mode %d", mode)}
	}
	c.writeMode = mode
	return nil
}

// WriteCounter writes the preload register, low word first, and loads the
// counter when the write mode asks for it
func (d *Device) WriteCounter(ch int, value uint32) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	log.Debug("Channel %d: write 0x%08x", ch, value)
	d.write32(c.reg(registers.RegPreloadLow), c.reg(registers.RegPreloadHigh), value)
	if c.writeMode == registers.WriteNow {
		d.counterLoad(c, registers.LoadNow)
	}
	return nil
}

// ReadCounter ...
func (d *Device) ReadCounter(ch int) (uint32, error) {
	return d.ReadCounterContext(context.Background(), ch)
}

// ReadCounterContext reads the counter latch. In wait mode it first blocks
// for the ready interrupt, bounded by the channel read timeout and ctx; in
// now mode it latches the counter first.
func (d *Device) ReadCounterContext(ctx context.Context, ch int) (uint32, error) {
	c, err := d.channel(ch)
	if err != nil {
		return 0, err
	}
	// callers waiting for the ready interrupt may not hold the call lock
	d.line.Mask()
	mode, timeout := c.readMode, c.readTimeout
	d.line.Restore()

	switch mode {
	case registers.ReadWait:
		if err := c.ready.wait(ctx, d.done, timeout); err != nil {
			if errors.Is(err, errSemTimeout) {
				return 0, ErrTimeout{Ch: ch, Timeout: timeout}
			}
			return 0, err
		}
	case registers.ReadNow:
		d.counterStore(c, registers.StoreNow)
	}

	// the handler may latch or clear this channel, keep the halves together
	d.line.Mask()
	lo := d.regs.Read16(c.reg(registers.RegCountLow))
	hi := d.regs.Read16(c.reg(registers.RegCountHigh))
	d.line.Restore()

	v := uint32(lo) | uint32(hi)<<16
	log.Debug("Channel %d: read latch 0x%08x", ch, v)
	return v, nil
}
