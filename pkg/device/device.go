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

// Package device drives one M72 four channel counter module: counter
// configuration through shadowed control words, the interrupt top half and
// the pretrigger waveform built from channels A, B and C.
package device

import (
	"fmt"
	"sync"
	"sync/atomic"

	"jinr.ru/greenlab/go-m72/pkg/config"
	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// Params are the collaborators of a device. Regs and Line are required.
type Params struct {
	Regs      ifc.RegisterFile
	Line      ifc.InterruptLine
	Signaller ifc.Signaller
	Identity  ifc.IdentityReader
	Loader    ifc.BitstreamLoader
}

type Device struct {
	Name string

	regs      ifc.RegisterFile
	line      ifc.InterruptLine
	signaller ifc.Signaller
	identity  ifc.IdentityReader

	ch [registers.NumChannels]*Channel

	outCtrl1 uint16
	outCtrl2 uint16
	outSet   uint16
	selftest uint16
	idCheck  bool

	irqCount atomic.Uint32
	pretrig  pretrigger

	closeOnce sync.Once
	done      chan struct{}
}

var _ ifc.Device = &Device{}

// Info is the static description of the module
type Info struct {
	Name          string `json:"name"`
	Channels      int    `json:"channels"`
	ChannelLen    int    `json:"channelLen"`
	AddrSpaceSize int    `json:"addrSpaceSize"`
	DataWidth     int    `json:"dataWidth"`
	UseIrq        bool   `json:"useIrq"`
	LockMode      string `json:"lockMode"`
	IDCheck       bool   `json:"idCheck"`
}

// New checks the configuration, verifies the module identity, loads the
// PLD and programs every channel. On failure nothing stays attached to the
// interrupt line and the hardware is left quiet.
func New(cfg *config.DeviceConfig, p Params) (*Device, error) {
	if p.Regs == nil || p.Line == nil {
		return nil, ErrInvalidParameter{What: "register file and interrupt line are required"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, ErrInvalidParameter{What: err.Error()}
	}

	d := &Device{
		Name:      cfg.Name,
		regs:      p.Regs,
		line:      p.Line,
		signaller: p.Signaller,
		identity:  p.Identity,
		idCheck:   cfg.IDCheck && cfg.PLDLoad,
		done:      make(chan struct{}),
	}
	for n := range d.ch {
		d.ch[n] = newChannel(n)
	}

	if d.idCheck {
		if err := d.checkIdentity(); err != nil {
			return nil, err
		}
	}
	if cfg.PLDLoad {
		if p.Loader == nil {
			return nil, ErrInvalidParameter{What: "PLD load requested without a loader"}
		}
		if err := p.Loader.Load(); err != nil {
			return nil, ErrIdentityMismatch{What: "PLD load", Err: err}
		}
		log.Info("%s: PLD loaded", d.Name)
	}

	d.initHardware(cfg)

	if err := d.line.Attach(d.Name, d.Irq); err != nil {
		d.quiesce()
		return nil, ErrResourceExhaustion{What: "interrupt line", Err: err}
	}
	log.Info("%s: initialized", d.Name)
	return d, nil
}

func (d *Device) checkIdentity() error {
	if d.identity == nil {
		return ErrIdentityMismatch{What: "no ID PROM reader"}
	}
	magic, err := d.identity.ReadWord(0)
	if err != nil {
		return ErrIdentityMismatch{What: "reading magic", Err: err}
	}
	id, err := d.identity.ReadWord(1)
	if err != nil {
		return ErrIdentityMismatch{What: "reading module id", Err: err}
	}
	if magic != registers.IdMagic {
		return ErrIdentityMismatch{What: fmt.Sprintf("magic 0x%04x", magic)}
	}
	if id != registers.IdModId {
		return ErrIdentityMismatch{What: fmt.Sprintf("module id %d", id)}
	}
	return nil
}

func (d *Device) initHardware(cfg *config.DeviceConfig) {
	d.irqCount.Store(0)
	d.pretrig.enabled.Store(false)
	d.pretrig.armed.Store(false)
	d.pretrig.offset.Store(PretrigMinOffset)
	d.clearPending()

	for n, c := range d.ch {
		cc := cfg.Channels[n]
		c.pending = 0
		c.readMode = registers.ReadMode(cc.ReadMode)
		c.readTimeout = cc.ReadTimeout
		c.writeMode = registers.WriteMode(cc.WriteMode)

		d.counterClear(c, registers.LoadNow)

		c.compA, c.compB = cc.ValCompA, cc.ValCompB
		d.write32(c.reg(registers.RegCompALow), c.reg(registers.RegCompAHigh), c.compA)
		d.write32(c.reg(registers.RegCompBLow), c.reg(registers.RegCompBHigh), c.compB)
		d.write32(c.reg(registers.RegPreloadLow), c.reg(registers.RegPreloadHigh), cc.ValPreload)

		d.counterClear(c, registers.LoadCond(cc.Clear))
		d.counterLoad(c, registers.LoadCond(cc.Preload))
		d.counterStore(c, registers.StoreCond(cc.Store))
		c.countCtrl = c.countCtrl.
			WithTimerStart(registers.TimerStart(cc.TimerStart)).
			WithMode(registers.Mode(cc.Mode))
		d.writeCountCtrl(c)

		c.irqCtrl = registers.IrqCtrl(0).
			WithLbreak(cc.LbreakIrq != 0).
			WithXin2(cc.Xin2Irq != 0).
			WithCybw(registers.CybwIrq(cc.CybwIrq)).
			WithComp(registers.CompIrq(cc.CompIrq)).
			WithEnabled(cc.EnbIrq != 0)
		d.regs.Write16(c.reg(registers.RegIrqCtrl), uint16(c.irqCtrl))
	}

	d.outSet = uint16(cfg.OutSet)
	d.regs.Write16(registers.RegOutConfig, d.outSet)
	d.setOutMode(cfg.OutMode)
	d.selftest = 0
	d.regs.Write16(registers.RegSelftest, d.selftest)
}

// quiesce stops every counter and interrupt source
func (d *Device) quiesce() {
	for _, c := range d.ch {
		c.countCtrl = 0
		c.irqCtrl = 0
		c.pending = 0
		d.regs.Write16(c.reg(registers.RegCountCtrl), 0)
		d.regs.Write16(c.reg(registers.RegIrqCtrl), 0)
	}
	d.outCtrl1, d.outCtrl2, d.outSet, d.selftest = 0, 0, 0, 0
	d.regs.Write16(registers.RegOutCtrl1, 0)
	d.regs.Write16(registers.RegOutCtrl2, 0)
	d.regs.Write16(registers.RegOutConfig, 0)
	d.regs.Write16(registers.RegSelftest, 0)
	d.clearPending()
}

// Close quiets the module, detaches the handler and releases every
// installed signal. Waiting reads return ErrClosed.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.line.Mask()
		d.pretrig.enabled.Store(false)
		d.pretrig.armed.Store(false)
		d.quiesce()
		d.line.Restore()
		d.line.Detach(d.Name)
		close(d.done)
		for _, c := range d.ch {
			c.releaseSignals()
			c.ready.drain()
		}
		log.Info("%s: closed", d.Name)
	})
	return nil
}

func (d *Device) alive() error {
	select {
	case <-d.done:
		return ErrClosed{}
	default:
		return nil
	}
}

func (d *Device) channel(ch int) (*Channel, error) {
	if err := d.alive(); err != nil {
		return nil, err
	}
	if ch < 0 || ch >= registers.NumChannels {
		return nil, ErrInvalidParameter{What: fmt.Sprintf("channel %d", ch)}
	}
	return d.ch[ch], nil
}

// Channel returns the shadow of a channel for inspection
func (d *Device) Channel(ch int) (*Channel, error) {
	return d.channel(ch)
}

func (d *Device) setOutMode(v uint32) {
	d.outCtrl1 = uint16(v)
	d.outCtrl2 = uint16(v >> 16)
	d.regs.Write16(registers.RegOutCtrl1, d.outCtrl1)
	d.regs.Write16(registers.RegOutCtrl2, d.outCtrl2)
}

func (d *Device) OutMode() uint32 {
	return uint32(d.outCtrl1) | uint32(d.outCtrl2)<<16
}

func (d *Device) IrqCount() uint32 {
	return d.irqCount.Load()
}

func (d *Device) Info() Info {
	return Info{
		Name:          d.Name,
		Channels:      registers.NumChannels,
		ChannelLen:    registers.ChannelLen,
		AddrSpaceSize: registers.AddrSpaceSize,
		DataWidth:     16,
		UseIrq:        true,
		LockMode:      "call",
		IDCheck:       d.idCheck,
	}
}

// BlockRead is not supported by the hardware
func (d *Device) BlockRead(ch int, buf []byte) (int, error) {
	return 0, ErrUnsupportedOperation{What: "block read"}
}

// BlockWrite is not supported by the hardware
func (d *Device) BlockWrite(ch int, buf []byte) (int, error) {
	return 0, ErrUnsupportedOperation{What: "block write"}
}
