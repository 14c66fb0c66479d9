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

// Package sim models the M72 register file in memory. It implements the
// immediate clear, preload and store actions of the count control word,
// the write-1-to-clear pending registers and the PLD_IF port, which is
// enough to drive the device package without hardware.
package sim

import (
	"sync"

	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// Raiser is an interrupt line the model fires
type Raiser interface {
	Raise()
}

// Write is one register write seen by the model
type Write struct {
	Off   uint16
	Value uint16
}

type Model struct {
	mu sync.Mutex

	regs    [registers.AddrSpaceSize / 2]uint16
	count   [registers.NumChannels]uint32
	latch   [registers.NumChannels]uint32
	pending uint32

	record bool
	writes []Write
	line   Raiser

	eeprom *EEPROM
	pld    *PLD
}

// New returns a model with every register zeroed
func New() *Model {
	return &Model{}
}

// SetLine attaches the interrupt line fired by Raise
func (m *Model) SetLine(line Raiser) {
	m.mu.Lock()
	m.line = line
	m.mu.Unlock()
}

// SetEEPROM plugs an ID PROM into the PLD_IF port
func (m *Model) SetEEPROM(e *EEPROM) {
	m.mu.Lock()
	m.eeprom = e
	m.mu.Unlock()
}

// SetPLD plugs a programmable logic device into the PLD_IF port
func (m *Model) SetPLD(p *PLD) {
	m.mu.Lock()
	m.pld = p
	m.mu.Unlock()
}

// PLD returns the plugged device, nil if there is none
func (m *Model) PLD() *PLD {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pld
}

func (m *Model) raw(off uint16) uint16 {
	return m.regs[(off&(registers.AddrSpaceSize-1))>>1]
}

func (m *Model) preload(ch int) uint32 {
	return uint32(m.raw(registers.ChReg(ch, registers.RegPreloadLow))) |
		uint32(m.raw(registers.ChReg(ch, registers.RegPreloadHigh)))<<16
}

// Read16 ...
func (m *Model) Read16(off uint16) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch off {
	case registers.RegIrqState1:
		return uint16(m.pending)
	case registers.RegIrqState2:
		return uint16(m.pending >> 16)
	case registers.RegOutConfig:
		return m.raw(off) & registers.OutSetMask
	case registers.RegPldIf:
		var v uint16
		if m.eeprom != nil && m.eeprom.out() {
			v |= registers.PldIfEeDat
		}
		if m.pld != nil {
			v |= m.pld.status()
		}
		return v
	}
	if ch, alias, ok := registers.Decode(off); ok {
		switch alias {
		case registers.RegCountLow:
			return uint16(m.latch[ch])
		case registers.RegCountHigh:
			return uint16(m.latch[ch] >> 16)
		}
	}
	return m.raw(off)
}

// Write16 ...
func (m *Model) Write16(off uint16, value uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record {
		m.writes = append(m.writes, Write{Off: off, Value: value})
	}

	switch off {
	case registers.RegIrqState1:
		m.pending &^= uint32(value)
		return
	case registers.RegIrqState2:
		m.pending &^= uint32(value) << 16
		return
	case registers.RegPldIf:
		if m.eeprom != nil {
			m.eeprom.pins(value)
		}
		if m.pld != nil {
			m.pld.pins(value)
		}
	}
	m.regs[(off&(registers.AddrSpaceSize-1))>>1] = value

	ch, alias, ok := registers.Decode(off)
	if !ok || alias != registers.RegCountCtrl {
		return
	}
	w := registers.CountCtrl(value)
	if w.Clear() == registers.LoadNow {
		m.count[ch] = 0
	}
	if w.Preload() == registers.LoadNow {
		m.count[ch] = m.preload(ch)
	}
	if w.Store() == registers.StoreNow {
		m.latch[ch] = m.count[ch]
	}
}

// Raise sets pending bits of a channel and fires the interrupt line when
// the channel interrupt is enabled
func (m *Model) Raise(ch int, bits uint8) {
	m.mu.Lock()
	m.pending |= uint32(bits&registers.PendMask) << registers.PendShift(ch)
	enabled := registers.IrqCtrl(m.raw(registers.ChReg(ch, registers.RegIrqCtrl))).Enabled()
	line := m.line
	m.mu.Unlock()

	if enabled && line != nil {
		line.Raise()
	}
}

// Edge simulates an xIN2 edge on channel ch: the store, clear and preload
// conditions set to xIN2 act, then the xIN2 pending bit is raised.
func (m *Model) Edge(ch int) {
	m.mu.Lock()
	w := registers.CountCtrl(m.raw(registers.ChReg(ch, registers.RegCountCtrl)))
	if w.Store() == registers.StoreXin2 {
		m.latch[ch] = m.count[ch]
	}
	if w.Clear() == registers.LoadXin2 {
		m.count[ch] = 0
	}
	if w.Preload() == registers.LoadXin2 {
		m.count[ch] = m.preload(ch)
	}
	m.mu.Unlock()
	m.Raise(ch, registers.PendXin2)
}

// SetCount sets the live counter of a channel
func (m *Model) SetCount(ch int, v uint32) {
	m.mu.Lock()
	m.count[ch] = v
	m.mu.Unlock()
}

// Count returns the live counter of a channel
func (m *Model) Count(ch int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count[ch]
}

// SetLatch sets the value the count registers read back
func (m *Model) SetLatch(ch int, v uint32) {
	m.mu.Lock()
	m.latch[ch] = v
	m.mu.Unlock()
}

func (m *Model) Latch(ch int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latch[ch]
}

// Preload returns the 32-bit preload value last written to a channel
func (m *Model) Preload(ch int) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preload(ch)
}

// Reg returns the last value written to a register
func (m *Model) Reg(off uint16) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.raw(off)
}

// Pending returns the composed pending flags
func (m *Model) Pending() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// RecordWrites turns the write journal on or off. The journal is off in a
// new model; turning it off also empties it.
func (m *Model) RecordWrites(on bool) {
	m.mu.Lock()
	m.record = on
	if !on {
		m.writes = nil
	}
	m.mu.Unlock()
}

// Writes returns a copy of the write journal
func (m *Model) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}

func (m *Model) ResetWrites() {
	m.mu.Lock()
	m.writes = nil
	m.mu.Unlock()
}

// WritesTo returns the values written to one register in order
func (m *Model) WritesTo(off uint16) []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uint16
	for _, w := range m.writes {
		if w.Off == off {
			out = append(out, w.Value)
		}
	}
	return out
}
