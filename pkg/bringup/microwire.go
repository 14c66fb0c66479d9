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

// Package bringup talks to the two serial devices behind the PLD_IF
// register: the 93C46 ID PROM and the FLEX10K configuration port.
package bringup

import (
	"fmt"
	"sync"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

const (
	// pins that are not driven are written as 1
	pldIfIdle uint16 = 0xfff8

	eeWords   = 64
	eeAddrLen = 6
	eeOpRead  = 0x6 // start bit and opcode 10
)

// Microwire reads the ID PROM by bit banging PLD_IF
type Microwire struct {
	regs ifc.RegisterFile
	mu   sync.Mutex
}

var _ ifc.IdentityReader = &Microwire{}

func NewMicrowire(regs ifc.RegisterFile) *Microwire {
	return &Microwire{regs: regs}
}

func (m *Microwire) set(pins uint16) {
	m.regs.Write16(registers.RegPldIf, pldIfIdle|pins)
}

func (m *Microwire) dataIn() bool {
	return m.regs.Read16(registers.RegPldIf)&registers.PldIfEeDat != 0
}

func (m *Microwire) clockOut(bit bool) {
	pins := registers.PldIfEeCs
	if bit {
		pins |= registers.PldIfEeDat
	}
	m.set(pins)
	m.set(pins | registers.PldIfEeClk)
	m.set(pins)
}

func (m *Microwire) clockIn() bool {
	m.set(registers.PldIfEeCs | registers.PldIfEeClk)
	bit := m.dataIn()
	m.set(registers.PldIfEeCs)
	return bit
}

// ReadWord reads one 16 bit word, most significant bit first
func (m *Microwire) ReadWord(addr uint8) (uint16, error) {
	if addr >= eeWords {
		return 0, fmt.Errorf("ID PROM address %d out of range", addr)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	defer m.set(0)

	m.set(0)
	m.set(registers.PldIfEeCs)
	cmd := uint16(eeOpRead)<<eeAddrLen | uint16(addr)
	for i := 3 + eeAddrLen - 1; i >= 0; i-- {
		m.clockOut(cmd&(1<<uint(i)) != 0)
	}
	if m.dataIn() {
		return 0, ErrNoDummyBit{Addr: addr}
	}
	var w uint16
	for i := 0; i < 16; i++ {
		w <<= 1
		if m.clockIn() {
			w |= 1
		}
	}
	log.Debug("ID PROM word %d: 0x%04x", addr, w)
	return w, nil
}

// ReadImage returns the whole PROM, high byte of each word first
func (m *Microwire) ReadImage() ([]byte, error) {
	buf := make([]byte, 0, registers.IdSize)
	for a := uint8(0); a < eeWords; a++ {
		w, err := m.ReadWord(a)
		if err != nil {
			return nil, err
		}
		buf = append(buf, byte(w>>8), byte(w))
	}
	return buf, nil
}

// Check verifies the magic word and the module id
func (m *Microwire) Check() error {
	magic, err := m.ReadWord(0)
	if err != nil {
		return err
	}
	id, err := m.ReadWord(1)
	if err != nil {
		return err
	}
	if magic != registers.IdMagic || id != registers.IdModId {
		return fmt.Errorf("ID PROM magic 0x%04x module id %d", magic, id)
	}
	return nil
}
