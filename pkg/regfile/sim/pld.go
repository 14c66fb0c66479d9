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

package sim

import (
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

const (
	eeIdle = iota
	eeCommand
	eeRead
)

// EEPROM models a 93C46 microwire PROM organised as 64 16-bit words.
// Only the read instruction is implemented.
type EEPROM struct {
	Words [64]uint16

	state   int
	clk     bool
	shift   uint16
	nbits   int
	addr    uint8
	bit     int
	dataOut bool
}

// NewEEPROM returns a PROM holding a valid M72 identification header
func NewEEPROM() *EEPROM {
	e := &EEPROM{}
	e.Words[0] = registers.IdMagic
	e.Words[1] = registers.IdModId
	for i := 2; i < len(e.Words); i++ {
		e.Words[i] = uint16(i) * 0x0101
	}
	return e
}

func (e *EEPROM) out() bool {
	return e.dataOut
}

func (e *EEPROM) pins(v uint16) {
	cs := v&registers.PldIfEeCs != 0
	clk := v&registers.PldIfEeClk != 0
	di := v&registers.PldIfEeDat != 0
	rising := clk && !e.clk
	e.clk = clk

	if !cs {
		e.state = eeIdle
		e.dataOut = true
		return
	}
	if !rising {
		return
	}
	switch e.state {
	case eeIdle:
		// leading zeros before the start bit are ignored
		if di {
			e.state = eeCommand
			e.shift = 0
			e.nbits = 0
		}
	case eeCommand:
		e.shift <<= 1
		if di {
			e.shift |= 1
		}
		e.nbits++
		if e.nbits == 8 {
			op := e.shift >> 6
			e.addr = uint8(e.shift & 0x3f)
			if op == 0x2 {
				e.state = eeRead
				e.bit = 0
				e.dataOut = false
			} else {
				e.state = eeIdle
			}
		}
	case eeRead:
		w := e.Words[e.addr]
		e.dataOut = w&(0x8000>>uint(e.bit)) != 0
		e.bit++
		if e.bit == 16 {
			e.bit = 0
			e.addr = (e.addr + 1) & 0x3f
		}
	}
}

// PLD models the passive serial configuration port of a FLEX10K device
type PLD struct {
	// Bits is the number of configuration clocks needed for CONF_DONE
	Bits int
	// FailAt makes nSTATUS drop after that many clocks when non zero
	FailAt int

	nconfig  bool
	clk      bool
	nstatus  bool
	clocks   int
	started  bool
	received []byte
	cur      byte
}

// NewPLD returns a device expecting size configuration bytes
func NewPLD(size int) *PLD {
	return &PLD{Bits: size * 8, nconfig: true}
}

func (p *PLD) status() uint16 {
	var v uint16
	if p.nstatus {
		v |= registers.PldIfPsStat
	}
	if p.Done() {
		v |= registers.PldIfPsDone
	}
	return v
}

// Done reports CONF_DONE
func (p *PLD) Done() bool {
	return p.started && p.clocks >= p.Bits
}

// Received returns the configuration bytes shifted in
func (p *PLD) Received() []byte {
	return p.received
}

func (p *PLD) pins(v uint16) {
	nconfig := v&registers.PldIfPsConf != 0
	clk := v&registers.PldIfPsClk != 0
	rising := clk && !p.clk
	p.clk = clk

	if !nconfig {
		p.nconfig = false
		p.nstatus = false
		p.started = false
		p.clocks = 0
		p.received = nil
		return
	}
	if !p.nconfig {
		// nCONFIG released, configuration cycle begins
		p.nconfig = true
		p.nstatus = true
		p.started = true
		return
	}
	if !rising || !p.started || !p.nstatus || p.Done() {
		return
	}
	if v&registers.PldIfPsDat != 0 {
		p.cur |= 1 << uint(p.clocks%8)
	}
	p.clocks++
	if p.clocks%8 == 0 {
		p.received = append(p.received, p.cur)
		p.cur = 0
	}
	if p.FailAt != 0 && p.clocks >= p.FailAt {
		p.nstatus = false
	}
}
