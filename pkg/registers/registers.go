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

// Package registers describes the M72 register file: byte offsets of the
// 16-bit registers, the layout of the control words and the value ranges
// of every field. Nothing here touches hardware.
package registers

import "fmt"

const (
	NumChannels = 4
	// ChannelLen is the width of a counter channel in bits
	ChannelLen = 32
	// AddrSpaceSize is the size of the M-Module address window in bytes
	AddrSpaceSize = 0x100
)

// RegAlias names a per channel register
type RegAlias int

const (
	RegCountCtrl RegAlias = iota
	RegCompALow
	RegCompBLow
	RegPreloadLow
	RegIrqCtrl
	RegCompAHigh
	RegCompBHigh
	RegPreloadHigh
	RegCountLow
	RegCountHigh
	RegAliasLimit
)

// RegMap holds offsets relative to the channel base
var RegMap = map[RegAlias]uint16{
	RegCountCtrl:   0x00,
	RegCompALow:    0x02,
	RegCompBLow:    0x04,
	RegPreloadLow:  0x06,
	RegIrqCtrl:     0x08,
	RegCompAHigh:   0x0a,
	RegCompBHigh:   0x0c,
	RegPreloadHigh: 0x0e,
	RegCountLow:    0x10,
	RegCountHigh:   0x12,
}

var regNames = map[RegAlias]string{
	RegCountCtrl:   "COUNT_CTRL",
	RegCompALow:    "COMPA_LOW",
	RegCompBLow:    "COMPB_LOW",
	RegPreloadLow:  "PRELOAD_LOW",
	RegIrqCtrl:     "IRQ_CTRL",
	RegCompAHigh:   "COMPA_HIGH",
	RegCompBHigh:   "COMPB_HIGH",
	RegPreloadHigh: "PRELOAD_HIGH",
	RegCountLow:    "COUNT_LOW",
	RegCountHigh:   "COUNT_HIGH",
}

// Global registers
const (
	RegIrqState1 uint16 = 0x80 // channels 0 and 1, write 1 to clear
	RegIrqState2 uint16 = 0x82 // channels 2 and 3, write 1 to clear
	RegOutCtrl1  uint16 = 0x84
	RegOutCtrl2  uint16 = 0x86
	RegOutConfig uint16 = 0x88
	RegSelftest  uint16 = 0x8a
	RegPldIf     uint16 = 0xfe
)

var globalNames = map[uint16]string{
	RegIrqState1: "IRQ_STATE1",
	RegIrqState2: "IRQ_STATE2",
	RegOutCtrl1:  "OUT_CTRL1",
	RegOutCtrl2:  "OUT_CTRL2",
	RegOutConfig: "OUT_CONFIG",
	RegSelftest:  "SELFTEST",
	RegPldIf:     "PLD_IF",
}

func chBase(ch int) uint16 {
	return uint16(ch) << 5
}

// ChReg returns the byte offset of a per channel register
func ChReg(ch int, alias RegAlias) uint16 {
	return chBase(ch) + RegMap[alias]
}

// Decode maps a byte offset back to a channel and register alias. Global
// registers return ch == -1.
func Decode(off uint16) (ch int, alias RegAlias, ok bool) {
	if off < chBase(NumChannels) {
		rel := off & 0x1f
		for a, o := range RegMap {
			if o == rel {
				return int(off >> 5), a, true
			}
		}
		return 0, RegAliasLimit, false
	}
	return -1, RegAliasLimit, false
}

// Name returns a human readable register name for a byte offset
func Name(off uint16) string {
	if n, ok := globalNames[off]; ok {
		return n
	}
	ch, alias, ok := Decode(off)
	if !ok {
		return fmt.Sprintf("0x%02x", off)
	}
	return fmt.Sprintf("%s(%d)", regNames[alias], ch)
}

// IrqStateReg returns the pending flag register holding channel ch and the
// shift of its byte within that register
func IrqStateReg(ch int) (uint16, uint) {
	reg := RegIrqState1
	if ch >= 2 {
		reg = RegIrqState2
	}
	return reg, uint(ch&1) << 3
}
