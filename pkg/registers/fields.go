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

package registers

import "fmt"

// Count control word bits
const (
	CountClearMask   uint16 = 0x0003
	CountClearShift         = 0
	CountPreloadMask uint16 = 0x000c
	CountPreloadShift       = 2
	CountStoreMask   uint16 = 0x0030
	CountStoreShift         = 4
	CountTimebase    uint16 = 0x0040
	CountTimerMask   uint16 = 0x0080
	CountTimerShift         = 7
	CountModeMask    uint16 = 0x0f00
	CountModeShift          = 8
)

// Interrupt control word bits
const (
	IrqLbreakEnb   uint16 = 0x0001
	IrqXin2Enb     uint16 = 0x0002
	IrqCybwMask    uint16 = 0x000c
	IrqCybwShift          = 2
	IrqCompMask    uint16 = 0x0070
	IrqCompShift          = 4
	IrqEnbMask     uint16 = 0x0080
)

// Pending flags, one byte per channel in the composed 32-bit state
const (
	PendReady  uint8 = 0x01
	PendComp   uint8 = 0x02
	PendCybw   uint8 = 0x04
	PendLbreak uint8 = 0x08
	PendXin2   uint8 = 0x10
	// PendMask covers the five meaningful bits of a channel byte
	PendMask uint8 = 0x1f
)

// PendShift returns the position of channel ch in the composed pending mask
func PendShift(ch int) uint {
	return uint(ch) << 3
}

// CountCtrl is the shadow of a channel count control register
type CountCtrl uint16

func (c CountCtrl) Clear() LoadCond {
	return LoadCond((uint16(c) & CountClearMask) >> CountClearShift)
}

func (c CountCtrl) Preload() LoadCond {
	return LoadCond((uint16(c) & CountPreloadMask) >> CountPreloadShift)
}

func (c CountCtrl) Store() StoreCond {
	return StoreCond((uint16(c) & CountStoreMask) >> CountStoreShift)
}

func (c CountCtrl) TimerStart() TimerStart {
	return TimerStart((uint16(c) & CountTimerMask) >> CountTimerShift)
}

func (c CountCtrl) Mode() Mode {
	return Mode((uint16(c) & CountModeMask) >> CountModeShift)
}

func (c CountCtrl) Timebase() bool {
	return uint16(c)&CountTimebase != 0
}

func (c CountCtrl) WithClear(v LoadCond) CountCtrl {
	return CountCtrl(uint16(c)&^CountClearMask | uint16(v)<<CountClearShift&CountClearMask)
}

func (c CountCtrl) WithPreload(v LoadCond) CountCtrl {
	return CountCtrl(uint16(c)&^CountPreloadMask | uint16(v)<<CountPreloadShift&CountPreloadMask)
}

func (c CountCtrl) WithStore(v StoreCond) CountCtrl {
	return CountCtrl(uint16(c)&^CountStoreMask | uint16(v)<<CountStoreShift&CountStoreMask)
}

func (c CountCtrl) WithTimerStart(v TimerStart) CountCtrl {
	return CountCtrl(uint16(c)&^CountTimerMask | uint16(v)<<CountTimerShift&CountTimerMask)
}

func (c CountCtrl) WithMode(v Mode) CountCtrl {
	return CountCtrl(uint16(c)&^CountModeMask | uint16(v)<<CountModeShift&CountModeMask)
}

// WithTimebase returns the word with the one-shot timebase bit set. The bit
// is never part of a persisted shadow.
func (c CountCtrl) WithTimebase() CountCtrl {
	return c | CountCtrl(CountTimebase)
}

func (c CountCtrl) String() string {
	return fmt.Sprintf("0x%04x{mode=%s clear=%s preload=%s store=%s timer=%s}",
		uint16(c), c.Mode(), c.Clear(), c.Preload(), c.Store(), c.TimerStart())
}

// IrqCtrl is the shadow of a channel interrupt control register
type IrqCtrl uint16

func (c IrqCtrl) Lbreak() bool {
	return uint16(c)&IrqLbreakEnb != 0
}

func (c IrqCtrl) Xin2() bool {
	return uint16(c)&IrqXin2Enb != 0
}

func (c IrqCtrl) Cybw() CybwIrq {
	return CybwIrq((uint16(c) & IrqCybwMask) >> IrqCybwShift)
}

func (c IrqCtrl) Comp() CompIrq {
	return CompIrq((uint16(c) & IrqCompMask) >> IrqCompShift)
}

func (c IrqCtrl) Enabled() bool {
	return uint16(c)&IrqEnbMask != 0
}

func setBit(w, bit uint16, on bool) uint16 {
	if on {
		return w | bit
	}
	return w &^ bit
}

func (c IrqCtrl) WithLbreak(on bool) IrqCtrl {
	return IrqCtrl(setBit(uint16(c), IrqLbreakEnb, on))
}

func (c IrqCtrl) WithXin2(on bool) IrqCtrl {
	return IrqCtrl(setBit(uint16(c), IrqXin2Enb, on))
}

func (c IrqCtrl) WithEnabled(on bool) IrqCtrl {
	return IrqCtrl(setBit(uint16(c), IrqEnbMask, on))
}

func (c IrqCtrl) WithCybw(v CybwIrq) IrqCtrl {
	return IrqCtrl(uint16(c)&^IrqCybwMask | uint16(v)<<IrqCybwShift&IrqCybwMask)
}

func (c IrqCtrl) WithComp(v CompIrq) IrqCtrl {
	return IrqCtrl(uint16(c)&^IrqCompMask | uint16(v)<<IrqCompShift&IrqCompMask)
}

func (c IrqCtrl) String() string {
	return fmt.Sprintf("0x%04x{enb=%t comp=%s cybw=%s lbreak=%t xin2=%t}",
		uint16(c), c.Enabled(), c.Comp(), c.Cybw(), c.Lbreak(), c.Xin2())
}

// OutConfig returns the output mode word bits driving output line out (1..4)
// from channel ch (0..3)
func OutConfig(out, ch int, mode OutMode) uint32 {
	return (uint32(mode) & 3) << uint(((out-1)*4+ch)*2)
}

// OutSetMask is the range of the OUT_CONFIG register
const OutSetMask uint16 = 0x000f

// PLD_IF bits. The microwire ID PROM and the FLEX10K passive serial port
// share the register.
const (
	PldIfEeDat uint16 = 0x0001
	PldIfEeClk uint16 = 0x0002
	PldIfEeCs  uint16 = 0x0004

	PldIfPsDat  uint16 = 1 << 0
	PldIfPsClk  uint16 = 1 << 1
	PldIfPsConf uint16 = 1 << 3
	// inputs
	PldIfPsStat uint16 = 1 << 1
	PldIfPsDone uint16 = 1 << 2
)

// ID PROM contents
const (
	IdMagic uint16 = 0x5346
	IdModId uint16 = 72
	IdSize         = 128
)
