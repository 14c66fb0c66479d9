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

// Mode is the counter mode field of the count control word
type Mode uint32

const (
	ModeNone Mode = iota
	ModeSingle
	ModeQuad1x
	ModeQuad2x
	ModeQuad4x
	ModeFreq
	ModePulseHigh
	ModePulseLow
	modeReserved
	ModePeriod
	ModeTimer
)

var modeNames = []string{
	"none", "single", "quad1x", "quad2x", "quad4x", "freq",
	"pulse-high", "pulse-low", "reserved", "period", "timer",
}

// Valid reports whether the hardware accepts the mode. Code 8 is reserved.
func (m Mode) Valid() bool {
	return m <= ModeTimer && m != modeReserved
}

func (m Mode) String() string {
	if m <= ModeTimer {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint32(m))
}

// LoadCond is the preload and clear condition
type LoadCond uint32

const (
	LoadNone LoadCond = iota
	LoadXin2
	LoadNow
	LoadComp
)

func (c LoadCond) Valid() bool {
	return c <= LoadComp
}

func (c LoadCond) String() string {
	switch c {
	case LoadNone:
		return "none"
	case LoadXin2:
		return "xin2"
	case LoadNow:
		return "now"
	case LoadComp:
		return "comp"
	}
	return fmt.Sprintf("cond(%d)", uint32(c))
}

// StoreCond is the latch condition. Note that "now" and "xin2" are ordered
// differently from LoadCond.
type StoreCond uint32

const (
	StoreNone StoreCond = iota
	StoreNow
	StoreXin2
)

func (c StoreCond) Valid() bool {
	return c <= StoreXin2
}

func (c StoreCond) String() string {
	switch c {
	case StoreNone:
		return "none"
	case StoreNow:
		return "now"
	case StoreXin2:
		return "xin2"
	}
	return fmt.Sprintf("store(%d)", uint32(c))
}

// CompIrq is the comparator interrupt condition
type CompIrq uint32

const (
	CompNone CompIrq = iota
	CompLess
	CompGreater
	CompEqual
	CompInRange
	CompOutRange
)

func (c CompIrq) Valid() bool {
	return c <= CompOutRange
}

func (c CompIrq) String() string {
	names := []string{"none", "less", "greater", "equal", "in-range", "out-range"}
	if c.Valid() {
		return names[c]
	}
	return fmt.Sprintf("comp(%d)", uint32(c))
}

// CybwIrq is the carry/borrow interrupt condition
type CybwIrq uint32

const (
	CybwNone CybwIrq = iota
	CybwCarry
	CybwBorrow
	CybwBoth
)

func (c CybwIrq) Valid() bool {
	return c <= CybwBoth
}

func (c CybwIrq) String() string {
	names := []string{"none", "carry", "borrow", "carry-borrow"}
	if c.Valid() {
		return names[c]
	}
	return fmt.Sprintf("cybw(%d)", uint32(c))
}

// ReadMode selects what a counter read does before reading the latch
type ReadMode uint32

const (
	ReadLatch ReadMode = iota
	ReadWait
	ReadNow
)

func (m ReadMode) Valid() bool {
	return m <= ReadNow
}

func (m ReadMode) String() string {
	switch m {
	case ReadLatch:
		return "latch"
	case ReadWait:
		return "wait"
	case ReadNow:
		return "now"
	}
	return fmt.Sprintf("read(%d)", uint32(m))
}

// WriteMode selects what a counter write does after loading the preload
// register. Code 1 is not defined.
type WriteMode uint32

const (
	WritePreload WriteMode = 0
	WriteNow     WriteMode = 2
)

func (m WriteMode) Valid() bool {
	return m == WritePreload || m == WriteNow
}

func (m WriteMode) String() string {
	switch m {
	case WritePreload:
		return "preload"
	case WriteNow:
		return "now"
	}
	return fmt.Sprintf("write(%d)", uint32(m))
}

// TimerStart is the start condition in timer mode
type TimerStart uint32

const (
	TimerXin2 TimerStart = iota
	TimerNow
)

func (t TimerStart) Valid() bool {
	return t <= TimerNow
}

func (t TimerStart) String() string {
	if t == TimerNow {
		return "now"
	}
	if t == TimerXin2 {
		return "xin2"
	}
	return fmt.Sprintf("start(%d)", uint32(t))
}

// OutMode drives an output line from a channel's zero/compare event
type OutMode uint32

const (
	OutNone OutMode = iota
	OutHigh
	OutLow
	OutToggle
)

// ReadTimeoutForever makes a wait mode read block until the ready interrupt
const ReadTimeoutForever uint32 = 0xffffffff
