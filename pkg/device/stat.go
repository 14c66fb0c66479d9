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
	"sort"
	"strconv"
	"strings"

	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// StatCode selects a value of the get/set status surface. The numbers are
// those of the MDIS M72 driver so existing tooling keeps working.
type StatCode uint32

const (
	StatLLOf  StatCode = 0x0100
	StatDevOf StatCode = 0x0200
	StatBlkOf StatCode = 0x8000
)

const (
	StatCntMode    = StatDevOf + 0x00
	StatCntPreload = StatDevOf + 0x01
	StatCntClear   = StatDevOf + 0x02
	StatCntStore   = StatDevOf + 0x03
	StatCompIrq    = StatDevOf + 0x04
	StatCybwIrq    = StatDevOf + 0x05
	StatLbreakIrq  = StatDevOf + 0x06
	StatXin2Irq    = StatDevOf + 0x07
	StatValCompA   = StatDevOf + 0x08
	StatValCompB   = StatDevOf + 0x09
	StatReadMode   = StatDevOf + 0x0a
	StatWriteMode  = StatDevOf + 0x0b
	StatTimerStart = StatDevOf + 0x0c
	StatFreqStart  = StatDevOf + 0x0d
	StatOutMode    = StatDevOf + 0x0e
	StatOutSet     = StatDevOf + 0x0f
	// StatSigSet plus a SignalKind installs that signal
	StatSigSet = StatDevOf + 0x10
	// StatSigClr plus a SignalKind removes that signal
	StatSigClr      = StatDevOf + 0x20
	StatSelftest    = StatDevOf + 0x30
	StatReadTimeout = StatDevOf + 0x40
	StatEnbIrq      = StatDevOf + 0x41
	StatIntStatus   = StatDevOf + 0x42
	StatCntPretrig  = StatDevOf + 0x43
	StatEnPretrig   = StatDevOf + 0x44

	StatChNumber = StatLLOf + 0x00
	StatChDir    = StatLLOf + 0x01
	StatChLen    = StatLLOf + 0x02
	StatChTyp    = StatLLOf + 0x03
	StatIrqCount = StatLLOf + 0x04
	StatIdCheck  = StatLLOf + 0x05
	StatIdSize   = StatLLOf + 0x07

	StatBlkIdData = StatBlkOf + StatLLOf + 0x00
)

// Channel direction and type values
const (
	ChDirIn      uint32 = 0
	ChDirOut     uint32 = 1
	ChDirInOut   uint32 = 2
	ChTypCounter uint32 = 3
)

var statNames = map[StatCode]string{
	StatCntMode:     "cnt-mode",
	StatCntPreload:  "cnt-preload",
	StatCntClear:    "cnt-clear",
	StatCntStore:    "cnt-store",
	StatCompIrq:     "comp-irq",
	StatCybwIrq:     "cybw-irq",
	StatLbreakIrq:   "lbreak-irq",
	StatXin2Irq:     "xin2-irq",
	StatValCompA:    "val-compa",
	StatValCompB:    "val-compb",
	StatReadMode:    "read-mode",
	StatWriteMode:   "write-mode",
	StatTimerStart:  "timer-start",
	StatFreqStart:   "freq-start",
	StatOutMode:     "out-mode",
	StatOutSet:      "out-set",
	StatSelftest:    "selftest",
	StatReadTimeout: "read-timeout",
	StatEnbIrq:      "enb-irq",
	StatIntStatus:   "int-status",
	StatCntPretrig:  "cnt-pretrig",
	StatEnPretrig:   "en-pretrig",
	StatChNumber:    "ch-number",
	StatChDir:       "ch-dir",
	StatChLen:       "ch-len",
	StatChTyp:       "ch-typ",
	StatIrqCount:    "irq-count",
	StatIdCheck:     "id-check",
	StatIdSize:      "id-size",
	StatBlkIdData:   "id-data",
}

func init() {
	for k := SigReady; k < NumSignalKinds; k++ {
		statNames[StatSigSet+StatCode(k)] = "sigset-" + k.String()
		statNames[StatSigClr+StatCode(k)] = "sigclr-" + k.String()
	}
}

func (c StatCode) Name() string {
	if n, ok := statNames[c]; ok {
		return n
	}
	return fmt.Sprintf("0x%04x", uint32(c))
}

func (c StatCode) String() string {
	return c.Name()
}

// ParseStatCode accepts a symbolic name or a number
func ParseStatCode(s string) (StatCode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for code, n := range statNames {
		if n == s {
			return code, nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, ErrUnsupportedOperation{What: fmt.Sprintf("status code %q", s)}
	}
	return StatCode(v), nil
}

// StatNames returns every symbolic status code name in order
func StatNames() []string {
	names := make([]string, 0, len(statNames))
	for _, n := range statNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sigKind(code, base StatCode) (SignalKind, bool) {
	if code >= base && code < base+StatCode(NumSignalKinds) {
		return SignalKind(code - base), true
	}
	return 0, false
}

func boolValue(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func flagValue(what string, v uint32) (bool, error) {
	if v > 1 {
		return false, ErrInvalidParameter{What: fmt.Sprintf("%s %d", what, v)}
	}
	return v == 1, nil
}

// GetStat returns a status value of a channel
func (d *Device) GetStat(ch int, code StatCode) (uint32, error) {
	c, err := d.channel(ch)
	if err != nil {
		return 0, err
	}
	if k, ok := sigKind(code, StatSigSet); ok {
		return d.signalCode(c, k), nil
	}
	switch code {
	case StatIrqCount:
		return d.IrqCount(), nil
	case StatChNumber:
		return registers.NumChannels, nil
	case StatChDir:
		return ChDirInOut, nil
	case StatChLen:
		return registers.ChannelLen, nil
	case StatChTyp:
		return ChTypCounter, nil
	case StatIdCheck:
		return boolValue(d.idCheck), nil
	case StatIdSize:
		return registers.IdSize, nil
	case StatCntMode:
		return uint32(c.Mode()), nil
	case StatCntPreload:
		return uint32(c.PreloadCond()), nil
	case StatCntClear:
		return uint32(c.ClearCond()), nil
	case StatCntStore:
		return uint32(c.StoreCond()), nil
	case StatEnbIrq:
		return boolValue(d.irqCtrlOf(c).Enabled()), nil
	case StatCompIrq:
		return uint32(d.irqCtrlOf(c).Comp()), nil
	case StatCybwIrq:
		return uint32(d.irqCtrlOf(c).Cybw()), nil
	case StatLbreakIrq:
		return boolValue(d.irqCtrlOf(c).Lbreak()), nil
	case StatXin2Irq:
		return boolValue(d.irqCtrlOf(c).Xin2()), nil
	case StatIntStatus:
		s, err := d.IntStatus(ch)
		return uint32(s), err
	case StatValCompA:
		return c.compA, nil
	case StatValCompB:
		return c.compB, nil
	case StatReadMode:
		d.line.Mask()
		defer d.line.Restore()
		return uint32(c.readMode), nil
	case StatReadTimeout:
		d.line.Mask()
		defer d.line.Restore()
		return c.readTimeout, nil
	case StatCntPretrig:
		return d.PretriggerOffset(), nil
	case StatEnPretrig:
		return boolValue(d.PretriggerEnabled()), nil
	case StatWriteMode:
		return uint32(c.writeMode), nil
	case StatTimerStart:
		return uint32(c.TimerStart()), nil
	case StatOutMode:
		return d.OutMode(), nil
	case StatOutSet:
		return uint32(d.regs.Read16(registers.RegOutConfig) & registers.OutSetMask), nil
	case StatSelftest:
		return uint32(d.selftest), nil
	}
	return 0, ErrUnsupportedOperation{What: fmt.Sprintf("get %s", code)}
}

// SetStat changes a status value of a channel. Out of range values are
// rejected before anything is written.
func (d *Device) SetStat(ch int, code StatCode, value uint32) error {
	if _, err := d.channel(ch); err != nil {
		return err
	}
	if k, ok := sigKind(code, StatSigSet); ok {
		return d.InstallSignal(ch, k, value)
	}
	if k, ok := sigKind(code, StatSigClr); ok {
		return d.RemoveSignal(ch, k)
	}
	switch code {
	case StatIrqCount:
		d.irqCount.Store(value)
		return nil
	case StatChDir:
		if value != ChDirInOut {
			return ErrInvalidParameter{What: fmt.Sprintf("channel direction %d", value)}
		}
		return nil
	case StatCntMode:
		return d.SetMode(ch, registers.Mode(value))
	case StatCntPreload:
		return d.CounterLoad(ch, registers.LoadCond(value))
	case StatCntClear:
		return d.CounterClear(ch, registers.LoadCond(value))
	case StatCntStore:
		return d.CounterStore(ch, registers.StoreCond(value))
	case StatEnbIrq:
		on, err := flagValue("irq enable", value)
		if err != nil {
			return err
		}
		return d.SetIrqEnabled(ch, on)
	case StatCompIrq:
		return d.SetCompIrq(ch, registers.CompIrq(value))
	case StatCybwIrq:
		return d.SetCybwIrq(ch, registers.CybwIrq(value))
	case StatLbreakIrq:
		on, err := flagValue("line-break irq", value)
		if err != nil {
			return err
		}
		return d.SetLbreakIrq(ch, on)
	case StatXin2Irq:
		on, err := flagValue("xIN2 irq", value)
		if err != nil {
			return err
		}
		return d.SetXin2Irq(ch, on)
	case StatIntStatus:
		return d.ClearIntStatus(ch, value)
	case StatValCompA:
		return d.SetCompA(ch, value)
	case StatValCompB:
		return d.SetCompB(ch, value)
	case StatReadMode:
		return d.SetReadMode(ch, registers.ReadMode(value))
	case StatReadTimeout:
		return d.SetReadTimeout(ch, value)
	case StatCntPretrig:
		d.SetPretriggerOffset(value)
		return nil
	case StatEnPretrig:
		on, err := flagValue("pretrigger enable", value)
		if err != nil {
			return err
		}
		return d.SetPretrigger(on)
	case StatWriteMode:
		return d.SetWriteMode(ch, registers.WriteMode(value))
	case StatTimerStart:
		return d.SetTimerStart(ch, registers.TimerStart(value))
	case StatFreqStart:
		return d.FreqStart(ch)
	case StatOutMode:
		d.setOutMode(value)
		return nil
	case StatOutSet:
		if value > uint32(registers.OutSetMask) {
			return ErrInvalidParameter{What: fmt.Sprintf("output setting 0x%x", value)}
		}
		d.outSet = uint16(value)
		d.regs.Write16(registers.RegOutConfig, d.outSet)
		return nil
	case StatSelftest:
		d.selftest = uint16(value)
		d.regs.Write16(registers.RegSelftest, d.selftest)
		return nil
	}
	return ErrUnsupportedOperation{What: fmt.Sprintf("set %s", code)}
}

// GetBlockStat returns block status data
func (d *Device) GetBlockStat(ch int, code StatCode) ([]byte, error) {
	if _, err := d.channel(ch); err != nil {
		return nil, err
	}
	if code != StatBlkIdData {
		return nil, ErrUnsupportedOperation{What: fmt.Sprintf("block get %s", code)}
	}
	if d.identity == nil {
		return nil, ErrUnsupportedOperation{What: "no ID PROM reader"}
	}
	return d.identity.ReadImage()
}

// channelCodes are the readable per channel codes of a snapshot
var channelCodes = []StatCode{
	StatCntMode, StatCntPreload, StatCntClear, StatCntStore,
	StatEnbIrq, StatCompIrq, StatCybwIrq, StatLbreakIrq, StatXin2Irq, StatIntStatus,
	StatValCompA, StatValCompB, StatReadMode, StatReadTimeout, StatWriteMode, StatTimerStart,
}

// Snapshot returns every readable status value of a channel by name,
// followed by the device wide values
func (d *Device) Snapshot(ch int) (map[string]uint32, error) {
	codes := append([]StatCode{}, channelCodes...)
	for k := SigReady; k < NumSignalKinds; k++ {
		codes = append(codes, StatSigSet+StatCode(k))
	}
	codes = append(codes, StatOutMode, StatOutSet, StatSelftest, StatCntPretrig, StatEnPretrig, StatIrqCount)

	out := make(map[string]uint32, len(codes))
	for _, code := range codes {
		v, err := d.GetStat(ch, code)
		if err != nil {
			return nil, err
		}
		out[code.Name()] = v
	}
	return out, nil
}
