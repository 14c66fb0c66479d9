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
	"errors"
	"os"
	"testing"

	"jinr.ru/greenlab/go-m72/pkg/config"
	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/irq"
	"jinr.ru/greenlab/go-m72/pkg/notify"
	"jinr.ru/greenlab/go-m72/pkg/regfile/sim"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

type fakeSignal struct {
	code    uint32
	sent    int
	removed bool
}

func (s *fakeSignal) Code() uint32 { return s.code }
func (s *fakeSignal) Send()        { s.sent++ }
func (s *fakeSignal) Remove() error {
	s.removed = true
	return nil
}

type fakeSignaller struct {
	created []*fakeSignal
}

func (f *fakeSignaller) Create(code uint32) (ifc.Signal, error) {
	s := &fakeSignal{code: code}
	f.created = append(f.created, s)
	return s, nil
}

type fakeIdentity struct {
	words map[uint8]uint16
	err   error
}

func (f *fakeIdentity) ReadWord(addr uint8) (uint16, error) {
	return f.words[addr], f.err
}

func (f *fakeIdentity) ReadImage() ([]byte, error) {
	return make([]byte, registers.IdSize), f.err
}

type fakeLoader struct {
	err   error
	calls int
}

func (f *fakeLoader) Load() error {
	f.calls++
	return f.err
}

type testBench struct {
	dev  *Device
	sim  *sim.Model
	line *irq.Line
	sigs *fakeSignaller
}

func testConfig() *config.DeviceConfig {
	cfg := config.NewDefaultDeviceConfig()
	cfg.Name = "m72-test"
	cfg.PLDLoad = false
	return cfg
}

func newBench(t *testing.T, cfg *config.DeviceConfig) *testBench {
	t.Helper()
	b := &testBench{
		sim:  sim.New(),
		line: irq.NewLine("test"),
		sigs: &fakeSignaller{},
	}
	b.sim.SetLine(b.line)
	b.sim.RecordWrites(true)
	dev, err := New(cfg, Params{Regs: b.sim, Line: b.line, Signaller: b.sigs})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b.dev = dev
	b.sim.ResetWrites()
	t.Cleanup(func() { dev.Close() })
	return b
}

func TestNewProgramsChannels(t *testing.T) {
	cfg := testConfig()
	cfg.Channels[1] = config.ChannelConfig{
		Mode:        uint32(registers.ModePeriod),
		Preload:     uint32(registers.LoadComp),
		Clear:       uint32(registers.LoadXin2),
		Store:       uint32(registers.StoreXin2),
		EnbIrq:      1,
		CompIrq:     uint32(registers.CompInRange),
		CybwIrq:     uint32(registers.CybwBorrow),
		LbreakIrq:   1,
		ValCompA:    0x00010002,
		ValCompB:    0x00030004,
		ValPreload:  0x00050006,
		ReadMode:    uint32(registers.ReadLatch),
		ReadTimeout: 100,
		WriteMode:   uint32(registers.WritePreload),
		TimerStart:  uint32(registers.TimerNow),
	}
	cfg.OutMode = 0x00120034
	cfg.OutSet = 0x5
	b := newBench(t, cfg)

	want := registers.CountCtrl(0).WithPreload(registers.LoadComp).WithClear(registers.LoadXin2).
		WithStore(registers.StoreXin2).WithTimerStart(registers.TimerNow).WithMode(registers.ModePeriod)
	if got := registers.CountCtrl(b.sim.Reg(registers.ChReg(1, registers.RegCountCtrl))); got != want {
		t.Errorf("COUNT_CTRL(1) = %s, want %s", got, want)
	}
	if got := b.sim.Reg(registers.ChReg(1, registers.RegIrqCtrl)); got != 0x00c9 {
		t.Errorf("IRQ_CTRL(1) = 0x%04x, want 0x00c9", got)
	}
	if b.sim.Preload(1) != 0x00050006 || b.sim.Reg(registers.ChReg(1, registers.RegCompBHigh)) != 3 {
		t.Errorf("values not written")
	}
	if b.sim.Reg(registers.RegOutCtrl1) != 0x34 || b.sim.Reg(registers.RegOutCtrl2) != 0x12 ||
		b.sim.Read16(registers.RegOutConfig) != 5 {
		t.Errorf("output registers not written")
	}
	if v, _ := b.dev.GetStat(0, StatCntPretrig); v != PretrigMinOffset {
		t.Errorf("pretrigger offset starts at %d", v)
	}
}

func TestNewValidatesBeforeTouchingHardware(t *testing.T) {
	m := sim.New()
	m.RecordWrites(true)
	cfg := testConfig()
	cfg.Channels[2].Mode = 8
	_, err := New(cfg, Params{Regs: m, Line: irq.NewLine("test")})
	var inv ErrInvalidParameter
	if !errors.As(err, &inv) {
		t.Fatalf("New = %v, want ErrInvalidParameter", err)
	}
	if len(m.Writes()) != 0 {
		t.Errorf("%d registers written before validation failed", len(m.Writes()))
	}
}

func TestNewIdentity(t *testing.T) {
	good := map[uint8]uint16{0: registers.IdMagic, 1: registers.IdModId}
	tests := []struct {
		name    string
		ident   *fakeIdentity
		loadErr error
		pldLoad bool
		wantErr bool
		loaded  bool
	}{
		{"match", &fakeIdentity{words: good}, nil, true, false, true},
		{"wrong magic", &fakeIdentity{words: map[uint8]uint16{0: 0x1234, 1: registers.IdModId}}, nil, true, true, false},
		{"wrong id", &fakeIdentity{words: map[uint8]uint16{0: registers.IdMagic, 1: 71}}, nil, true, true, false},
		{"read error", &fakeIdentity{err: errors.New("no ack")}, nil, true, true, false},
		{"load error", &fakeIdentity{words: good}, errors.New("nSTATUS low"), true, true, true},
		{"no pld skips id", &fakeIdentity{words: map[uint8]uint16{}}, nil, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := sim.New()
			m.RecordWrites(true)
			line := irq.NewLine("test")
			loader := &fakeLoader{err: tt.loadErr}
			cfg := testConfig()
			cfg.IDCheck = true
			cfg.PLDLoad = tt.pldLoad
			dev, err := New(cfg, Params{Regs: m, Line: line, Identity: tt.ident, Loader: loader})
			if tt.wantErr {
				var mismatch ErrIdentityMismatch
				if !errors.As(err, &mismatch) {
					t.Fatalf("New = %v, want ErrIdentityMismatch", err)
				}
				if len(m.Writes()) != 0 {
					t.Errorf("hardware touched after failed bring-up")
				}
			} else if err != nil {
				t.Fatalf("New = %v", err)
			} else {
				defer dev.Close()
			}
			if (loader.calls == 1) != tt.loaded {
				t.Errorf("loader called %d times", loader.calls)
			}
		})
	}
}

func TestImmediateActionsRestorePersistedConditions(t *testing.T) {
	b := newBench(t, testConfig())
	for ch := 0; ch < registers.NumChannels; ch++ {
		for cond := registers.LoadNone; cond <= registers.LoadComp; cond++ {
			if cond == registers.LoadNow {
				continue
			}
			if err := b.dev.CounterClear(ch, cond); err != nil {
				t.Fatal(err)
			}
			if err := b.dev.CounterLoad(ch, cond); err != nil {
				t.Fatal(err)
			}
			before := b.dev.ch[ch].countCtrl
			reg := registers.ChReg(ch, registers.RegCountCtrl)

			b.sim.ResetWrites()
			b.dev.CounterClear(ch, registers.LoadNow)
			b.dev.CounterLoad(ch, registers.LoadNow)
			b.dev.CounterStore(ch, registers.StoreNow)
			writes := b.sim.WritesTo(reg)
			if len(writes) != 6 {
				t.Fatalf("ch %d: %d COUNT_CTRL writes, want 6", ch, len(writes))
			}
			pulses := []registers.CountCtrl{
				before.WithClear(registers.LoadNow),
				before.WithPreload(registers.LoadNow),
				before.WithStore(registers.StoreNow),
			}
			for i, p := range pulses {
				if writes[2*i] != uint16(p) || writes[2*i+1] != uint16(before) {
					t.Errorf("ch %d pulse %d: wrote 0x%04x 0x%04x", ch, i, writes[2*i], writes[2*i+1])
				}
			}
			if b.dev.ch[ch].countCtrl != before {
				t.Errorf("ch %d: persisted word changed %s -> %s", ch, before, b.dev.ch[ch].countCtrl)
			}
		}
	}
}

func TestStoreConditionLayout(t *testing.T) {
	b := newBench(t, testConfig())
	if err := b.dev.SetStat(3, StatCntStore, uint32(registers.StoreXin2)); err != nil {
		t.Fatal(err)
	}
	if got := b.sim.Reg(registers.ChReg(3, registers.RegCountCtrl)) & registers.CountStoreMask; got != 0x20 {
		t.Errorf("store xIN2 encodes as 0x%02x", got)
	}
	if err := b.dev.SetStat(3, StatCntStore, 3); !errors.As(err, &ErrInvalidParameter{}) {
		t.Errorf("store 3 = %v", err)
	}
}

func TestReservedModeRejected(t *testing.T) {
	b := newBench(t, testConfig())
	for ch := 0; ch < registers.NumChannels; ch++ {
		b.dev.SetMode(ch, registers.ModeSingle)
		before := b.sim.Reg(registers.ChReg(ch, registers.RegCountCtrl))
		b.sim.ResetWrites()
		err := b.dev.SetStat(ch, StatCntMode, 8)
		var inv ErrInvalidParameter
		if !errors.As(err, &inv) {
			t.Errorf("ch %d: mode 8 = %v", ch, err)
		}
		if len(b.sim.Writes()) != 0 || b.sim.Reg(registers.ChReg(ch, registers.RegCountCtrl)) != before {
			t.Errorf("ch %d: control word modified", ch)
		}
		if b.dev.ch[ch].Mode() != registers.ModeSingle {
			t.Errorf("ch %d: shadow mode changed", ch)
		}
	}
	if err := b.dev.SetStat(0, StatCntMode, 11); err == nil {
		t.Errorf("mode 11 accepted")
	}
}

func TestDisablingIrqClearsPending(t *testing.T) {
	b := newBench(t, testConfig())
	for ch := 0; ch < registers.NumChannels; ch++ {
		b.dev.SetIrqEnabled(ch, true)
		b.sim.Raise(ch, registers.PendComp|registers.PendCybw)
		if s, _ := b.dev.IntStatus(ch); s != registers.PendComp|registers.PendCybw {
			t.Fatalf("ch %d: status 0x%02x after interrupt", ch, s)
		}
		b.dev.SetIrqEnabled(ch, false)
		if b.dev.ch[ch].pending != 0 {
			t.Errorf("ch %d: pending shadow 0x%02x after disable", ch, b.dev.ch[ch].pending)
		}
	}
}

func TestIntStatusPollsHardwareWhenDisabled(t *testing.T) {
	b := newBench(t, testConfig())
	b.sim.Raise(3, registers.PendLbreak|registers.PendReady)
	s, err := b.dev.GetStat(3, StatIntStatus)
	if err != nil || s != 0x09 {
		t.Fatalf("status = 0x%02x %v", s, err)
	}
	if err := b.dev.SetStat(3, StatIntStatus, uint32(registers.PendLbreak)); err != nil {
		t.Fatal(err)
	}
	if got := b.sim.WritesTo(registers.RegIrqState2); len(got) != 1 || got[0] != 0x0800 {
		t.Errorf("clear wrote %v", got)
	}
	if s, _ := b.dev.GetStat(3, StatIntStatus); s != uint32(registers.PendReady) {
		t.Errorf("status after clear = 0x%02x", s)
	}
	if err := b.dev.SetStat(3, StatIntStatus, 0x20); err == nil {
		t.Errorf("clear mask 0x20 accepted")
	}
}

func TestHandlerClaimsOnlyEnabledChannels(t *testing.T) {
	b := newBench(t, testConfig())
	b.sim.Raise(2, registers.PendComp)
	b.line.Raise()
	if b.line.Unclaimed() != 1 || b.dev.IrqCount() != 0 {
		t.Fatalf("disabled channel claimed: unclaimed %d count %d", b.line.Unclaimed(), b.dev.IrqCount())
	}
	if b.sim.Pending() == 0 {
		t.Errorf("bits of a disabled channel were acknowledged")
	}

	b.dev.SetIrqEnabled(1, true)
	b.sim.Raise(1, registers.PendCybw)
	if b.dev.IrqCount() != 1 {
		t.Fatalf("irq count %d", b.dev.IrqCount())
	}
	if b.sim.Pending()&0xff00 != 0 {
		t.Errorf("pending bits of channel 1 not cleared: 0x%08x", b.sim.Pending())
	}
	if s, _ := b.dev.IntStatus(1); s != registers.PendCybw {
		t.Errorf("shadow 0x%02x", s)
	}
	b.dev.ClearIntStatus(1, uint32(registers.PendCybw))
	if s, _ := b.dev.IntStatus(1); s != 0 {
		t.Errorf("shadow not cleared")
	}
}

func TestPretrigPreloads(t *testing.T) {
	tests := []struct {
		v, offset uint32
		b, c      uint32
	}{
		{1000, 25, 975, 475},
		{10, 25, 4294967281, 4294967276},
		{0x80000000, 100, 0x7fffff9c, 0x3fffff9c},
	}
	for _, tt := range tests {
		b, c := PretrigPreloads(tt.v, tt.offset)
		if b != tt.b || c != tt.c {
			t.Errorf("PretrigPreloads(%d, %d) = %d %d, want %d %d", tt.v, tt.offset, b, c, tt.b, tt.c)
		}
	}
}

func TestPretriggerArm(t *testing.T) {
	b := newBench(t, testConfig())
	if err := b.dev.SetStat(0, StatEnPretrig, 1); err != nil {
		t.Fatal(err)
	}
	if got := b.sim.Reg(registers.ChReg(PretrigRef, registers.RegCountCtrl)); got != 0x0aa1 {
		t.Errorf("reference control 0x%04x", got)
	}
	for _, n := range []int{PretrigSlaveB, PretrigSlaveC} {
		if got := b.sim.Reg(registers.ChReg(n, registers.RegCountCtrl)); got != 0x0a04 {
			t.Errorf("slave %d control 0x%04x", n, got)
		}
		if got := b.sim.Reg(registers.ChReg(n, registers.RegIrqCtrl)); got != 0x0030 {
			t.Errorf("slave %d irq control 0x%04x", n, got)
		}
	}
	if b.sim.Reg(registers.RegOutCtrl1) != 0 || b.sim.Reg(registers.RegOutCtrl2) != 0x2400 {
		t.Errorf("output routing not set")
	}
	if b.sim.Read16(registers.RegOutConfig) != 1 {
		t.Errorf("output 1 must be high")
	}
	ref := b.dev.ch[PretrigRef]
	if !ref.IrqEnabled() || !ref.irqCtrl.Xin2() {
		t.Errorf("reference interrupt not enabled: %s", ref.irqCtrl)
	}
	if ref.Mode() != registers.ModeTimer || ref.StoreCond() != registers.StoreXin2 {
		t.Errorf("shadow does not follow the arm sequence: %s", ref.countCtrl)
	}
}

func TestPretriggerEdgeUpdatesSlaves(t *testing.T) {
	b := newBench(t, testConfig())
	b.dev.SetPretriggerOffset(25)
	b.dev.SetPretrigger(true)

	b.sim.SetLatch(PretrigRef, 1000)
	b.sim.Raise(PretrigRef, registers.PendXin2)
	if b.sim.Preload(PretrigSlaveB) != 975 || b.sim.Preload(PretrigSlaveC) != 475 {
		t.Errorf("slaves %d %d", b.sim.Preload(PretrigSlaveB), b.sim.Preload(PretrigSlaveC))
	}

	b.sim.SetLatch(PretrigRef, 10)
	b.sim.Raise(PretrigRef, registers.PendXin2)
	if b.sim.Preload(PretrigSlaveB) != 4294967281 {
		t.Errorf("slave B did not wrap: %d", b.sim.Preload(PretrigSlaveB))
	}

	b.dev.SetPretriggerOffset(3)
	if b.dev.PretriggerOffset() != PretrigMinOffset {
		t.Errorf("offset below the floor kept: %d", b.dev.PretriggerOffset())
	}
}

func TestPretriggerStopsOnNextEdge(t *testing.T) {
	b := newBench(t, testConfig())
	b.dev.SetPretrigger(true)
	b.sim.SetLatch(PretrigRef, 1000)
	b.sim.Raise(PretrigRef, registers.PendXin2)

	b.sim.ResetWrites()
	if err := b.dev.SetPretrigger(false); err != nil {
		t.Fatal(err)
	}
	if len(b.sim.Writes()) != 0 {
		t.Fatalf("disable wrote %d registers before the edge", len(b.sim.Writes()))
	}
	if !b.dev.PretriggerArmed() {
		t.Fatalf("disarmed before the edge")
	}

	b.sim.Raise(PretrigRef, registers.PendXin2)
	if b.sim.Preload(PretrigSlaveB) != PretrigParked || b.sim.Preload(PretrigSlaveC) != PretrigParked {
		t.Errorf("slaves not parked: 0x%08x 0x%08x", b.sim.Preload(PretrigSlaveB), b.sim.Preload(PretrigSlaveC))
	}
	ref := registers.IrqCtrl(b.sim.Reg(registers.ChReg(PretrigRef, registers.RegIrqCtrl)))
	if ref.Enabled() || ref.Xin2() {
		t.Errorf("reference interrupt still on: %s", ref)
	}
	if en, _ := b.dev.GetStat(PretrigRef, StatEnbIrq); en != 0 {
		t.Errorf("shadow enable still set")
	}

	// further edges are not ours any more
	count := b.dev.IrqCount()
	b.sim.Raise(PretrigRef, registers.PendXin2)
	b.line.Raise()
	if b.dev.IrqCount() != count {
		t.Errorf("handler claimed an edge after teardown")
	}
}

func TestWaitReadTimeout(t *testing.T) {
	b := newBench(t, testConfig())
	ch := 2
	b.dev.SetReadMode(ch, registers.ReadWait)
	b.dev.SetReadTimeout(ch, 0)
	before := *b.dev.ch[ch]

	_, err := b.dev.ReadCounter(ch)
	var tmo ErrTimeout
	if !errors.As(err, &tmo) {
		t.Fatalf("ReadCounter = %v, want ErrTimeout", err)
	}
	b.dev.SetReadTimeout(ch, 5)
	if _, err = b.dev.ReadCounter(ch); !errors.As(err, &tmo) {
		t.Fatalf("ReadCounter = %v, want ErrTimeout", err)
	}
	after := b.dev.ch[ch]
	if after.countCtrl != before.countCtrl || after.irqCtrl != before.irqCtrl || after.readMode != before.readMode {
		t.Errorf("timeout changed the channel")
	}
}

func TestWaitReadReleasedByReadyInterrupt(t *testing.T) {
	b := newBench(t, testConfig())
	ch := 1
	b.dev.SetIrqEnabled(ch, true)
	b.dev.SetReadMode(ch, registers.ReadWait)
	b.dev.SetReadTimeout(ch, 2000)
	b.sim.SetLatch(ch, 77)

	b.sim.Raise(ch, registers.PendReady)
	v, err := b.dev.ReadCounter(ch)
	if err != nil || v != 77 {
		t.Errorf("ReadCounter = %d %v", v, err)
	}
}

func TestCounterRoundTrip(t *testing.T) {
	b := newBench(t, testConfig())
	for ch := 0; ch < registers.NumChannels; ch++ {
		b.dev.SetWriteMode(ch, registers.WritePreload)
		b.dev.SetReadMode(ch, registers.ReadLatch)
		if err := b.dev.WriteCounter(ch, 0xABCD1234); err != nil {
			t.Fatal(err)
		}
		b.dev.CounterLoad(ch, registers.LoadNow)
		b.dev.CounterStore(ch, registers.StoreNow)
		v, err := b.dev.ReadCounter(ch)
		if err != nil || v != 0xABCD1234 {
			t.Errorf("ch %d: read 0x%08x %v", ch, v, err)
		}
	}
}

func TestWritePreloadOnlyTouchesRegister(t *testing.T) {
	b := newBench(t, testConfig())
	b.sim.SetCount(2, 10)
	b.dev.SetWriteMode(2, registers.WritePreload)
	if err := b.dev.WriteCounter(2, 0x00010002); err != nil {
		t.Fatal(err)
	}
	if b.sim.Preload(2) != 0x00010002 {
		t.Errorf("preload register 0x%08x", b.sim.Preload(2))
	}
	if b.sim.Count(2) != 10 {
		t.Errorf("counter loaded in preload write mode: %d", b.sim.Count(2))
	}
	lo := b.sim.WritesTo(registers.ChReg(2, registers.RegPreloadLow))
	hi := b.sim.WritesTo(registers.ChReg(2, registers.RegPreloadHigh))
	if len(lo) != 1 || len(hi) != 1 || lo[0] != 2 || hi[0] != 1 {
		t.Errorf("preload writes low %v high %v", lo, hi)
	}
}

func TestWriteNowLoadsCounter(t *testing.T) {
	b := newBench(t, testConfig())
	b.dev.WriteCounter(3, 4242)
	if b.sim.Count(3) != 4242 {
		t.Errorf("write mode now did not load the counter")
	}
	v, _ := b.dev.ReadCounter(3)
	if v != 4242 {
		t.Errorf("read mode now did not latch: %d", v)
	}
}

func TestFreqStart(t *testing.T) {
	b := newBench(t, testConfig())
	if err := b.dev.SetStat(0, StatFreqStart, 0); !errors.As(err, &ErrInvalidParameter{}) {
		t.Errorf("freq start outside freq mode = %v", err)
	}
	b.dev.SetMode(0, registers.ModeFreq)
	b.sim.ResetWrites()
	if err := b.dev.SetStat(0, StatFreqStart, 0); err != nil {
		t.Fatal(err)
	}
	w := b.sim.WritesTo(registers.ChReg(0, registers.RegCountCtrl))
	if len(w) != 1 || !registers.CountCtrl(w[0]).Timebase() {
		t.Errorf("timebase not pulsed: %v", w)
	}
	if b.dev.ch[0].countCtrl.Timebase() {
		t.Errorf("timebase kept in the shadow")
	}
}

func TestSignalSlots(t *testing.T) {
	b := newBench(t, testConfig())
	if err := b.dev.SetStat(1, StatSigSet+StatCode(SigComp), 10); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 2; i++ {
		var conflict ErrSignalConflict
		if err := b.dev.SetStat(1, StatSigSet+StatCode(SigComp), 11); !errors.As(err, &conflict) {
			t.Errorf("install %d = %v, want ErrSignalConflict", i+2, err)
		}
	}
	if v, _ := b.dev.GetStat(1, StatSigSet+StatCode(SigComp)); v != 10 {
		t.Errorf("installed code %d", v)
	}
	var missing ErrSignalNotInstalled
	if err := b.dev.SetStat(1, StatSigClr+StatCode(SigXin2), 0); !errors.As(err, &missing) {
		t.Errorf("remove empty slot = %v", err)
	}
	if err := b.dev.SetStat(1, StatSigSet+StatCode(SigReady), 0); !errors.As(err, &ErrInvalidParameter{}) {
		t.Errorf("signal code 0 = %v", err)
	}

	b.dev.SetIrqEnabled(1, true)
	b.sim.Raise(1, registers.PendComp)
	if sent := b.sigs.created[0].sent; sent != 1 {
		t.Errorf("comparator signal sent %d times", sent)
	}
	if err := b.dev.SetStat(1, StatSigClr+StatCode(SigComp), 0); err != nil {
		t.Fatal(err)
	}
	if !b.sigs.created[0].removed {
		t.Errorf("signal not removed")
	}
}

func TestInstallSignalInvalidCode(t *testing.T) {
	line := irq.NewLine("test")
	regs := sim.New()
	regs.SetLine(line)
	sigs := notify.Tee{notify.ChanSignaller{}, notify.ProcSignaller{Pid: os.Getpid()}}
	dev, err := New(testConfig(), Params{Regs: regs, Line: line, Signaller: sigs})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer dev.Close()

	err = dev.InstallSignal(0, SigReady, 200)
	if !errors.As(err, &ErrInvalidParameter{}) {
		t.Fatalf("install code 200 = %v, want ErrInvalidParameter", err)
	}
	if errors.As(err, &ErrResourceExhaustion{}) {
		t.Errorf("install code 200 reported as resource exhaustion")
	}
	if err := dev.RemoveSignal(0, SigReady); !errors.As(err, &ErrSignalNotInstalled{}) {
		t.Errorf("slot not empty after failed install: %v", err)
	}
}

func TestStatSurface(t *testing.T) {
	b := newBench(t, testConfig())
	get := func(code StatCode) uint32 {
		v, err := b.dev.GetStat(0, code)
		if err != nil {
			t.Fatalf("GetStat(%s): %v", code, err)
		}
		return v
	}
	if get(StatChNumber) != 4 || get(StatChLen) != 32 || get(StatChDir) != ChDirInOut || get(StatIdSize) != 128 {
		t.Errorf("generic codes wrong")
	}
	if err := b.dev.SetStat(0, StatChDir, ChDirIn); !errors.As(err, &ErrInvalidParameter{}) {
		t.Errorf("direction in accepted")
	}
	if err := b.dev.SetStat(0, StatChLen, 16); !errors.As(err, &ErrUnsupportedOperation{}) {
		t.Errorf("set of a get only code = %v", err)
	}
	if _, err := b.dev.GetStat(0, StatFreqStart); !errors.As(err, &ErrUnsupportedOperation{}) {
		t.Errorf("get of a set only code = %v", err)
	}
	if _, err := b.dev.GetStat(0, 0x2ff); !errors.As(err, &ErrUnsupportedOperation{}) {
		t.Errorf("unknown code = %v", err)
	}
	if err := b.dev.SetStat(0, StatWriteMode, 1); !errors.As(err, &ErrInvalidParameter{}) {
		t.Errorf("write mode 1 accepted")
	}
	if err := b.dev.SetStat(0, StatOutSet, 0x10); !errors.As(err, &ErrInvalidParameter{}) {
		t.Errorf("out set 0x10 accepted")
	}
	b.dev.SetStat(2, StatValCompA, 0xdeadbeef)
	if v, _ := b.dev.GetStat(2, StatValCompA); v != 0xdeadbeef {
		t.Errorf("comparator A readback 0x%08x", v)
	}
	b.dev.SetStat(0, StatOutMode, 0x24000001)
	if get(StatOutMode) != 0x24000001 {
		t.Errorf("out mode readback")
	}
	b.dev.SetStat(0, StatIrqCount, 7)
	if get(StatIrqCount) != 7 {
		t.Errorf("irq count not settable")
	}
	b.dev.SetStat(3, StatXin2Irq, 1)
	if v, _ := b.dev.GetStat(3, StatXin2Irq); v != 1 {
		t.Errorf("xIN2 irq not settable")
	}

	snap, err := b.dev.Snapshot(2)
	if err != nil {
		t.Fatal(err)
	}
	if snap["val-compa"] != 0xdeadbeef || snap["read-timeout"] != registers.ReadTimeoutForever {
		t.Errorf("snapshot %v", snap)
	}

	code, err := ParseStatCode("en-pretrig")
	if err != nil || code != StatEnPretrig {
		t.Errorf("ParseStatCode = %s %v", code, err)
	}
	if code, _ := ParseStatCode("sigset-lbreak"); code != StatSigSet+StatCode(SigLbreak) {
		t.Errorf("signal code name %s", code)
	}
	if code, _ := ParseStatCode("0x20a"); code != StatReadMode {
		t.Errorf("numeric code %s", code)
	}
}

func TestBlockIOUnsupported(t *testing.T) {
	b := newBench(t, testConfig())
	if _, err := b.dev.BlockRead(0, make([]byte, 4)); !errors.As(err, &ErrUnsupportedOperation{}) {
		t.Errorf("BlockRead = %v", err)
	}
	if _, err := b.dev.BlockWrite(0, make([]byte, 4)); !errors.As(err, &ErrUnsupportedOperation{}) {
		t.Errorf("BlockWrite = %v", err)
	}
}

func TestClose(t *testing.T) {
	b := newBench(t, testConfig())
	b.dev.SetIrqEnabled(0, true)
	b.dev.SetMode(0, registers.ModeTimer)
	b.dev.InstallSignal(0, SigReady, 5)
	b.sim.Raise(1, registers.PendComp)

	if err := b.dev.Close(); err != nil {
		t.Fatal(err)
	}
	for ch := 0; ch < registers.NumChannels; ch++ {
		if b.sim.Reg(registers.ChReg(ch, registers.RegCountCtrl)) != 0 ||
			b.sim.Reg(registers.ChReg(ch, registers.RegIrqCtrl)) != 0 {
			t.Errorf("ch %d not quiesced", ch)
		}
	}
	if b.sim.Pending() != 0 {
		t.Errorf("pending flags left: 0x%08x", b.sim.Pending())
	}
	if !b.sigs.created[0].removed {
		t.Errorf("signal not released")
	}
	if _, err := b.dev.ReadCounter(0); !errors.As(err, &ErrClosed{}) {
		t.Errorf("read after close = %v", err)
	}
	if err := b.dev.Close(); err != nil {
		t.Errorf("second close = %v", err)
	}
}
