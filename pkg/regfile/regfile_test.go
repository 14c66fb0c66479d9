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

package regfile

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jinr.ru/greenlab/go-m72/pkg/layers"
	regsim "jinr.ru/greenlab/go-m72/pkg/regfile/sim"
	"jinr.ru/greenlab/go-m72/pkg/registers"
	simsrv "jinr.ru/greenlab/go-m72/pkg/srv/sim"
)

type memStore struct {
	mu   sync.Mutex
	regs map[uint16]uint16
}

func (s *memStore) SetReg(addr, value uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regs[addr] = value
	return nil
}

func TestJournalMirrorsWrites(t *testing.T) {
	m := regsim.New()
	store := &memStore{regs: map[uint16]uint16{}}
	j := NewJournal(m, store)

	j.Write16(registers.RegOutCtrl1, 0x1234)
	j.Write16(registers.ChReg(2, registers.RegIrqCtrl), 0x0080)
	j.Write16(registers.RegOutCtrl1, 0x4321)
	if got := j.Read16(registers.RegOutCtrl1); got != 0x4321 {
		t.Errorf("read through 0x%04x", got)
	}
	j.Close()

	if store.regs[registers.RegOutCtrl1] != 0x4321 || store.regs[0x48] != 0x0080 {
		t.Errorf("mirror %v", store.regs)
	}
	if j.Dropped() != 0 {
		t.Errorf("%d writes dropped", j.Dropped())
	}
}

func TestMmapFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "window")
	if err := os.WriteFile(path, make([]byte, os.Getpagesize()), 0600); err != nil {
		t.Fatal(err)
	}
	m, err := OpenMmap(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	m.Write16(registers.RegOutConfig, 0xbeef)
	if m.Read16(registers.RegOutConfig) != 0xbeef {
		t.Errorf("readback")
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if binary.LittleEndian.Uint16(data[registers.RegOutConfig:]) != 0xbeef {
		t.Errorf("window not shared with the file")
	}

	if _, err := OpenMmap(path, 100); err == nil {
		t.Errorf("unaligned offset accepted")
	}
}

func TestRemoteAgainstSimulatedCarrier(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	model := regsim.New()
	s, err := simsrv.NewServer(ctx, "127.0.0.1:0", model)
	if err != nil {
		t.Fatal(err)
	}
	go s.Run()

	r, err := DialRemote(s.Addr().String(), time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	r.Write16(registers.ChReg(1, registers.RegPreloadLow), 0x5678)
	r.Write16(registers.ChReg(1, registers.RegPreloadHigh), 0x1234)
	if model.Preload(1) != 0x12345678 {
		t.Errorf("preload 0x%08x", model.Preload(1))
	}
	model.SetLatch(3, 0xcafe0042)
	if lo := r.Read16(registers.ChReg(3, registers.RegCountLow)); lo != 0x0042 {
		t.Errorf("count low 0x%04x", lo)
	}

	ops, err := r.Transact([]*layers.RegOp{
		{Addr: registers.RegOutConfig, Value: 3},
		{Read: true, Addr: registers.RegOutConfig},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(ops) != 2 || ops[1].Value != 3 {
		t.Errorf("answer %v", ops)
	}
}

func TestRemoteTimeout(t *testing.T) {
	// a bound socket that never answers
	ctx, cancel := context.WithCancel(context.Background())
	s, err := simsrv.NewServer(ctx, "127.0.0.1:0", regsim.New())
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	r, err := DialRemote(s.Addr().String(), 20*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.Transact([]*layers.RegOp{{Read: true, Addr: 0}}); err == nil {
		t.Errorf("no error without an answer")
	}
	if v := r.Read16(0); v != 0 {
		t.Errorf("failed read gave 0x%04x", v)
	}
}
