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

// Package regfile provides the register files a device can run on: a
// memory mapped window, a networked carrier and the journal decorator that
// mirrors writes into a store.
package regfile

import (
	"sync"
	"sync/atomic"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/log"
)

const journalDepth = 4096

// Store keeps the last value written to each register
type Store interface {
	SetReg(addr, value uint16) error
}

type journalEntry struct {
	addr, value uint16
}

// Journal passes every access to the underlying register file and mirrors
// writes into a Store from its own goroutine. Write16 never blocks; when
// the queue is full the entry is dropped and counted.
type Journal struct {
	regs  ifc.RegisterFile
	store Store

	ch      chan journalEntry
	dropped atomic.Uint64
	once    sync.Once
	wg      sync.WaitGroup
}

var _ ifc.RegisterFile = &Journal{}

func NewJournal(regs ifc.RegisterFile, store Store) *Journal {
	j := &Journal{
		regs:  regs,
		store: store,
		ch:    make(chan journalEntry, journalDepth),
	}
	j.wg.Add(1)
	go j.run()
	return j
}

func (j *Journal) run() {
	defer j.wg.Done()
	for e := range j.ch {
		if err := j.store.SetReg(e.addr, e.value); err != nil {
			log.Error("Register mirror: 0x%02x: %s", e.addr, err)
		}
	}
}

func (j *Journal) Read16(off uint16) uint16 {
	return j.regs.Read16(off)
}

func (j *Journal) Write16(off, value uint16) {
	j.regs.Write16(off, value)
	select {
	case j.ch <- journalEntry{addr: off, value: value}:
	default:
		j.dropped.Add(1)
	}
}

// Dropped returns the number of writes that did not reach the store
func (j *Journal) Dropped() uint64 {
	return j.dropped.Load()
}

// Close stops accepting entries and waits until the queue is flushed. The
// journal must not be written after Close.
func (j *Journal) Close() {
	j.once.Do(func() {
		close(j.ch)
		j.wg.Wait()
	})
}
