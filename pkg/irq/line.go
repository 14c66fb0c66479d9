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

// Package irq provides an interrupt line that can be shared by several
// device handlers and masked by synchronous callers.
//
// Raise never blocks. If the line is masked or a handler is already running
// the edge is remembered and delivered by whoever releases the line, so the
// handler body always runs with the line held and never concurrently with a
// masked section.
package irq

import (
	"sync"
	"sync/atomic"

	"jinr.ru/greenlab/go-m72/pkg/log"
)

const (
	// MaxHandlers is the number of devices sharing one line
	MaxHandlers = 8
)

// Handler services one device. It returns false when the device did not
// cause the interrupt.
type Handler = func() bool

type entry struct {
	name    string
	handler Handler
}

type Line struct {
	Name string

	mu       sync.Mutex
	pending  atomic.Bool
	regMu    sync.Mutex
	handlers atomic.Value // []entry

	count     atomic.Uint64
	unclaimed atomic.Uint64
}

// NewLine ...
func NewLine(name string) *Line {
	l := &Line{Name: name}
	l.handlers.Store([]entry{})
	return l
}

// Attach registers a device handler on the line
func (l *Line) Attach(name string, h Handler) error {
	l.regMu.Lock()
	defer l.regMu.Unlock()
	cur := l.handlers.Load().([]entry)
	if len(cur) >= MaxHandlers {
		return ErrLineFull{Line: l.Name, Max: MaxHandlers}
	}
	for _, e := range cur {
		if e.name == name {
			return ErrHandlerExists{Line: l.Name, Name: name}
		}
	}
	next := make([]entry, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, entry{name: name, handler: h})
	l.handlers.Store(next)
	log.Debug("Handler %s attached to line %s", name, l.Name)
	return nil
}

// Detach removes a device handler. It waits for a running handler to finish.
func (l *Line) Detach(name string) {
	l.regMu.Lock()
	defer l.regMu.Unlock()
	l.Mask()
	cur := l.handlers.Load().([]entry)
	next := make([]entry, 0, len(cur))
	for _, e := range cur {
		if e.name != name {
			next = append(next, e)
		}
	}
	l.handlers.Store(next)
	l.Restore()
}

// Raise signals an interrupt edge
func (l *Line) Raise() {
	l.pending.Store(true)
	l.deliver()
}

func (l *Line) deliver() {
	for l.pending.Load() {
		if !l.mu.TryLock() {
			// the holder delivers on release
			return
		}
		if l.pending.Swap(false) {
			l.dispatch()
		}
		l.mu.Unlock()
	}
}

func (l *Line) dispatch() {
	l.count.Add(1)
	claimed := false
	for _, e := range l.handlers.Load().([]entry) {
		if e.handler() {
			claimed = true
		}
	}
	if !claimed {
		l.unclaimed.Add(1)
	}
}

// Mask keeps handlers from running until Restore. Masked sections must be
// short and must not call Mask again.
func (l *Line) Mask() {
	l.mu.Lock()
}

// Restore releases the line and delivers an edge raised while masked
func (l *Line) Restore() {
	l.mu.Unlock()
	l.deliver()
}

// Count returns the number of dispatched edges
func (l *Line) Count() uint64 {
	return l.count.Load()
}

// Unclaimed returns the number of edges no handler claimed
func (l *Line) Unclaimed() uint64 {
	return l.unclaimed.Load()
}
