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

// Package notify implements the signals a device sends from its interrupt
// handler. Send never blocks.
package notify

import (
	"context"
	"sync"
	"sync/atomic"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
)

type ErrRemoved struct {
	Code uint32
}

func (e ErrRemoved) Error() string {
	return "signal removed"
}

// ChanSignal is delivered through a channel. Sends that nobody has taken
// yet collapse into one.
type ChanSignal struct {
	code uint32
	c    chan struct{}
	sent atomic.Uint64

	once    sync.Once
	removed chan struct{}
}

var _ ifc.Signal = &ChanSignal{}

func newChanSignal(code uint32) *ChanSignal {
	return &ChanSignal{
		code:    code,
		c:       make(chan struct{}, 1),
		removed: make(chan struct{}),
	}
}

func (s *ChanSignal) Code() uint32 {
	return s.code
}

func (s *ChanSignal) Send() {
	s.sent.Add(1)
	select {
	case s.c <- struct{}{}:
	default:
	}
}

// Sent returns how many times the signal was sent
func (s *ChanSignal) Sent() uint64 {
	return s.sent.Load()
}

// C returns the delivery channel
func (s *ChanSignal) C() <-chan struct{} {
	return s.c
}

// Wait blocks until the signal is sent, removed or ctx is done
func (s *ChanSignal) Wait(ctx context.Context) error {
	select {
	case <-s.c:
		return nil
	default:
	}
	select {
	case <-s.c:
		return nil
	case <-s.removed:
		return ErrRemoved{Code: s.code}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ChanSignal) Remove() error {
	s.once.Do(func() { close(s.removed) })
	return nil
}

// ChanSignaller creates channel backed signals
type ChanSignaller struct{}

var _ ifc.Signaller = ChanSignaller{}

func (ChanSignaller) Create(code uint32) (ifc.Signal, error) {
	return newChanSignal(code), nil
}

// Waiter is implemented by signals a caller can block on
type Waiter interface {
	Wait(ctx context.Context) error
}
