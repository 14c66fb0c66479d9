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
	"context"
	"time"

	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// semaphore is a binary semaphore signalled from the interrupt handler.
// Signals given while nobody waits collapse into one.
type semaphore struct {
	c chan struct{}
}

func newSemaphore() *semaphore {
	return &semaphore{c: make(chan struct{}, 1)}
}

// signal never blocks
func (s *semaphore) signal() {
	select {
	case s.c <- struct{}{}:
	default:
	}
}

// drain drops a pending signal
func (s *semaphore) drain() {
	select {
	case <-s.c:
	default:
	}
}

// wait blocks for a signal. A timeout of 0 only takes a pending signal,
// ReadTimeoutForever waits until the context or the device is done.
func (s *semaphore) wait(ctx context.Context, done <-chan struct{}, timeoutMs uint32) error {
	select {
	case <-s.c:
		return nil
	default:
	}
	if timeoutMs == 0 {
		return errSemTimeout
	}
	var expired <-chan time.Time
	if timeoutMs != registers.ReadTimeoutForever {
		t := time.NewTimer(time.Duration(timeoutMs) * time.Millisecond)
		defer t.Stop()
		expired = t.C
	}
	select {
	case <-s.c:
		return nil
	case <-expired:
		return errSemTimeout
	case <-done:
		return ErrClosed{}
	case <-ctx.Done():
		return ctx.Err()
	}
}

type semTimeout struct{}

func (semTimeout) Error() string { return "semaphore timeout" }

var errSemTimeout error = semTimeout{}
