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

package irq

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRaiseDispatchesSynchronously(t *testing.T) {
	l := NewLine("test")
	calls := 0
	if err := l.Attach("dev", func() bool { calls++; return true }); err != nil {
		t.Fatal(err)
	}
	l.Raise()
	l.Raise()
	if calls != 2 || l.Count() != 2 || l.Unclaimed() != 0 {
		t.Errorf("calls=%d count=%d unclaimed=%d", calls, l.Count(), l.Unclaimed())
	}
}

func TestMaskDefersDelivery(t *testing.T) {
	l := NewLine("test")
	calls := 0
	l.Attach("dev", func() bool { calls++; return true })

	l.Mask()
	l.Raise()
	l.Raise()
	if calls != 0 {
		t.Fatalf("handler ran while masked")
	}
	l.Restore()
	// edges raised while masked collapse into one delivery
	if calls != 1 {
		t.Errorf("calls after restore = %d, want 1", calls)
	}
}

func TestUnclaimedEdges(t *testing.T) {
	l := NewLine("shared")
	l.Attach("a", func() bool { return false })
	l.Attach("b", func() bool { return false })
	l.Raise()
	if l.Unclaimed() != 1 {
		t.Errorf("unclaimed = %d, want 1", l.Unclaimed())
	}
}

func TestAttachErrors(t *testing.T) {
	l := NewLine("test")
	if err := l.Attach("dev", func() bool { return true }); err != nil {
		t.Fatal(err)
	}
	var exists ErrHandlerExists
	if err := l.Attach("dev", func() bool { return true }); !errors.As(err, &exists) {
		t.Errorf("expected ErrHandlerExists, got %v", err)
	}
	l.Detach("dev")
	for i := 0; i < MaxHandlers; i++ {
		if err := l.Attach(string(rune('a'+i)), func() bool { return true }); err != nil {
			t.Fatal(err)
		}
	}
	var full ErrLineFull
	if err := l.Attach("overflow", func() bool { return true }); !errors.As(err, &full) {
		t.Errorf("expected ErrLineFull, got %v", err)
	}
}

func TestHandlerNeverOverlapsMaskedSection(t *testing.T) {
	l := NewLine("test")
	var inside sync.Mutex
	shared := 0
	l.Attach("dev", func() bool {
		if !inside.TryLock() {
			t.Errorf("handler overlapped a masked section")
			return true
		}
		shared++
		inside.Unlock()
		return true
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			l.Raise()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			l.Mask()
			if !inside.TryLock() {
				t.Errorf("masked section overlapped the handler")
			} else {
				shared++
				inside.Unlock()
			}
			l.Restore()
		}
	}()
	wg.Wait()
	if shared < 1000 {
		t.Errorf("shared = %d", shared)
	}
}

func TestPoll(t *testing.T) {
	l := NewLine("poll")
	done := make(chan struct{}, 1)
	l.Attach("dev", func() bool {
		select {
		case done <- struct{}{}:
		default:
		}
		return false
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Poll(ctx, l, time.Millisecond)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poll never raised the line")
	}
}
