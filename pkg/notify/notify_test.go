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

package notify

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
)

func TestChanSignalCollapses(t *testing.T) {
	s, _ := ChanSignaller{}.Create(7)
	cs := s.(*ChanSignal)
	cs.Send()
	cs.Send()
	cs.Send()
	if cs.Sent() != 3 || cs.Code() != 7 {
		t.Fatalf("sent %d code %d", cs.Sent(), cs.Code())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := cs.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if err := cs.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("second wait = %v, want deadline", err)
	}
}

func TestChanSignalRemoveReleasesWaiter(t *testing.T) {
	s, _ := ChanSignaller{}.Create(1)
	cs := s.(*ChanSignal)
	errc := make(chan error, 1)
	go func() { errc <- cs.Wait(context.Background()) }()
	cs.Remove()
	cs.Remove()
	select {
	case err := <-errc:
		if !errors.As(err, &ErrRemoved{}) {
			t.Errorf("wait = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}
}

func TestProcSignal(t *testing.T) {
	if _, err := (ProcSignaller{Pid: os.Getpid()}).Create(0); !errors.As(err, &ifc.ErrInvalidCode{}) {
		t.Errorf("code 0 = %v", err)
	}
	got := make(chan os.Signal, 1)
	signal.Notify(got, syscall.SIGUSR1)
	defer signal.Stop(got)

	s, err := ProcSignaller{Pid: os.Getpid()}.Create(uint32(syscall.SIGUSR1))
	if err != nil {
		t.Fatal(err)
	}
	s.Send()
	select {
	case sig := <-got:
		if sig != syscall.SIGUSR1 {
			t.Errorf("got %v", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("signal not delivered")
	}
}

func TestTee(t *testing.T) {
	s, err := Tee{ChanSignaller{}, ChanSignaller{}}.Create(3)
	if err != nil {
		t.Fatal(err)
	}
	if s.Code() != 3 {
		t.Errorf("code %d", s.Code())
	}
	s.Send()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.(Waiter).Wait(ctx); err != nil {
		t.Errorf("wait: %v", err)
	}

	if _, err := (Tee{ChanSignaller{}, ProcSignaller{Pid: os.Getpid()}}).Create(100); !errors.As(err, &ifc.ErrInvalidCode{}) {
		t.Errorf("invalid member = %v", err)
	}
}
