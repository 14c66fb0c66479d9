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

package command

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"jinr.ru/greenlab/go-m72/pkg/config"
	"jinr.ru/greenlab/go-m72/pkg/registers"
	"jinr.ru/greenlab/go-m72/pkg/srv/control"
)

func newTestClient(t *testing.T) (*ApiClient, *control.ControlServer) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Device.PLDImage = ""
	cfg.Server.Backend = config.BackendSim
	cfg.Server.DBPath = filepath.Join(t.TempDir(), "m72.db")

	s, err := control.NewControlServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("control server: %s", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	c := NewApiClient(cfg)
	c.ApiPrefix = ts.URL + "/api"
	return c, s
}

func TestClientStat(t *testing.T) {
	c, _ := newTestClient(t)

	if err := c.StatSet(3, "val-compa", 1000); err != nil {
		t.Fatal(err)
	}
	v, err := c.StatGet(3, "val-compa")
	if err != nil || v != 1000 {
		t.Errorf("got %d %v", v, err)
	}
	snap, err := c.StatDump(3)
	if err != nil || snap["val-compa"] != 1000 {
		t.Errorf("dump %v %v", snap, err)
	}

	err = c.StatSet(3, "cnt-mode", 8)
	apiErr := ErrApi{}
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("reserved mode: %v", err)
	}
}

func TestClientCounterAndSignal(t *testing.T) {
	c, s := newTestClient(t)

	if err := c.CounterWrite(1, 42); err != nil {
		t.Fatal(err)
	}
	v, err := c.CounterRead(1)
	if err != nil || v != 42 {
		t.Errorf("counter %d %v", v, err)
	}

	if err := c.SignalInstall(1, "xin2", 1); err != nil {
		t.Fatal(err)
	}
	if err := c.StatSet(1, "enb-irq", 1); err != nil {
		t.Fatal(err)
	}
	s.Model().Raise(1, registers.PendXin2)
	if err := c.SignalWait(1, "xin2", 2000); err != nil {
		t.Errorf("wait: %v", err)
	}
	if err := c.SignalRemove(1, "xin2"); err != nil {
		t.Errorf("remove: %v", err)
	}
}

func TestClientPretrigAndRegs(t *testing.T) {
	c, _ := newTestClient(t)

	offset := uint32(500)
	if err := c.PretrigSet(nil, &offset); err != nil {
		t.Fatal(err)
	}
	enabled, got, err := c.Pretrig()
	if err != nil || enabled || got != 500 {
		t.Errorf("pretrig %v %d %v", enabled, got, err)
	}

	info, err := c.Info()
	if err != nil || info.Channels != registers.NumChannels {
		t.Errorf("info %+v %v", info, err)
	}
	if _, err := c.RegReadAll(); err != nil {
		t.Errorf("regs: %v", err)
	}
	if _, err := c.RegRead("0xfc"); err == nil {
		t.Errorf("unwritten register read back")
	}
}
