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

package config

import (
	"errors"
	"path/filepath"
	"testing"

	"jinr.ru/greenlab/go-m72/pkg/registers"
)

func TestDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Device.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	c := cfg.Device.Channels[3]
	if c.ReadMode != uint32(registers.ReadNow) || c.ReadTimeout != registers.ReadTimeoutForever ||
		c.WriteMode != uint32(registers.WriteNow) {
		t.Errorf("unexpected channel defaults %+v", c)
	}
	if !cfg.Device.IDCheck || !cfg.Device.PLDLoad {
		t.Errorf("id check and pld load default to on")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *DeviceConfig)
		key    string
	}{
		{"reserved mode", func(d *DeviceConfig) { d.Channels[1].Mode = 8 }, "channel_1/mode"},
		{"store range", func(d *DeviceConfig) { d.Channels[0].Store = 3 }, "channel_0/store"},
		{"write mode one", func(d *DeviceConfig) { d.Channels[2].WriteMode = 1 }, "channel_2/write_mode"},
		{"flag range", func(d *DeviceConfig) { d.Channels[3].EnbIrq = 2 }, "channel_3/enb_irq"},
		{"out set", func(d *DeviceConfig) { d.OutSet = 0x10 }, "out_set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDefaultDeviceConfig()
			tt.mutate(d)
			var inv ErrInvalidValue
			if err := d.Validate(); !errors.As(err, &inv) || inv.Key != tt.key {
				t.Errorf("Validate() = %v, want key %s", err, tt.key)
			}
		})
	}
}

func TestPersistAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config")
	cfg := NewDefaultConfig()
	cfg.SetPath(path)
	cfg.Device.Channels[1].Mode = uint32(registers.ModeTimer)
	cfg.Device.OutMode = 0x24000000
	cfg.Server.Backend = BackendRemote
	if err := cfg.Persist(false); err != nil {
		t.Fatal(err)
	}
	var exists ErrConfigFileExists
	if err := cfg.Persist(false); !errors.As(err, &exists) {
		t.Errorf("second persist = %v", err)
	}

	loaded := NewDefaultConfig()
	loaded.SetPath(path)
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}
	if loaded.Device.Channels[1].Mode != uint32(registers.ModeTimer) ||
		loaded.Device.OutMode != 0x24000000 || loaded.Server.Backend != BackendRemote {
		t.Errorf("loaded %+v %+v", loaded.Device, loaded.Server)
	}

	missing := NewDefaultConfig()
	missing.SetPath(filepath.Join(t.TempDir(), "nope"))
	if err := missing.Load(); err != nil {
		t.Errorf("missing file must keep defaults, got %v", err)
	}
}
