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
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// ChannelConfig holds the initial settings of one counter channel. Flags
// are kept as 0/1 integers so out of range values can be rejected.
type ChannelConfig struct {
	Mode        uint32 `yaml:"mode"`
	Preload     uint32 `yaml:"preload"`
	Clear       uint32 `yaml:"clear"`
	Store       uint32 `yaml:"store"`
	EnbIrq      uint32 `yaml:"enb_irq"`
	CompIrq     uint32 `yaml:"comp_irq"`
	CybwIrq     uint32 `yaml:"cybw_irq"`
	LbreakIrq   uint32 `yaml:"lbreak_irq"`
	Xin2Irq     uint32 `yaml:"xin2_irq"`
	ValCompA    uint32 `yaml:"val_compa"`
	ValCompB    uint32 `yaml:"val_compb"`
	ValPreload  uint32 `yaml:"val_preload"`
	ReadMode    uint32 `yaml:"read_mode"`
	ReadTimeout uint32 `yaml:"read_timeout"`
	WriteMode   uint32 `yaml:"write_mode"`
	TimerStart  uint32 `yaml:"timer_start"`
}

type DeviceConfig struct {
	Name     string `yaml:"name"`
	IDCheck  bool   `yaml:"id_check"`
	PLDLoad  bool   `yaml:"pld_load"`
	PLDImage string `yaml:"pld_image,omitempty"`
	OutMode  uint32 `yaml:"out_mode"`
	OutSet   uint32 `yaml:"out_set"`

	Channels [registers.NumChannels]ChannelConfig `yaml:"channels"`
}

type ServerConfig struct {
	IP      string `yaml:"ip"`
	ApiPort int    `yaml:"api_port"`
	DBPath  string `yaml:"db_path"`
	// Backend is one of sim, mmap or remote
	Backend    string `yaml:"backend"`
	UIOPath    string `yaml:"uio_path,omitempty"`
	MmapPath   string `yaml:"mmap_path,omitempty"`
	MmapOffset int64  `yaml:"mmap_offset,omitempty"`
	RemoteAddr string `yaml:"remote_addr,omitempty"`
	// RemoteTimeoutMs bounds one register transaction with a remote carrier
	RemoteTimeoutMs int `yaml:"remote_timeout_ms"`
	// PollMs is the interrupt poll period when no UIO node is configured
	PollMs  int    `yaml:"poll_ms"`
	SimAddr string `yaml:"sim_addr"`
	// SignalPid also receives every installed signal as a unix signal
	SignalPid int `yaml:"signal_pid,omitempty"`
}

type Config struct {
	Device   *DeviceConfig `yaml:"device"`
	Server   *ServerConfig `yaml:"server"`
	LogLevel string        `yaml:"log_level"`
	filepath string
}

// DefaultChannelConfig returns the settings a channel gets when nothing is
// configured: halted, no conditions, interrupts off, read latches first
// and waits forever, write loads the counter.
func DefaultChannelConfig() ChannelConfig {
	return ChannelConfig{
		Mode:        uint32(registers.ModeNone),
		ReadMode:    uint32(registers.ReadNow),
		ReadTimeout: registers.ReadTimeoutForever,
		WriteMode:   uint32(registers.WriteNow),
		TimerStart:  uint32(registers.TimerXin2),
	}
}

func NewDefaultDeviceConfig() *DeviceConfig {
	d := &DeviceConfig{
		Name:     DefaultDevice,
		IDCheck:  true,
		PLDLoad:  true,
		PLDImage: DefaultPLDImage,
	}
	for i := range d.Channels {
		d.Channels[i] = DefaultChannelConfig()
	}
	return d
}

func flag(key string, ch int, v uint32) error {
	if v > 1 {
		return ErrInvalidValue{Key: fmt.Sprintf("channel_%d/%s", ch, key), Value: v}
	}
	return nil
}

// Validate checks every channel and the device globals
func (d *DeviceConfig) Validate() error {
	if d.OutSet > uint32(registers.OutSetMask) {
		return ErrInvalidValue{Key: "out_set", Value: d.OutSet}
	}
	for n, c := range d.Channels {
		key := func(k string) string {
			return fmt.Sprintf("channel_%d/%s", n, k)
		}
		checks := []struct {
			key   string
			value uint32
			ok    bool
		}{
			{"mode", c.Mode, registers.Mode(c.Mode).Valid()},
			{"preload", c.Preload, registers.LoadCond(c.Preload).Valid()},
			{"clear", c.Clear, registers.LoadCond(c.Clear).Valid()},
			{"store", c.Store, registers.StoreCond(c.Store).Valid()},
			{"comp_irq", c.CompIrq, registers.CompIrq(c.CompIrq).Valid()},
			{"cybw_irq", c.CybwIrq, registers.CybwIrq(c.CybwIrq).Valid()},
			{"read_mode", c.ReadMode, registers.ReadMode(c.ReadMode).Valid()},
			{"write_mode", c.WriteMode, registers.WriteMode(c.WriteMode).Valid()},
			{"timer_start", c.TimerStart, registers.TimerStart(c.TimerStart).Valid()},
		}
		for _, chk := range checks {
			if !chk.ok {
				return ErrInvalidValue{Key: key(chk.key), Value: chk.value}
			}
		}
		for k, v := range map[string]uint32{
			"enb_irq":    c.EnbIrq,
			"lbreak_irq": c.LbreakIrq,
			"xin2_irq":   c.Xin2Irq,
		} {
			if err := flag(k, n, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func NewDefaultServerConfig() *ServerConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return &ServerConfig{
		IP:              DefaultIP,
		ApiPort:         DefaultApiPort,
		DBPath:          filepath.Join(home, ConfigDir, DefaultDBFile),
		Backend:         BackendSim,
		UIOPath:         "",
		RemoteTimeoutMs: DefaultRemoteTmo,
		PollMs:          DefaultPollMs,
		SimAddr:         DefaultSimAddr,
	}
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}

	return ioutil.WriteFile(c.filepath, data, 0644)
}

// Load reads the config file over the defaults. A missing file is not an
// error.
func (c *Config) Load() error {
	data, err := ioutil.ReadFile(c.filepath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// Path returns the config file location
func (c *Config) Path() string {
	return c.filepath
}

// SetPath points the config at another file
func (c *Config) SetPath(path string) {
	c.filepath = path
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir, ConfigFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		Device:   NewDefaultDeviceConfig(),
		Server:   NewDefaultServerConfig(),
		LogLevel: DefaultLogLevel,
		filepath: DefaultConfigPath(),
	}
}
