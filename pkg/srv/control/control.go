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

// Package control runs one M72 module: it opens the register file backend
// and the interrupt source, brings the device up, mirrors register writes
// into bbolt and serves the HTTP API.
package control

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"jinr.ru/greenlab/go-m72/pkg/bringup"
	"jinr.ru/greenlab/go-m72/pkg/config"
	"jinr.ru/greenlab/go-m72/pkg/device"
	deviceifc "jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/irq"
	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/notify"
	"jinr.ru/greenlab/go-m72/pkg/regfile"
	regsim "jinr.ru/greenlab/go-m72/pkg/regfile/sim"
	"jinr.ru/greenlab/go-m72/pkg/registers"
	"jinr.ru/greenlab/go-m72/pkg/srv/control/ifc"
)

// simImageSize is the size of the generated PLD image of the simulator
const simImageSize = 1024

type ControlServer struct {
	context.Context
	cfg *config.Config

	// mu serializes device calls
	mu  sync.Mutex
	dev *device.Device

	line      *irq.Line
	irqSource func(ctx context.Context) error
	state     *RegState
	journal   *regfile.Journal
	model     *regsim.Model
	closers   []func() error
	closeOnce sync.Once

	api *ApiServer
}

var _ ifc.ControlServer = &ControlServer{}

type backend struct {
	regs      deviceifc.RegisterFile
	identity  deviceifc.IdentityReader
	loader    deviceifc.BitstreamLoader
	irqSource func(ctx context.Context) error
	model     *regsim.Model
	closers   []func() error
}

// NewControlServer ...
func NewControlServer(ctx context.Context, cfg *config.Config) (*ControlServer, error) {
	log.Debug("Initializing control server: backend %s", cfg.Server.Backend)

	s := &ControlServer{
		Context: ctx,
		cfg:     cfg,
		line:    irq.NewLine(cfg.Device.Name),
	}

	b, err := s.openBackend()
	if err != nil {
		return nil, err
	}
	s.irqSource = b.irqSource
	s.model = b.model
	s.closers = b.closers

	state, err := NewRegState(cfg.Server.DBPath, cfg.Device.Name)
	if err != nil {
		s.closeBackend()
		return nil, err
	}
	s.state = state
	s.journal = regfile.NewJournal(b.regs, state)

	var signaller deviceifc.Signaller = notify.ChanSignaller{}
	if cfg.Server.SignalPid != 0 {
		signaller = notify.Tee{notify.ChanSignaller{}, notify.ProcSignaller{Pid: cfg.Server.SignalPid}}
	}

	dev, err := device.New(cfg.Device, device.Params{
		Regs:      s.journal,
		Line:      s.line,
		Signaller: signaller,
		Identity:  b.identity,
		Loader:    b.loader,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	s.dev = dev

	s.api, err = NewApiServer(ctx, cfg, s)
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *ControlServer) openBackend() (*backend, error) {
	cfg := s.cfg
	b := &backend{}
	poll := func(ctx context.Context) error {
		return irq.Poll(ctx, s.line, time.Duration(cfg.Server.PollMs)*time.Millisecond)
	}

	switch cfg.Server.Backend {
	case config.BackendSim:
		m, image, err := NewSimModel(cfg.Device)
		if err != nil {
			return nil, err
		}
		m.SetLine(s.line)
		b.regs, b.model = m, m
		if image != nil {
			b.loader = bringup.NewFlex10K(m, image)
		}
		b.identity = bringup.NewMicrowire(m)
		return b, nil

	case config.BackendMmap:
		m, err := regfile.OpenMmap(cfg.Server.MmapPath, cfg.Server.MmapOffset)
		if err != nil {
			return nil, err
		}
		b.regs = m
		b.closers = append(b.closers, m.Close)
		if cfg.Server.UIOPath != "" {
			u, err := irq.OpenUIO(cfg.Server.UIOPath, s.line)
			if err != nil {
				m.Close()
				return nil, err
			}
			b.irqSource = u.Run
			b.closers = append(b.closers, u.Close)
		} else {
			b.irqSource = poll
		}

	case config.BackendRemote:
		r, err := regfile.DialRemote(cfg.Server.RemoteAddr, time.Duration(cfg.Server.RemoteTimeoutMs)*time.Millisecond)
		if err != nil {
			return nil, err
		}
		b.regs = r
		b.closers = append(b.closers, r.Close)
		b.irqSource = poll

	default:
		return nil, ErrBackend{Backend: cfg.Server.Backend}
	}

	b.identity = bringup.NewMicrowire(b.regs)
	if cfg.Device.PLDLoad {
		loader, err := bringup.NewFlex10KFromFile(b.regs, cfg.Device.PLDImage)
		if err != nil {
			for _, c := range b.closers {
				c()
			}
			return nil, err
		}
		b.loader = loader
	}
	return b, nil
}

// NewSimModel returns a simulated module with a valid ID PROM. With PLD
// loading configured a PLD sized for the image is plugged in and the image
// is returned; without a configured file one is made up.
func NewSimModel(cfg *config.DeviceConfig) (*regsim.Model, []byte, error) {
	m := regsim.New()
	m.SetEEPROM(regsim.NewEEPROM())
	if !cfg.PLDLoad {
		return m, nil, nil
	}
	image, err := simImage(cfg.PLDImage)
	if err != nil {
		return nil, nil, err
	}
	data, err := bringup.Payload(image)
	if err != nil {
		return nil, nil, err
	}
	m.SetPLD(regsim.NewPLD(len(data)))
	return m, image, nil
}

func simImage(path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	data := make([]byte, simImageSize)
	for i := range data {
		data[i] = byte(i * 7)
	}
	return bringup.Image(data), nil
}

func (s *ControlServer) closeBackend() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warning("Closing backend: %s", err)
		}
	}
	s.closers = nil
}

// Close releases everything in reverse order of NewControlServer. Run
// calls it on return.
func (s *ControlServer) Close() {
	s.closeOnce.Do(s.shutdown)
}

func (s *ControlServer) shutdown() {
	if s.dev != nil {
		s.dev.Close()
	}
	if s.journal != nil {
		s.journal.Close()
		if n := s.journal.Dropped(); n > 0 {
			log.Warning("Register mirror dropped %d writes", n)
		}
	}
	if s.state != nil {
		s.state.Close()
	}
	s.closeBackend()
}

func (s *ControlServer) Run() error {
	defer s.Close()

	ctx, cancel := context.WithCancel(s.Context)
	defer cancel()
	errChan := make(chan error, 2)

	if s.irqSource != nil {
		go func() {
			if err := s.irqSource(ctx); err != nil && ctx.Err() == nil {
				errChan <- err
			}
		}()
	}

	go func() {
		errChan <- s.api.Run()
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		return err
	}
}

// Handler returns the HTTP handler of the API
func (s *ControlServer) Handler() http.Handler {
	return s.api.Handler()
}

// Model returns the simulated register file, nil for other backends
func (s *ControlServer) Model() *regsim.Model {
	return s.model
}

func (s *ControlServer) Info() device.Info {
	return s.dev.Info()
}

func (s *ControlServer) GetStat(ch int, code device.StatCode) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.GetStat(ch, code)
}

func (s *ControlServer) SetStat(ch int, code device.StatCode, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.SetStat(ch, code, value)
}

func (s *ControlServer) Snapshot(ch int) (map[string]uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Snapshot(ch)
}

// ReadCounter does not hold the call lock while it waits for the ready
// interrupt
func (s *ControlServer) ReadCounter(ctx context.Context, ch int) (uint32, error) {
	s.mu.Lock()
	mode, err := s.dev.GetStat(ch, device.StatReadMode)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	if registers.ReadMode(mode) != registers.ReadWait {
		defer s.mu.Unlock()
	} else {
		s.mu.Unlock()
	}
	return s.dev.ReadCounterContext(ctx, ch)
}

func (s *ControlServer) WriteCounter(ch int, value uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.WriteCounter(ch, value)
}

func (s *ControlServer) InstallSignal(ch int, kind device.SignalKind, code uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.InstallSignal(ch, kind, code)
}

func (s *ControlServer) RemoveSignal(ch int, kind device.SignalKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.RemoveSignal(ch, kind)
}

// WaitSignal blocks until the installed signal is sent, removed or ctx is
// done
func (s *ControlServer) WaitSignal(ctx context.Context, ch int, kind device.SignalKind) error {
	s.mu.Lock()
	sig, err := s.dev.Signal(ch, kind)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if sig == nil {
		return device.ErrSignalNotInstalled{Ch: ch, Kind: kind}
	}
	w, ok := sig.(notify.Waiter)
	if !ok {
		return ErrNotWaitable{What: kind.String() + " signal"}
	}
	return w.Wait(ctx)
}

func (s *ControlServer) Pretrigger() (bool, uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.PretriggerEnabled(), s.dev.PretriggerOffset()
}

// SetPretrigger applies the offset before switching
func (s *ControlServer) SetPretrigger(enabled *bool, offset *uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if offset != nil {
		s.dev.SetPretriggerOffset(*offset)
	}
	if enabled != nil {
		return s.dev.SetPretrigger(*enabled)
	}
	return nil
}

func (s *ControlServer) RegRead(addr uint16) (uint16, error) {
	return s.state.GetReg(addr)
}

func (s *ControlServer) RegReadAll() (map[uint16]uint16, error) {
	return s.state.GetRegAll()
}
