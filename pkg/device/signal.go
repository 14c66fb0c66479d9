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
	"errors"
	"fmt"
	"strings"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// SignalKind selects one of the five notification slots of a channel. The
// slot index equals the bit position of the matching pending flag.
type SignalKind int

const (
	SigReady SignalKind = iota
	SigComp
	SigCybw
	SigLbreak
	SigXin2
	NumSignalKinds
)

var signalKindNames = [NumSignalKinds]string{"ready", "comp", "cybw", "lbreak", "xin2"}

func (k SignalKind) String() string {
	if k >= 0 && k < NumSignalKinds {
		return signalKindNames[k]
	}
	return fmt.Sprintf("signal(%d)", int(k))
}

// PendBit returns the pending flag that fires the slot
func (k SignalKind) PendBit() uint8 {
	return 1 << uint(k)
}

func ParseSignalKind(s string) (SignalKind, error) {
	for i, n := range signalKindNames {
		if strings.EqualFold(n, s) {
			return SignalKind(i), nil
		}
	}
	return 0, ErrInvalidParameter{What: fmt.Sprintf("signal kind %q", s)}
}

// InstallSignal creates a notification for a slot. An occupied slot is a
// conflict and code 0 is not a signal.
func (d *Device) InstallSignal(ch int, kind SignalKind, code uint32) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if kind < 0 || kind >= NumSignalKinds {
		return ErrInvalidParameter{What: fmt.Sprintf("signal kind %d", kind)}
	}
	d.line.Mask()
	installed := c.signals[kind] != nil
	d.line.Restore()
	if installed {
		return ErrSignalConflict{Ch: ch, Kind: kind}
	}
	if code == 0 {
		return ErrInvalidParameter{What: "signal code 0"}
	}
	if d.signaller == nil {
		return ErrUnsupportedOperation{What: "no signaller configured"}
	}
	sig, err := d.signaller.Create(code)
	if errors.As(err, &ifc.ErrInvalidCode{}) {
		return ErrInvalidParameter{What: fmt.Sprintf("%s signal: %s", kind, err)}
	}
	if err != nil {
		return ErrResourceExhaustion{What: fmt.Sprintf("%s signal", kind), Err: err}
	}
	d.line.Mask()
	c.signals[kind] = sig
	d.line.Restore()
	log.Debug("Channel %d: %s signal %d installed", ch, kind, code)
	return nil
}

// RemoveSignal releases an installed notification
func (d *Device) RemoveSignal(ch int, kind SignalKind) error {
	c, err := d.channel(ch)
	if err != nil {
		return err
	}
	if kind < 0 || kind >= NumSignalKinds {
		return ErrInvalidParameter{What: fmt.Sprintf("signal kind %d", kind)}
	}
	d.line.Mask()
	sig := c.signals[kind]
	c.signals[kind] = nil
	d.line.Restore()
	if sig == nil {
		return ErrSignalNotInstalled{Ch: ch, Kind: kind}
	}
	return sig.Remove()
}

// Signal returns the installed notification of a slot or nil
func (d *Device) Signal(ch int, kind SignalKind) (ifc.Signal, error) {
	c, err := d.channel(ch)
	if err != nil {
		return nil, err
	}
	if kind < 0 || kind >= NumSignalKinds {
		return nil, ErrInvalidParameter{What: fmt.Sprintf("signal kind %d", kind)}
	}
	d.line.Mask()
	defer d.line.Restore()
	return c.signals[kind], nil
}

func (d *Device) signalCode(c *Channel, kind SignalKind) uint32 {
	d.line.Mask()
	defer d.line.Restore()
	if s := c.signals[kind]; s != nil {
		return s.Code()
	}
	return 0
}

// notify runs in the handler for a channel with the interrupt enabled
func (c *Channel) notify(state uint8) {
	if state&registers.PendReady != 0 {
		if s := c.signals[SigReady]; s != nil {
			s.Send()
		}
		if c.readMode == registers.ReadWait {
			c.ready.signal()
		}
	}
	for k := SigComp; k < NumSignalKinds; k++ {
		if state&k.PendBit() != 0 && c.signals[k] != nil {
			c.signals[k].Send()
		}
	}
}

// releaseSignals removes every installed notification of the channel
func (c *Channel) releaseSignals() {
	for k, s := range c.signals {
		if s == nil {
			continue
		}
		if err := s.Remove(); err != nil {
			log.Warning("Channel %d: can not remove %s signal: %s", c.n, SignalKind(k), err)
		}
		c.signals[k] = nil
	}
}
