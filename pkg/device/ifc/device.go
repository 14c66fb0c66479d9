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

package ifc

import (
	"fmt"
)

// RegisterFile is 16-bit access to the module address window. Offsets are
// byte offsets.
type RegisterFile interface {
	Read16(off uint16) uint16
	Write16(off uint16, value uint16)
}

// InterruptLine is the shared interrupt the device handler is attached to.
// Mask and Restore bracket sections that must not run concurrently with the
// handler.
type InterruptLine interface {
	Attach(name string, handler func() bool) error
	Detach(name string)
	Mask()
	Restore()
}

// Signal is an installed notification target
type Signal interface {
	Code() uint32
	// Send must not block
	Send()
	Remove() error
}

// Signaller creates notification targets
type Signaller interface {
	Create(code uint32) (Signal, error)
}

// ErrInvalidCode is returned by a Signaller for a code it can not deliver
type ErrInvalidCode struct {
	What string
	Code uint32
}

func (e ErrInvalidCode) Error() string {
	return fmt.Sprintf("invalid %s %d", e.What, e.Code)
}

// IdentityReader reads the module ID PROM
type IdentityReader interface {
	ReadWord(addr uint8) (uint16, error)
	ReadImage() ([]byte, error)
}

// BitstreamLoader configures the programmable logic
type BitstreamLoader interface {
	Load() error
}

// Device is the counter and pretrigger surface shared by every M72 driver
type Device interface {
	ReadCounter(ch int) (uint32, error)
	WriteCounter(ch int, value uint32) error
	SetPretrigger(enabled bool) error
	PretriggerEnabled() bool
	SetPretriggerOffset(ticks uint32)
	PretriggerOffset() uint32
	IrqCount() uint32
	Close() error
}

