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

package bringup

import (
	"encoding/binary"
	"fmt"
	"os"
	"time"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/log"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

const (
	// DefaultStatusTimeout bounds every wait on nSTATUS
	DefaultStatusTimeout = 100 * time.Millisecond
	extraClocks          = 10
	statusCheckEvery     = 1024
)

// Flex10K configures the PLD through its passive serial port. The image
// starts with its size as a 4 byte big endian number.
type Flex10K struct {
	regs  ifc.RegisterFile
	image []byte

	StatusTimeout time.Duration
}

var _ ifc.BitstreamLoader = &Flex10K{}

func NewFlex10K(regs ifc.RegisterFile, image []byte) *Flex10K {
	return &Flex10K{regs: regs, image: image, StatusTimeout: DefaultStatusTimeout}
}

// NewFlex10KFromFile reads the image from path
func NewFlex10KFromFile(regs ifc.RegisterFile, path string) (*Flex10K, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLD image: %w", err)
	}
	return NewFlex10K(regs, image), nil
}

// Payload returns the configuration bytes without the size header
func Payload(image []byte) ([]byte, error) {
	if len(image) < 4 {
		return nil, ErrBadImage{What: "no size header"}
	}
	size := binary.BigEndian.Uint32(image)
	if size == 0 || uint64(size) > uint64(len(image)-4) {
		return nil, ErrBadImage{What: fmt.Sprintf("size %d with %d bytes present", size, len(image)-4)}
	}
	return image[4 : 4+size], nil
}

// Image prepends the size header to data
func Image(data []byte) []byte {
	image := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(image, uint32(len(data)))
	copy(image[4:], data)
	return image
}

func (f *Flex10K) set(pins uint16) {
	f.regs.Write16(registers.RegPldIf, pins)
}

func (f *Flex10K) status() uint16 {
	return f.regs.Read16(registers.RegPldIf)
}

func (f *Flex10K) waitStatus(high bool) error {
	deadline := time.Now().Add(f.StatusTimeout)
	for {
		if (f.status()&registers.PldIfPsStat != 0) == high {
			return nil
		}
		if time.Now().After(deadline) {
			level := "low"
			if high {
				level = "high"
			}
			return ErrConfig{What: "nSTATUS did not go " + level}
		}
		time.Sleep(10 * time.Microsecond)
	}
}

func (f *Flex10K) Load() error {
	data, err := Payload(f.image)
	if err != nil {
		return err
	}
	log.Info("Loading PLD, %d bytes", len(data))

	f.set(0)
	if err := f.waitStatus(false); err != nil {
		return err
	}
	f.set(registers.PldIfPsConf)
	if err := f.waitStatus(true); err != nil {
		return err
	}

	for i, b := range data {
		for bit := 0; bit < 8; bit++ {
			pins := registers.PldIfPsConf
			if b&(1<<uint(bit)) != 0 {
				pins |= registers.PldIfPsDat
			}
			f.set(pins)
			f.set(pins | registers.PldIfPsClk)
		}
		if i%statusCheckEvery == statusCheckEvery-1 && f.status()&registers.PldIfPsStat == 0 {
			return ErrConfig{What: fmt.Sprintf("nSTATUS dropped at byte %d", i)}
		}
	}
	f.set(registers.PldIfPsConf)

	st := f.status()
	if st&registers.PldIfPsStat == 0 {
		return ErrConfig{What: "nSTATUS low after the last byte"}
	}
	if st&registers.PldIfPsDone == 0 {
		return ErrConfig{What: "CONF_DONE missing"}
	}
	for i := 0; i < extraClocks; i++ {
		f.set(registers.PldIfPsConf | registers.PldIfPsClk)
		f.set(registers.PldIfPsConf)
	}
	return nil
}
