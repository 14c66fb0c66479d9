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

package regfile

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/registers"
)

// Mmap accesses the module window through a shared mapping of a UIO map or
// /dev/mem. Offsets are byte offsets; accesses are 16 bit wide in host
// byte order, which is little endian on the supported carriers.
type Mmap struct {
	f    *os.File
	data []byte
}

var _ ifc.RegisterFile = &Mmap{}

// OpenMmap maps the module window at offset of path. The offset must be
// page aligned.
func OpenMmap(path string, offset int64) (*Mmap, error) {
	if offset%int64(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("mmap offset 0x%x is not page aligned", offset)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	data, err := unix.Mmap(int(f.Fd()), offset, os.Getpagesize(), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return &Mmap{f: f, data: data}, nil
}

func (m *Mmap) reg(off uint16) *uint16 {
	off &= registers.AddrSpaceSize - 2
	return (*uint16)(unsafe.Pointer(&m.data[off]))
}

func (m *Mmap) Read16(off uint16) uint16 {
	return *m.reg(off)
}

func (m *Mmap) Write16(off, value uint16) {
	*m.reg(off) = value
}

func (m *Mmap) Close() error {
	err := unix.Munmap(m.data)
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}
