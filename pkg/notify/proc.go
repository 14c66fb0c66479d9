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
	"fmt"

	"golang.org/x/sys/unix"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/log"
)

// ProcSignal sends a unix signal to a process. The signal code is the
// signal number.
type ProcSignal struct {
	pid  int
	code uint32
}

var _ ifc.Signal = &ProcSignal{}

func (s *ProcSignal) Code() uint32 {
	return s.code
}

// Send runs in the interrupt handler and only logs at debug level
func (s *ProcSignal) Send() {
	if err := unix.Kill(s.pid, unix.Signal(s.code)); err != nil {
		log.Debug("Signal %d to pid %d: %s", s.code, s.pid, err)
	}
}

func (s *ProcSignal) Remove() error {
	return nil
}

// ProcSignaller creates signals addressed to one process
type ProcSignaller struct {
	Pid int
}

var _ ifc.Signaller = ProcSignaller{}

func (p ProcSignaller) Create(code uint32) (ifc.Signal, error) {
	if code == 0 || code > 64 {
		return nil, ifc.ErrInvalidCode{What: "process signal", Code: code}
	}
	if err := unix.Kill(p.Pid, 0); err != nil {
		return nil, fmt.Errorf("pid %d: %w", p.Pid, err)
	}
	return &ProcSignal{pid: p.Pid, code: code}, nil
}
