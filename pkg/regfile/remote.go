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
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"jinr.ru/greenlab/go-m72/pkg/device/ifc"
	"jinr.ru/greenlab/go-m72/pkg/layers"
	"jinr.ru/greenlab/go-m72/pkg/log"
)

type ErrRemote struct {
	What string
	Err  error
}

func (e ErrRemote) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote register file: %s: %s", e.What, e.Err)
	}
	return fmt.Sprintf("remote register file: %s", e.What)
}

func (e ErrRemote) Unwrap() error {
	return e.Err
}

// Remote reaches the module registers of a networked carrier with MLink
// register frames over UDP. Every request waits for the response with the
// same sequence number.
type Remote struct {
	conn    *net.UDPConn
	timeout time.Duration

	mu  sync.Mutex
	seq uint16
	buf []byte
}

var _ ifc.RegisterFile = &Remote{}

func DialRemote(addr string, timeout time.Duration) (*Remote, error) {
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, uaddr)
	if err != nil {
		return nil, err
	}
	log.Info("Remote register file at %s", uaddr)
	return &Remote{conn: conn, timeout: timeout, buf: make([]byte, 65536)}, nil
}

// Transact sends ops in one frame and returns the operations of the answer
func (r *Remote) Transact(ops []*layers.RegOp) ([]*layers.RegOp, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	seq := r.seq
	frame, err := layers.RegFrame(layers.MLinkTypeRegRequest, seq, layers.MLinkHostAddr, layers.MLinkDeviceAddr, ops)
	if err != nil {
		return nil, err
	}
	if _, err := r.conn.Write(frame); err != nil {
		return nil, ErrRemote{What: "send", Err: err}
	}

	deadline := time.Now().Add(r.timeout)
	if err := r.conn.SetReadDeadline(deadline); err != nil {
		return nil, ErrRemote{What: "deadline", Err: err}
	}
	for {
		n, err := r.conn.Read(r.buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return nil, ErrRemote{What: fmt.Sprintf("no response to seq %d", seq)}
			}
			return nil, ErrRemote{What: "receive", Err: err}
		}
		ml, reg, err := layers.DecodeRegFrame(r.buf[:n])
		if err != nil {
			log.Debug("Remote: dropping frame: %s", err)
			continue
		}
		if ml.Type != layers.MLinkTypeRegResponse || ml.Seq != seq {
			log.Debug("Remote: dropping %s seq %d, waiting for %d", ml.Type, ml.Seq, seq)
			continue
		}
		if len(reg.RegOps) != len(ops) {
			return nil, ErrRemote{What: fmt.Sprintf("%d operations answered, %d sent", len(reg.RegOps), len(ops))}
		}
		return reg.RegOps, nil
	}
}

// Read16 logs transport errors and reads 0
func (r *Remote) Read16(off uint16) uint16 {
	resp, err := r.Transact([]*layers.RegOp{{Read: true, Addr: off}})
	if err != nil {
		log.Error("Read 0x%02x: %s", off, err)
		return 0
	}
	return resp[0].Value
}

func (r *Remote) Write16(off, value uint16) {
	if _, err := r.Transact([]*layers.RegOp{{Addr: off, Value: value}}); err != nil {
		log.Error("Write 0x%02x: %s", off, err)
	}
}

func (r *Remote) Close() error {
	return r.conn.Close()
}
