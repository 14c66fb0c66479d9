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

package layers

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestRegFrameRequest(t *testing.T) {
	ops := []*RegOp{
		{Read: true, Addr: 0x10},
		{Addr: 0x88, Value: 0x000f},
	}
	data, err := RegFrame(MLinkTypeRegRequest, 42, MLinkHostAddr, MLinkDeviceAddr, ops)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4*(4+len(ops)) {
		t.Fatalf("frame of %d bytes", len(data))
	}
	if binary.LittleEndian.Uint16(data[2:4]) != MLinkSync {
		t.Errorf("sync % x", data[2:4])
	}
	if w := binary.LittleEndian.Uint32(data[12:16]); w != 0x80100000 {
		t.Errorf("read word 0x%08x", w)
	}
	if w := binary.LittleEndian.Uint32(data[16:20]); w != 0x0088000f {
		t.Errorf("write word 0x%08x", w)
	}

	ml, reg, err := DecodeRegFrame(data)
	if err != nil {
		t.Fatal(err)
	}
	if ml.Seq != 42 || ml.Type != MLinkTypeRegRequest || ml.Dst != MLinkDeviceAddr {
		t.Errorf("header %+v", ml.MLinkHeader)
	}
	if len(reg.RegOps) != 2 || !reg.RegOps[0].Read || reg.RegOps[1].Value != 0x000f {
		t.Errorf("ops %v", reg.RegOps)
	}
}

func TestRegFrameCrc(t *testing.T) {
	data, _ := RegFrame(MLinkTypeRegRequest, 1, MLinkHostAddr, MLinkDeviceAddr, []*RegOp{{Addr: 2, Value: 3}})
	data[14] ^= 0xff
	if _, _, err := DecodeRegFrame(data); err == nil {
		t.Errorf("corrupted request accepted")
	}

	resp, _ := RegFrame(MLinkTypeRegResponse, 1, MLinkDeviceAddr, MLinkHostAddr, []*RegOp{{Addr: 2, Value: 3}})
	if binary.LittleEndian.Uint32(resp[len(resp)-4:]) != 0 {
		t.Errorf("response tail not zero")
	}
	if _, _, err := DecodeRegFrame(resp); err != nil {
		t.Errorf("response: %v", err)
	}
}

func TestRegFrameLimits(t *testing.T) {
	var enc ErrEncode
	if _, err := RegFrame(MLinkTypeRegRequest, 0, 0, 0, nil); !errors.As(err, &enc) {
		t.Errorf("empty frame = %v", err)
	}
	ops := make([]*RegOp, MLinkMaxRegOps+1)
	for i := range ops {
		ops[i] = &RegOp{}
	}
	if _, err := RegFrame(MLinkTypeRegRequest, 0, 0, 0, ops); !errors.As(err, &enc) {
		t.Errorf("oversized frame = %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{
		{1, 2, 3},
		make([]byte, 20),
	} {
		if _, _, err := DecodeRegFrame(data); err == nil {
			t.Errorf("% x accepted", data)
		}
	}
}
