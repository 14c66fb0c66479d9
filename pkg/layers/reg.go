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
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

const (
	// RegLayerNum identifies the layer
	RegLayerNum = 1997
)

// RegOp is one 32 bit register word: read flag in bit 31, 15 bit address,
// 16 bit value. The value of a read request is ignored; the response
// carries the value read.
type RegOp struct {
	Read  bool
	Addr  uint16
	Value uint16
}

func (op *RegOp) word() uint32 {
	w := (uint32(op.Addr)&0x7fff)<<16 | uint32(op.Value)
	if op.Read {
		w |= 0x80000000
	}
	return w
}

func (op *RegOp) String() string {
	if op.Read {
		return fmt.Sprintf("read 0x%04x", op.Addr)
	}
	return fmt.Sprintf("write 0x%04x = 0x%04x", op.Addr, op.Value)
}

type RegLayer struct {
	layers.BaseLayer
	RegOps []*RegOp
}

var RegLayerType = gopacket.RegisterLayerType(RegLayerNum,
	gopacket.LayerTypeMetadata{Name: "RegLayerType", Decoder: gopacket.DecodeFunc(DecodeRegLayer)})

// LayerType returns the type of the register layer in the layer catalog
func (reg *RegLayer) LayerType() gopacket.LayerType {
	return RegLayerType
}

// Serialize writes the operations to buf, which must hold 4 bytes per op
func (reg *RegLayer) Serialize(buf []byte) {
	for i, op := range reg.RegOps {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], op.word())
	}
}

// SerializeTo serializes the register layer into bytes and writes the bytes to the SerializeBuffer
func (reg *RegLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.AppendBytes(len(reg.RegOps) * 4)
	if err != nil {
		return err
	}
	reg.Serialize(bytes)
	return nil
}

func (reg *RegLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) == 0 || len(data)%4 != 0 {
		df.SetTruncated()
		return ErrDecode{What: fmt.Sprintf("register payload of %d bytes", len(data))}
	}
	reg.BaseLayer = layers.BaseLayer{
		Contents: data[:],
		Payload:  []byte{},
	}
	reg.RegOps = reg.RegOps[:0]
	for i := 0; i < len(data); i += 4 {
		word := binary.LittleEndian.Uint32(data[i : i+4])
		reg.RegOps = append(reg.RegOps, &RegOp{
			Read:  word&0x80000000 != 0,
			Addr:  uint16((word & 0x7fff0000) >> 16),
			Value: uint16(word & 0x0000ffff),
		})
	}
	return nil
}

func DecodeRegLayer(data []byte, p gopacket.PacketBuilder) error {
	req := &RegLayer{}
	err := req.DecodeFromBytes(data, p)
	if err != nil {
		return err
	}
	p.AddLayer(req)
	return nil
}
