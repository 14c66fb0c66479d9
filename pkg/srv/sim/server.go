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

// Package sim serves a simulated M72 register file over MLink/UDP, the way
// a networked carrier does.
package sim

import (
	"context"
	"net"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-m72/pkg/layers"
	"jinr.ru/greenlab/go-m72/pkg/log"
	regsim "jinr.ru/greenlab/go-m72/pkg/regfile/sim"
	"jinr.ru/greenlab/go-m72/pkg/srv"
)

type Server struct {
	srv.Server
	conn  *net.UDPConn
	model *regsim.Model
}

// NewServer binds addr. Port 0 picks a free port, see Addr.
func NewServer(ctx context.Context, addr string, model *regsim.Model) (*Server, error) {
	uaddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", uaddr)
	if err != nil {
		return nil, err
	}
	log.Info("Simulated M72 carrier listening on %s", conn.LocalAddr())
	return &Server{
		Server: srv.NewServer(ctx, conn.LocalAddr().(*net.UDPAddr)),
		conn:   conn,
		model:  model,
	}, nil
}

func (s *Server) Addr() *net.UDPAddr {
	return s.UDPAddr
}

func (s *Server) Model() *regsim.Model {
	return s.model
}

func (s *Server) Run() error {
	defer s.conn.Close()

	// Read captured packets from input queue, apply them and answer
	go func() {
		source := gopacket.NewPacketSource(s, layers.MLinkLayerType)
		for packet := range source.Packets() {
			s.handle(packet)
		}
	}()

	return s.Pump(s.conn)
}

func (s *Server) handle(packet gopacket.Packet) {
	peer, err := srv.GetAddrPort(packet)
	if err != nil {
		log.Error(err.Error())
		return
	}
	if el := packet.ErrorLayer(); el != nil {
		log.Debug("Drop packet from %s: %s", peer, el.Error())
		return
	}
	ml, ok := packet.Layer(layers.MLinkLayerType).(*layers.MLinkLayer)
	if !ok || ml.Type != layers.MLinkTypeRegRequest {
		log.Debug("Drop packet from %s: not a register request", peer)
		return
	}
	reg, ok := packet.Layer(layers.RegLayerType).(*layers.RegLayer)
	if !ok {
		return
	}

	resp := make([]*layers.RegOp, 0, len(reg.RegOps))
	for _, op := range reg.RegOps {
		r := *op
		if op.Read {
			r.Value = s.model.Read16(op.Addr)
		} else {
			s.model.Write16(op.Addr, op.Value)
		}
		log.Debug("Sim: %s", &r)
		resp = append(resp, &r)
	}

	frame, err := layers.RegFrame(layers.MLinkTypeRegResponse, ml.Seq, layers.MLinkDeviceAddr, ml.Src, resp)
	if err != nil {
		log.Error("Sim: building response: %s", err)
		return
	}
	select {
	case s.ChOut <- srv.OutPacket{Data: frame, UDPAddr: peer}:
	case <-s.Context.Done():
	}
}
