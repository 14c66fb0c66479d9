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

// Package srv holds the UDP packet plumbing shared by the servers.
package srv

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/google/gopacket"
)

type InPacket struct {
	Data []byte
	gopacket.CaptureInfo
}

type OutPacket struct {
	Data []byte
	*net.UDPAddr
}

// GetAddrPort returns the UDPAddr of the peer that sent the packet
func GetAddrPort(packet gopacket.Packet) (*net.UDPAddr, error) {
	meta := packet.Metadata()
	if len(meta.CaptureInfo.AncillaryData) >= 1 {
		udpAddr, ok := meta.CaptureInfo.AncillaryData[0].(*net.UDPAddr)
		if !ok {
			return nil, ErrGetAddr{}
		}
		return udpAddr, nil
	}
	return nil, ErrGetAddr{}
}

// Server moves packets between a UDP socket and its input and output
// queues. It is a gopacket.PacketDataSource for the input queue.
type Server struct {
	context.Context
	*net.UDPAddr
	ChIn  chan InPacket
	ChOut chan OutPacket
}

func NewServer(ctx context.Context, addr *net.UDPAddr) Server {
	return Server{
		Context: ctx,
		UDPAddr: addr,
		ChIn:    make(chan InPacket),
		ChOut:   make(chan OutPacket),
	}
}

// ReadPacketData returns io.EOF once the context is done
func (s *Server) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	select {
	case p := <-s.ChIn:
		return p.Data, p.CaptureInfo, nil
	case <-s.Context.Done():
		return nil, gopacket.CaptureInfo{}, io.EOF
	}
}

// Pump reads packets from conn into ChIn and writes ChOut to conn until the
// context is done or the socket fails
func (s *Server) Pump(conn *net.UDPConn) error {
	errChan := make(chan error, 2)

	// Read UDP packets from wire and put them to input queue
	go func() {
		for {
			buffer := make([]byte, 65536)
			length, udpAddr, readErr := conn.ReadFromUDP(buffer)
			if readErr != nil {
				errChan <- readErr
				return
			}
			captureInfo := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{udpAddr},
			}
			select {
			case s.ChIn <- InPacket{Data: buffer[:length], CaptureInfo: captureInfo}:
			case <-s.Context.Done():
				return
			}
		}
	}()

	// Read packets from output queue and send them to wire
	go func() {
		for {
			select {
			case outPacket := <-s.ChOut:
				if _, sendErr := conn.WriteToUDP(outPacket.Data, outPacket.UDPAddr); sendErr != nil {
					errChan <- sendErr
					return
				}
			case <-s.Context.Done():
				return
			}
		}
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err := <-errChan:
		return err
	}
}
