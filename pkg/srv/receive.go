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

package srv

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"

	"jinr.ru/greenlab/go-dlt/pkg/config"
	"jinr.ru/greenlab/go-dlt/pkg/dlt"
	"jinr.ru/greenlab/go-dlt/pkg/layers"
	"jinr.ru/greenlab/go-dlt/pkg/log"
	"jinr.ru/greenlab/go-dlt/pkg/stats"
)

// ReceiveServer listens on UDP for wire-format DLT and accumulates
// statistics about everything it sees. Decoded messages are offered on
// the Messages channel for further handling.
type ReceiveServer struct {
	Server
	Messages chan *dlt.Message

	mu   sync.RWMutex
	info *stats.StatisticInfo
}

// NewReceiveServer ...
func NewReceiveServer(ctx context.Context, cfg *config.Config) (*ReceiveServer, error) {
	log.Debug("Initializing receive server with address: %s port: %d", cfg.ReceiveConfig.Address, cfg.ReceiveConfig.Port)

	uaddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.ReceiveConfig.Address, cfg.ReceiveConfig.Port))
	if err != nil {
		return nil, err
	}

	s := &ReceiveServer{
		Server: Server{
			Context: ctx,
			Config:  cfg,
			UDPAddr: uaddr,
			ChIn:    make(chan InPacket),
		},
		Messages: make(chan *dlt.Message),
		info:     stats.NewStatisticInfo(),
	}
	return s, nil
}

// Statistics returns a snapshot of the accumulated statistics
func (s *ReceiveServer) Statistics() *stats.StatisticInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := stats.NewStatisticInfo()
	snapshot.Merge(s.info)
	return snapshot
}

func (s *ReceiveServer) account(message *dlt.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.Account(stats.RowFromMessage(message))
}

// Run listens until the context is cancelled
func (s *ReceiveServer) Run() error {
	conn, err := net.ListenUDP("udp", s.UDPAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	errChan := make(chan error, 1)
	buffer := make([]byte, 65536)

	go func() {
		source := gopacket.NewPacketSource(s, layers.DLTLayerType)
		for packet := range source.Packets() {
			log.Debug("DLT packet received")
			layer := packet.Layer(layers.DLTLayerType)
			if layer == nil {
				continue
			}
			for _, message := range layer.(*layers.DLTLayer).Messages {
				s.account(message)
				select {
				case s.Messages <- message:
				case <-s.Context.Done():
					return
				}
			}
		}
	}()

	go func() {
		for {
			length, addr, readErr := conn.ReadFrom(buffer)
			if readErr != nil {
				errChan <- readErr
				return
			}
			peerUDPAddr, readErr := net.ResolveUDPAddr("udp", addr.String())
			if readErr != nil {
				errChan <- readErr
				return
			}
			data := make([]byte, length)
			copy(data, buffer[:length])
			ci := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{peerUDPAddr},
			}
			s.ChIn <- InPacket{Data: data, CaptureInfo: ci}
		}
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err = <-errChan:
		return err
	}
}
