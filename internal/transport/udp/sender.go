// SPDX-License-Identifier: MIT
// Package udp streams processed frames as compact binary packets to a
// fixed peer, for visualization front ends that prefer a datagram feed
// over WebSockets.
package udp

import (
	"fmt"
	"net"
	"sync"

	applog "vizcore/internal/log"
)

// Sender transmits raw packets to one UDP peer.
type Sender struct {
	conn   *net.UDPConn
	mu     sync.Mutex
	closed bool
}

// NewSender dials the target address ("host:port").
func NewSender(targetAddress string) (*Sender, error) {
	addr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("udp: failed to resolve target address %q: %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("udp: failed to dial %q: %w", targetAddress, err)
	}

	applog.Infof("udp: sending frames to %s", conn.RemoteAddr())
	return &Sender{conn: conn}, nil
}

// Send transmits one packet. Safe for concurrent use.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("udp: sender is closed")
	}
	if _, err := s.conn.Write(data); err != nil {
		return fmt.Errorf("udp: send failed: %w", err)
	}
	return nil
}

// Close shuts the connection down. Idempotent.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
