//go:build !unix

package socket

import (
	"fmt"
	"net"
)

// Socket holds a listener opened at bind time. The backlog passed to Listen
// is left to the platform.
type Socket struct {
	ln        net.Listener
	addr      net.Addr
	listening bool
}

func bind(addr *net.TCPAddr) (*Socket, error) {
	ln, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Socket{ln: ln, addr: ln.Addr()}, nil
}

func (s *Socket) Addr() net.Addr {
	return s.addr
}

func (s *Socket) Listen(backlog int) (net.Listener, error) {
	if s.ln == nil {
		if s.listening {
			return nil, ErrListening
		}
		return nil, ErrClosed
	}

	ln := s.ln
	s.ln = nil
	s.listening = true
	return ln, nil
}

func (s *Socket) Close() error {
	if s.ln == nil {
		return nil
	}

	err := s.ln.Close()
	s.ln = nil
	if err != nil {
		return fmt.Errorf("socket: close: %w", err)
	}
	return nil
}
