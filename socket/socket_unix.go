//go:build unix

package socket

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Socket is a bound but not yet listening TCP socket.
type Socket struct {
	fd        int
	addr      *net.TCPAddr
	listening bool
}

func bind(addr *net.TCPAddr) (*Socket, error) {
	family, sa, err := sockaddr(addr)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}

	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%s: %w", addr, os.NewSyscallError("bind", err))
	}

	bound, err := unix.Getsockname(fd)
	if err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("getsockname", err)
	}

	return &Socket{fd: fd, addr: tcpAddr(bound, addr)}, nil
}

func sockaddr(addr *net.TCPAddr) (int, unix.Sockaddr, error) {
	if ip4 := addr.IP.To4(); ip4 != nil {
		sa := &unix.SockaddrInet4{Port: addr.Port}
		copy(sa.Addr[:], ip4)
		return unix.AF_INET, sa, nil
	}

	ip6 := addr.IP.To16()
	if ip6 == nil {
		return 0, nil, fmt.Errorf("socket: invalid address %s", addr)
	}
	sa := &unix.SockaddrInet6{Port: addr.Port}
	copy(sa.Addr[:], ip6)
	if addr.Zone != "" {
		if ifi, err := net.InterfaceByName(addr.Zone); err == nil {
			sa.ZoneId = uint32(ifi.Index)
		}
	}
	return unix.AF_INET6, sa, nil
}

func tcpAddr(sa unix.Sockaddr, fallback *net.TCPAddr) *net.TCPAddr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]).To16(), Port: sa.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(sa.Addr[:]), Port: sa.Port, Zone: fallback.Zone}
	default:
		return fallback
	}
}

// Addr is the bound address, with the port filled in when port 0 was asked.
func (s *Socket) Addr() net.Addr {
	return s.addr
}

// Listen marks the socket passive with the given backlog and hands it over to
// a net.Listener. The listener owns the descriptor from then on.
func (s *Socket) Listen(backlog int) (net.Listener, error) {
	if s.fd < 0 {
		if s.listening {
			return nil, ErrListening
		}
		return nil, ErrClosed
	}

	if err := unix.Listen(s.fd, backlog); err != nil {
		return nil, fmt.Errorf("socket: listen %s: %w", s.addr, os.NewSyscallError("listen", err))
	}

	// FileListener duplicates the descriptor, so ours is closed here.
	f := os.NewFile(uintptr(s.fd), "tcp:"+s.addr.String())
	s.fd = -1
	s.listening = true

	ln, err := net.FileListener(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("socket: listen %s: %w", s.addr, cerr)
	}
	if err != nil {
		return nil, fmt.Errorf("socket: listen %s: %w", s.addr, err)
	}
	return ln, nil
}

// Close releases a socket that never started listening. It does nothing once
// Listen succeeded.
func (s *Socket) Close() error {
	if s.fd < 0 {
		return nil
	}

	err := unix.Close(s.fd)
	s.fd = -1
	if err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}
