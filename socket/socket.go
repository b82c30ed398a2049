// Package socket binds a TCP endpoint ahead of listening, so the listen
// backlog can be chosen separately from the address.
package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
)

var (
	ErrClosed    = errors.New("socket: closed")
	ErrListening = errors.New("socket: already listening")
	ErrNoAddress = errors.New("socket: host has no address")
)

// Bind resolves host and port and binds the first candidate address that
// accepts it, IPv4 addresses first.
func Bind(ctx context.Context, host, port string) (*Socket, error) {
	endpoint := net.JoinHostPort(host, port)

	addrs, err := resolve(ctx, host, port)
	if err != nil {
		return nil, fmt.Errorf("socket: resolve %s: %w", endpoint, err)
	}

	var errs []error
	for _, addr := range addrs {
		sock, err := bind(addr)
		if err == nil {
			return sock, nil
		}
		errs = append(errs, err)
	}

	return nil, fmt.Errorf("socket: bind %s: %w", endpoint, errors.Join(errs...))
}

func resolve(ctx context.Context, host, port string) ([]*net.TCPAddr, error) {
	portNum, err := net.DefaultResolver.LookupPort(ctx, "tcp", port)
	if err != nil {
		return nil, err
	}

	// An empty host binds every local address.
	if host == "" {
		return []*net.TCPAddr{{IP: net.IPv4zero, Port: portNum}}, nil
	}

	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, ErrNoAddress
	}

	slices.SortStableFunc(ips, func(a, b net.IPAddr) int {
		return rank(a.IP) - rank(b.IP)
	})

	addrs := make([]*net.TCPAddr, 0, len(ips))
	for _, ip := range ips {
		addrs = append(addrs, &net.TCPAddr{IP: ip.IP, Port: portNum, Zone: ip.Zone})
	}
	return addrs, nil
}

func rank(ip net.IP) int {
	if ip.To4() != nil {
		return 0
	}
	return 1
}
