package transport

import (
	"errors"
	"fmt"
	"net"
	"os"
)

var ErrNoIPv4 = errors.New("no IPv4 address")

// Identity is the host address and the broadcast address derived from it.
// It is computed once at startup and never changes.
type Identity struct {
	Local     net.IP
	Broadcast net.IP
}

// Discover resolves host (the machine's hostname when empty) to its first IPv4
// address. There is no fallback source, a failure here is fatal for the caller.
func Discover(host string) (Identity, error) {
	if host == "" {
		h, err := os.Hostname()
		if err != nil {
			return Identity{}, fmt.Errorf("hostname: %w", err)
		}
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil {
			return Identity{}, fmt.Errorf("resolve %s: %w", host, err)
		}
		for _, cand := range ips {
			if cand.To4() != nil {
				ip = cand
				break
			}
		}
		if ip == nil {
			return Identity{}, fmt.Errorf("resolve %s: %w", host, ErrNoIPv4)
		}
	}

	bcast, err := BroadcastFor(ip)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Local: ip.To4(), Broadcast: bcast}, nil
}

// BroadcastFor keeps the first three octets of ip and sets the last one to 255.
func BroadcastFor(ip net.IP) (net.IP, error) {
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("%s: %w", ip, ErrNoIPv4)
	}
	return net.IPv4(v4[0], v4[1], v4[2], 255).To4(), nil
}
