package protocol

import (
	"cmp"
	"fmt"
	"net/netip"
	"time"
)

const (
	// HeartbeatInterval is how often both sides send heartbeats
	HeartbeatInterval = time.Second
	// HeartbeatTimeout is how long a peer may stay silent before it is dropped
	HeartbeatTimeout = 20 * time.Second
	// MaxMessageSize bounds a single datagram or single-shot TCP message
	MaxMessageSize = 9001
)

// Transport is the kind of socket a Connection is reached through
type Transport string

const (
	TransportUDP Transport = "udp"
	TransportTCP Transport = "tcp"
)

// ParseTransport parses a transport name as given on the command line
func ParseTransport(s string) (Transport, error) {
	switch Transport(s) {
	case TransportUDP, TransportTCP:
		return Transport(s), nil
	default:
		return "", fmt.Errorf("unknown transport %q: must be 'udp' or 'tcp'", s)
	}
}

// Connection identifies where replies for a remote endpoint go.
// It is a comparable value and is used as the session key on the server.
type Connection struct {
	Transport Transport      `json:"transport"`
	Addr      netip.AddrPort `json:"addr"`
}

// NewConnection builds a Connection, unmapping IPv4-in-IPv6 addresses so that
// the same endpoint always produces the same key
func NewConnection(t Transport, addr netip.AddrPort) Connection {
	return Connection{
		Transport: t,
		Addr:      netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port()),
	}
}

// UDP returns a UDP connection identity for addr
func UDP(addr netip.AddrPort) Connection {
	return NewConnection(TransportUDP, addr)
}

// TCP returns a TCP connection identity for addr
func TCP(addr netip.AddrPort) Connection {
	return NewConnection(TransportTCP, addr)
}

// IsValid reports whether the connection has a known transport and a usable address
func (c Connection) IsValid() bool {
	if c.Transport != TransportUDP && c.Transport != TransportTCP {
		return false
	}
	return c.Addr.IsValid() && c.Addr.Port() != 0
}

// Compare orders connections by transport, then address
func (c Connection) Compare(other Connection) int {
	if r := cmp.Compare(c.Transport, other.Transport); r != 0 {
		return r
	}
	return c.Addr.Compare(other.Addr)
}

func (c Connection) String() string {
	return string(c.Transport) + "://" + c.Addr.String()
}
