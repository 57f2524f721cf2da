package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// DefaultSendTimeout bounds dialing and writing one outbound message
const DefaultSendTimeout = time.Second

// Sender delivers single-shot messages: one datagram per UDP message, one
// fresh connection per TCP message
type Sender struct {
	timeout time.Duration
}

// NewSender creates a Sender. A zero timeout uses DefaultSendTimeout.
func NewSender(timeout time.Duration) *Sender {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Sender{timeout: timeout}
}

// Send writes payload to the endpoint identified by to
func (s *Sender) Send(ctx context.Context, to protocol.Connection, payload []byte) error {
	if len(payload) > protocol.MaxMessageSize {
		return fmt.Errorf("send to %s: message of %d bytes exceeds limit", to, len(payload))
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	d := net.Dialer{}
	conn, err := d.DialContext(ctx, string(to.Transport), to.Addr.String())
	if err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send to %s: %w", to, err)
	}
	return nil
}

// SendResponse encodes and sends a server message
func (s *Sender) SendResponse(ctx context.Context, to protocol.Connection, resp protocol.Response) error {
	data, err := protocol.EncodeResponse(resp)
	if err != nil {
		return err
	}
	return s.Send(ctx, to, data)
}

// SendRequest encodes and sends a client message to the server
func (s *Sender) SendRequest(ctx context.Context, server protocol.Connection, msg protocol.ClientMessage) error {
	data, err := protocol.EncodeRequest(msg)
	if err != nil {
		return err
	}
	return s.Send(ctx, server, data)
}

// LocalAddrFor returns the local IP address the OS routes through to reach
// remote. No packet is sent.
func LocalAddrFor(remote netip.AddrPort) (netip.Addr, error) {
	conn, err := net.DialUDP("udp", nil, net.UDPAddrFromAddrPort(remote))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("route to %s: %w", remote, err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).AddrPort().Addr().Unmap(), nil
}
