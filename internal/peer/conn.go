// Package peer carries the game board between the hosting player and the
// joined player over a dedicated TCP stream, one board per turn.
package peer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/segmentio/encoding/json"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// ErrClosed is returned when the other player hung up
var ErrClosed = errors.New("peer connection closed")

// writeTimeout bounds writing one board
const writeTimeout = 5 * time.Second

// Conn is one side of a peer game stream. Boards are framed as one JSON
// document per line.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader

	mu        sync.Mutex
	roundTrip time.Duration
}

func newConn(c net.Conn) *Conn {
	return &Conn{
		conn:   c,
		reader: bufio.NewReaderSize(c, protocol.MaxMessageSize),
	}
}

// Dial connects to a hosting player
func Dial(ctx context.Context, addr netip.AddrPort, timeout time.Duration) (*Conn, error) {
	d := net.Dialer{Timeout: timeout}
	c, err := d.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return newConn(c), nil
}

// Send writes one board
func (c *Conn) Send(g *model.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("send board: %w", err)
	}
	return nil
}

// Receive reads one board, waiting at most timeout
func (c *Conn) Receive(timeout time.Duration) (*model.Game, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	line, err := c.reader.ReadSlice('\n')
	if err != nil {
		if errors.Is(err, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("receive board: frame exceeds %d bytes", protocol.MaxMessageSize)
		}
		if len(line) == 0 && isEOF(err) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("receive board: %w", err)
	}

	var g model.Game
	if err := json.Unmarshal(line, &g); err != nil {
		return nil, fmt.Errorf("receive board: %w", err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("receive board: %w", err)
	}
	return &g, nil
}

// Exchange sends our board and waits for the other player's answer
func (c *Conn) Exchange(g *model.Game, timeout time.Duration) (*model.Game, error) {
	start := time.Now()
	if err := c.Send(g); err != nil {
		return nil, err
	}
	reply, err := c.Receive(timeout)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.roundTrip = time.Since(start)
	c.mu.Unlock()
	return reply, nil
}

// RoundTrip returns how long the last successful Exchange took, including
// the other player's think time
func (c *Conn) RoundTrip() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roundTrip
}

// RemoteAddr returns the other player's address
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// Close hangs up
func (c *Conn) Close() error {
	return c.conn.Close()
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}
