package client

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/clock"
	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/random"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/transport"
)

// Conn is the state shared by every state of one connection attempt
type Conn struct {
	config  Config
	server  protocol.Connection
	self    protocol.Connection // our reply listener, sent with every request
	localIP netip.Addr          // address the server reaches us on
	sender  *transport.Sender
	inbox   <-chan protocol.Response
	cancel  context.CancelFunc

	shell  Shell
	random random.Random
	clock  clock.Clock
	logger *slog.Logger

	user string // logged-in user, empty while logged out
}

// send delivers a request. Failures are only logged: a lost request shows
// up as a timeout.
func (c *Conn) send(ctx context.Context, req protocol.Request) {
	msg := protocol.ClientMessage{From: c.self, Body: req}
	if err := c.sender.SendRequest(ctx, c.server, msg); err != nil {
		c.logger.Debug("request send failed",
			slog.String("kind", string(req.Kind())),
			slog.String("error", err.Error()),
		)
	}
}

// request sends req and waits for the reply of type T
func request[T protocol.Response](ctx context.Context, c *Conn, req protocol.Request) (T, error) {
	c.send(ctx, req)
	return WatchFor[T](ctx, c.inbox, c.config.ServerTimeout)
}

// recoverable reports a timeout to the player and clears it. Any other error
// is returned and ends the state.
func (c *Conn) recoverable(err error) error {
	if errors.Is(err, ErrTimeout) {
		c.shell.Printf("%v\n", err)
		return nil
	}
	return err
}

// bye tells the server we are leaving and ends the client
func (c *Conn) bye(ctx context.Context) (State, error) {
	c.send(ctx, protocol.Disconnect{})
	c.shell.Printf("bye\n")
	return nil, ErrQuit
}
