package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/wmrmrx/MAC0352-EP2/internal/heartbeat"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// State is one step of the client's connection lifecycle. Run returns the
// next state, or a nil state with the error that ended the connection.
type State interface {
	Run(ctx context.Context) (State, error)
}

// connecting asks the server for a session and starts the heartbeat
type connecting struct {
	conn *Conn
}

func (s connecting) Run(ctx context.Context) (State, error) {
	c := s.conn
	if _, err := request[protocol.ConnectResponse](ctx, c, protocol.ConnectRequest{}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	go heartbeat.Beacon(ctx, c.sender, c.server, c.self, c.config.Heartbeat.Interval, c.logger)
	c.inbox = heartbeat.Filter(ctx, c.cancel, c.inbox, c.config.Heartbeat.Timeout, c.clock, c.logger)

	c.logger.Info("connected", slog.String("server", c.server.String()), slog.String("self", c.self.String()))
	c.shell.Printf("connected to %s, type help for commands\n", c.server.Addr)
	return connected{conn: c}, nil
}

// connected is a session without a login
type connected struct {
	conn *Conn
}

func (s connected) Run(ctx context.Context) (State, error) {
	c := s.conn
	for {
		line, err := c.shell.Prompt(ctx, "pacman", connectedCommands)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return c.bye(ctx)
			}
			return nil, ErrDisconnected
		}

		switch line.Command {
		case cmdNew.Name:
			resp, err := request[protocol.CreateUserResponse](ctx, c, protocol.CreateUserRequest{User: line.Args[0], Passwd: line.Args[1]})
			if err != nil {
				if err = c.recoverable(err); err != nil {
					return nil, err
				}
				continue
			}
			if resp.Result.OK() {
				c.shell.Printf("user %s created\n", line.Args[0])
			} else {
				c.shell.Printf("could not create user %s\n", line.Args[0])
			}

		case cmdLogin.Name:
			resp, err := request[protocol.LoginResponse](ctx, c, protocol.LoginRequest{User: line.Args[0], Passwd: line.Args[1]})
			if err != nil {
				if err = c.recoverable(err); err != nil {
					return nil, err
				}
				continue
			}
			if !resp.Result.OK() {
				c.shell.Printf("login failed\n")
				continue
			}
			c.user = line.Args[0]
			c.shell.Printf("logged in as %s\n", c.user)
			return idle{conn: c}, nil

		case cmdBye.Name:
			return c.bye(ctx)
		}
	}
}
