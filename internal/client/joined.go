package client

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/wmrmrx/MAC0352-EP2/internal/peer"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// joined plays the remote ghost in another user's game
type joined struct {
	conn *Conn
	peer *peer.Conn
}

func (s *joined) Run(ctx context.Context) (State, error) {
	c := s.conn
	defer s.peer.Close()
	// the peer stream closes with the server connection
	stop := context.AfterFunc(ctx, func() { _ = s.peer.Close() })
	defer stop()

	next, err := s.play(ctx)
	c.send(ctx, protocol.QuitGameRequest{})
	return next, err
}

func (s *joined) play(ctx context.Context) (State, error) {
	c := s.conn
	for {
		game, err := s.peer.Receive(c.config.PeerTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrDisconnected
			}
			if errors.Is(err, peer.ErrClosed) {
				c.shell.Printf("the host left the game\n")
			} else {
				c.logger.Warn("host board not received", slog.String("error", err.Error()))
				c.shell.Printf("lost the host: %v\n", err)
			}
			return idle{conn: c}, nil
		}

		c.shell.Printf("%s", game.Render())
		if game.GameOver() {
			c.shell.Printf("game over, final score %d\n", game.Score)
			return idle{conn: c}, nil
		}

		line, err := c.shell.Prompt(ctx, c.user, joinedCommands)
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.shell.Printf("left the game\n")
				return idle{conn: c}, nil
			}
			return nil, ErrDisconnected
		}
		if line.Command == cmdQuit.Name {
			c.shell.Printf("left the game\n")
			return idle{conn: c}, nil
		}

		game.MoveRemoteGhost(direction(line))
		if err := s.peer.Send(game); err != nil {
			c.shell.Printf("lost the host: %v\n", err)
			return idle{conn: c}, nil
		}
		if game.GameOver() {
			c.shell.Printf("%sPacman caught, final score %d\n", game.Render(), game.Score)
			return idle{conn: c}, nil
		}
	}
}
