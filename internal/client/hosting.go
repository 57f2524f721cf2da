package client

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/random"
	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/peer"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// hosting plays Pacman. The local ghost moves at random; a challenger, once
// connected, controls the remote ghost.
type hosting struct {
	conn *Conn
	host *peer.Host
	game *model.Game
}

func (s *hosting) Run(ctx context.Context) (State, error) {
	c := s.conn
	defer s.host.Close()
	stop := context.AfterFunc(ctx, s.host.Drop)
	defer stop()

	for {
		s.game.MoveLocalGhost(random.Pick(c.random, model.Directions))
		if s.game.GameOver() {
			return s.finish(ctx), nil
		}

		if p := s.host.Current(); p != nil {
			if err := s.exchange(p); err != nil {
				if ctx.Err() != nil {
					return nil, ErrDisconnected
				}
				c.logger.Warn("challenger lost", slog.String("peer", p.RemoteAddr()), slog.String("error", err.Error()))
				c.shell.Printf("lost the challenger: %v\n", err)
				s.host.Drop()
				s.game.RemoveRemoteGhost()
				if c.config.FailHard {
					c.send(ctx, protocol.QuitGameRequest{})
					return idle{conn: c}, nil
				}
			}
			if s.game.GameOver() {
				return s.finish(ctx), nil
			}
		}

		c.shell.Printf("%s", s.game.Render())
		d, err := s.prompt(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, errLeave) {
				c.send(ctx, protocol.QuitGameRequest{})
				c.shell.Printf("left the game\n")
				return idle{conn: c}, nil
			}
			return nil, ErrDisconnected
		}

		s.game.MovePacman(d)
		if s.game.GameOver() {
			return s.finish(ctx), nil
		}
	}
}

var errLeave = errors.New("left the game")

// prompt asks for Pacman's next move
func (s *hosting) prompt(ctx context.Context) (model.Direction, error) {
	c := s.conn
	for {
		line, err := c.shell.Prompt(ctx, c.user, hostingCommands)
		if err != nil {
			return 0, err
		}
		switch line.Command {
		case cmdMove.Name:
			return direction(line), nil
		case cmdQuit.Name:
			return 0, errLeave
		case cmdDelay.Name:
			p := s.host.Current()
			if p == nil || p.RoundTrip() == 0 {
				c.shell.Printf("no challenger yet\n")
				continue
			}
			c.shell.Printf("last round trip: %s\n", p.RoundTrip())
		}
	}
}

// exchange hands the board to the challenger and takes back its ghost
func (s *hosting) exchange(p *peer.Conn) error {
	s.game.AddRemoteGhost()
	if s.game.GameOver() {
		return nil
	}
	reply, err := p.Exchange(s.game, s.conn.config.PeerTimeout)
	if err != nil {
		return err
	}
	if reply.RemoteGhost != nil {
		s.game.PlaceRemoteGhost(*reply.RemoteGhost)
	}
	return nil
}

// finish shows the final board to both players and records the score
func (s *hosting) finish(ctx context.Context) State {
	c := s.conn
	if p := s.host.Current(); p != nil {
		if err := p.Send(s.game); err != nil {
			c.logger.Debug("final board not delivered", slog.String("error", err.Error()))
		}
	}

	c.shell.Printf("%sgame over, final score %d\n", s.game.Render(), s.game.Score)
	c.send(ctx, protocol.AddLeaderboardEntry{Entry: model.LeaderboardEntry{User: c.user, Score: s.game.Score}})
	c.send(ctx, protocol.QuitGameRequest{})
	return idle{conn: c}
}
