package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/netip"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/peer"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// idle is a logged-in user outside of any game
type idle struct {
	conn *Conn
}

func (s idle) Run(ctx context.Context) (State, error) {
	c := s.conn
	for {
		line, err := c.shell.Prompt(ctx, c.user, idleCommands)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return c.bye(ctx)
			}
			return nil, ErrDisconnected
		}

		var next State
		switch line.Command {
		case cmdPasswd.Name:
			err = s.changePassword(ctx, line.Args[0], line.Args[1])
		case cmdLeaders.Name:
			err = s.leaders(ctx)
		case cmdUsers.Name:
			err = s.users(ctx)
		case cmdHost.Name:
			next, err = s.host(ctx)
		case cmdJoin.Name:
			next, err = s.join(ctx, line.Args[0])
		case cmdLogout.Name:
			next, err = s.logout(ctx)
		case cmdBye.Name:
			return c.bye(ctx)
		}

		if err != nil {
			if err = c.recoverable(err); err != nil {
				return nil, err
			}
		}
		if next != nil {
			return next, nil
		}
	}
}

func (s idle) changePassword(ctx context.Context, oldPasswd, newPasswd string) error {
	resp, err := request[protocol.ChangePasswordResponse](ctx, s.conn, protocol.ChangePasswordRequest{OldPasswd: oldPasswd, NewPasswd: newPasswd})
	if err != nil {
		return err
	}
	if resp.Result.OK() {
		s.conn.shell.Printf("password changed\n")
	} else {
		s.conn.shell.Printf("could not change password\n")
	}
	return nil
}

func (s idle) leaders(ctx context.Context) error {
	resp, err := request[protocol.LeaderboardResponse](ctx, s.conn, protocol.LeaderboardRequest{})
	if err != nil {
		return err
	}
	if len(resp.Top) == 0 {
		s.conn.shell.Printf("no games finished yet\n")
		return nil
	}
	for i, e := range resp.Top {
		s.conn.shell.Printf("%2d. %-*s %d\n", i+1, model.MaxUsernameLength, e.User, e.Score)
	}
	return nil
}

func (s idle) users(ctx context.Context) error {
	resp, err := request[protocol.ConnectedUsersResponse](ctx, s.conn, protocol.ConnectedUsersRequest{})
	if err != nil {
		return err
	}
	for _, u := range resp.Users {
		switch {
		case u.State == protocol.UserHosting && u.Partner == "":
			s.conn.shell.Printf("%s: hosting, waiting for a challenger\n", u.User)
		case u.State == protocol.UserHosting:
			s.conn.shell.Printf("%s: hosting, playing against %s\n", u.User, u.Partner)
		case u.State == protocol.UserJoined:
			s.conn.shell.Printf("%s: playing in %s's game\n", u.User, u.Partner)
		default:
			s.conn.shell.Printf("%s: idle\n", u.User)
		}
	}
	return nil
}

// host opens the peer listener and registers it with the server
func (s idle) host(ctx context.Context) (State, error) {
	c := s.conn
	h, err := peer.Listen(ctx, c.logger)
	if err != nil {
		c.shell.Printf("could not open a game: %v\n", err)
		return nil, nil
	}

	addr := netip.AddrPortFrom(c.localIP, h.Port())
	resp, err := request[protocol.CreateGameResponse](ctx, c, protocol.CreateGameRequest{ListenerAddr: addr})
	if err != nil || !resp.Result.OK() {
		_ = h.Close()
		if err == nil {
			c.shell.Printf("the server refused to open a game\n")
		}
		return nil, err
	}

	c.shell.Printf("hosting a game at %s\n", addr)
	return &hosting{conn: c, host: h, game: model.NewGame()}, nil
}

// join asks the server where the host listens and connects there
func (s idle) join(ctx context.Context, user string) (State, error) {
	c := s.conn
	resp, err := request[protocol.JoinGameResponse](ctx, c, protocol.JoinGameRequest{Host: user})
	if err != nil {
		return nil, err
	}
	if !resp.Result.OK() {
		c.shell.Printf("cannot join %s's game\n", user)
		return nil, nil
	}

	pc, err := peer.Dial(ctx, resp.ListenerAddr, c.config.ServerTimeout)
	if err != nil {
		c.logger.Warn("peer dial failed", slog.String("host", user), slog.String("error", err.Error()))
		c.shell.Printf("could not reach %s's game\n", user)
		c.send(ctx, protocol.QuitGameRequest{})
		return nil, nil
	}

	c.shell.Printf("joined %s's game, you are the ghost f\n", user)
	return &joined{conn: c, peer: pc}, nil
}

// logout stays idle when the server cannot confirm it: a lost request leaves
// the login in place, while a lost reply shows up as the user gone offline.
func (s idle) logout(ctx context.Context) (State, error) {
	c := s.conn
	_, err := request[protocol.LogoutResponse](ctx, c, protocol.LogoutRequest{})
	if errors.Is(err, ErrTimeout) {
		online, uerr := s.online(ctx)
		if uerr != nil {
			return nil, uerr
		}
		if online {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	c.user = ""
	c.shell.Printf("logged out\n")
	return connected{conn: c}, nil
}

// online reports whether the server still lists our user
func (s idle) online(ctx context.Context) (bool, error) {
	resp, err := request[protocol.ConnectedUsersResponse](ctx, s.conn, protocol.ConnectedUsersRequest{})
	if err != nil {
		return false, err
	}
	for _, u := range resp.Users {
		if u.User == s.conn.user {
			return true, nil
		}
	}
	return false, nil
}
