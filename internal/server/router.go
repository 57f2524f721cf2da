package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/wmrmrx/MAC0352-EP2/internal/heartbeat"
	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/auth"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/leaderboard"
	"github.com/wmrmrx/MAC0352-EP2/internal/session"
)

// Router applies client requests to the session table and answers them.
// Every request produces at most one reply, sent to the requesting identity.
type Router struct {
	table       *session.Table
	auth        *auth.Service
	leaderboard *leaderboard.Service
	sender      heartbeat.ResponseSender
	logger      *slog.Logger
}

// NewRouter creates a Router
func NewRouter(table *session.Table, authService *auth.Service, lb *leaderboard.Service, sender heartbeat.ResponseSender, logger *slog.Logger) *Router {
	return &Router{
		table:       table,
		auth:        authService,
		leaderboard: lb,
		sender:      sender,
		logger:      logger.With(slog.String("component", "router")),
	}
}

// Handle processes one request. A panic while handling is logged and the
// request is dropped.
func (r *Router) Handle(ctx context.Context, msg protocol.ClientMessage) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("panic handling request",
				slog.String("kind", string(msg.Body.Kind())),
				slog.String("conn", msg.From.String()),
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	reply := r.dispatch(ctx, msg.From, msg.Body)
	if reply == nil {
		return
	}
	if err := r.sender.SendResponse(ctx, msg.From, reply); err != nil {
		r.logger.Debug("reply failed",
			slog.String("kind", string(reply.Kind())),
			slog.String("conn", msg.From.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Router) dispatch(ctx context.Context, from protocol.Connection, req protocol.Request) protocol.Response {
	switch req := req.(type) {
	case protocol.ConnectRequest:
		if !r.table.Insert(from) {
			return nil
		}
		r.logger.Info("client connected", slog.String("conn", from.String()), r.sessionAttr(from))
		return protocol.ConnectResponse{}

	case protocol.Heartbeat:
		if !r.table.SetHeartbeat(from) {
			return protocol.NotConnected{}
		}
		return nil

	case protocol.Disconnect:
		attr := r.sessionAttr(from)
		if r.table.Remove(from) {
			r.logger.Info("client disconnected", slog.String("conn", from.String()), attr)
		}
		return nil

	case protocol.CreateUserRequest:
		return protocol.CreateUserResponse{Result: r.createUser(ctx, req)}

	case protocol.LoginRequest:
		return protocol.LoginResponse{Result: r.login(ctx, from, req)}

	case protocol.ChangePasswordRequest:
		return protocol.ChangePasswordResponse{Result: r.changePassword(ctx, from, req)}

	case protocol.LogoutRequest:
		if !r.table.Logout(from) {
			return nil
		}
		return protocol.LogoutResponse{}

	case protocol.QuitGameRequest:
		r.table.Kick(from)
		return nil

	case protocol.ConnectedUsersRequest:
		return protocol.ConnectedUsersResponse{Users: r.table.Users()}

	case protocol.CreateGameRequest:
		ok := req.ListenerAddr.IsValid() && r.table.CreateGame(from, req.ListenerAddr)
		if ok {
			r.logger.Info("game created",
				slog.String("conn", from.String()),
				slog.String("listener", req.ListenerAddr.String()),
			)
		}
		return protocol.CreateGameResponse{Result: protocol.ResultOf(ok)}

	case protocol.JoinGameRequest:
		addr, ok := r.table.JoinGame(from, req.Host)
		return protocol.JoinGameResponse{Result: protocol.ResultOf(ok), ListenerAddr: addr}

	case protocol.LeaderboardRequest:
		top, err := r.leaderboard.Top(ctx)
		if err != nil {
			r.logger.Error("failed to read leaderboard", slog.String("error", err.Error()))
		}
		return protocol.LeaderboardResponse{Top: top}

	case protocol.AddLeaderboardEntry:
		if err := model.ValidateUsername(req.Entry.User); err != nil {
			r.logger.Warn("rejecting leaderboard entry", slog.String("user", req.Entry.User))
			return nil
		}
		if err := r.leaderboard.Add(ctx, req.Entry); err != nil {
			r.logger.Error("failed to add leaderboard entry", slog.String("error", err.Error()))
		}
		return nil
	}

	r.logger.Warn("unhandled request", slog.String("kind", string(req.Kind())), slog.String("type", fmt.Sprintf("%T", req)))
	return nil
}

func (r *Router) createUser(ctx context.Context, req protocol.CreateUserRequest) protocol.Result {
	err := r.auth.CreateUser(ctx, req.User, req.Passwd)
	switch {
	case err == nil:
		r.logger.Info("user created", slog.String("user", req.User))
		return protocol.ResultOK
	case errors.Is(err, model.ErrUserExists),
		errors.Is(err, model.ErrInvalidUsername),
		errors.Is(err, model.ErrInvalidPassword):
		return protocol.ResultErr
	default:
		r.logger.Error("failed to create user", slog.String("user", req.User), slog.String("error", err.Error()))
		return protocol.ResultErr
	}
}

func (r *Router) login(ctx context.Context, from protocol.Connection, req protocol.LoginRequest) protocol.Result {
	if err := r.auth.Verify(ctx, req.User, req.Passwd); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			r.logger.Error("failed to verify credentials", slog.String("user", req.User), slog.String("error", err.Error()))
		}
		return protocol.ResultErr
	}
	if !r.table.Login(from, req.User) {
		return protocol.ResultErr
	}
	r.logger.Info("user logged in", slog.String("user", req.User), slog.String("conn", from.String()), r.sessionAttr(from))
	return protocol.ResultOK
}

func (r *Router) changePassword(ctx context.Context, from protocol.Connection, req protocol.ChangePasswordRequest) protocol.Result {
	user, ok := r.table.Username(from)
	if !ok {
		return protocol.ResultErr
	}
	err := r.auth.ChangePassword(ctx, user, req.OldPasswd, req.NewPasswd)
	switch {
	case err == nil:
		return protocol.ResultOK
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, model.ErrInvalidPassword):
		return protocol.ResultErr
	default:
		r.logger.Error("failed to change password", slog.String("user", user), slog.String("error", err.Error()))
		return protocol.ResultErr
	}
}

// sessionAttr tags a log line with the session behind from
func (r *Router) sessionAttr(from protocol.Connection) slog.Attr {
	sess, ok := r.table.Get(from)
	if !ok {
		return slog.String("session", "")
	}
	return slog.String("session", sess.ID.String())
}
