package client

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/clock"
	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/mocks"
	"github.com/wmrmrx/MAC0352-EP2/internal/heartbeat"
	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/server"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/auth"
	"github.com/wmrmrx/MAC0352-EP2/internal/services/leaderboard"
	"github.com/wmrmrx/MAC0352-EP2/internal/session"
	"github.com/wmrmrx/MAC0352-EP2/internal/storage/memory"
	"github.com/wmrmrx/MAC0352-EP2/internal/testutil"
	"github.com/wmrmrx/MAC0352-EP2/internal/transport"
)

const waitFor = 5 * time.Second

// player is a client driven by a test through a pipe
type player struct {
	input  *io.PipeWriter
	output *testutil.LogBuffer
	logs   *testutil.LogBuffer
	done   chan error
}

func (p *player) say(lines ...string) {
	for _, l := range lines {
		if _, err := io.WriteString(p.input, l+"\n"); err != nil {
			return
		}
	}
}

type ClientSuite struct {
	suite.Suite
	ctx         context.Context
	cancel      context.CancelFunc
	table       *session.Table
	auth        *auth.Service
	leaderboard *leaderboard.Service
	port        uint16
	players     []*player
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.players = nil

	clk := clock.New()
	store := memory.New()
	logger := testutil.NopLogger()

	s.table = session.NewTable(clk)
	s.auth = auth.New(store, clk, auth.Config{BcryptCost: bcrypt.MinCost})
	s.leaderboard = leaderboard.New(store, model.LeaderboardSize)
	sender := transport.NewSender(0)

	cfg := server.DefaultConfig()
	cfg.Listener.Host = "127.0.0.1"
	router := server.NewRouter(s.table, s.auth, s.leaderboard, sender, logger)
	monitor := heartbeat.NewMonitor(s.table, sender, cfg.Heartbeat, logger)
	srv := server.New(cfg, router, monitor, logger)
	s.Require().NoError(srv.Listen(s.ctx))
	s.port = srv.Port()
	go func() { _ = srv.Serve(s.ctx) }()

	s.Require().NoError(s.auth.CreateUser(s.ctx, "ana", "secret"))
	s.Require().NoError(s.auth.CreateUser(s.ctx, "bob", "hunter2"))
}

func (s *ClientSuite) TearDownTest() {
	s.cancel()
	for _, p := range s.players {
		p.input.Close()
		select {
		case <-p.done:
		case <-time.After(waitFor):
			s.Fail("client did not stop")
		}
	}
}

func (s *ClientSuite) config(t protocol.Transport) Config {
	cfg := DefaultConfig(protocol.NewConnection(t, testutil.Loopback(s.port)))
	cfg.Backoff = 50 * time.Millisecond
	return cfg
}

func (s *ClientSuite) start(cfg Config) *player {
	r, w := io.Pipe()
	logger, logs := testutil.CaptureLogger()
	p := &player{input: w, output: &testutil.LogBuffer{}, logs: logs, done: make(chan error, 1)}

	cl := New(cfg, NewTerminal(r, p.output), mocks.NewMockRandom(), clock.New(), logger)
	go func() { p.done <- cl.Run(s.ctx) }()
	s.players = append(s.players, p)
	return p
}

// script runs a client over fixed input to completion
func (s *ClientSuite) script(t protocol.Transport, input string) string {
	return s.scriptWith(s.config(t), input)
}

func (s *ClientSuite) scriptWith(cfg Config, input string) string {
	out := &testutil.LogBuffer{}
	cl := New(cfg, NewTerminal(strings.NewReader(input), out), mocks.NewMockRandom(), clock.New(), testutil.NopLogger())

	ctx, cancel := context.WithTimeout(s.ctx, waitFor)
	defer cancel()
	s.Require().NoError(cl.Run(ctx))
	s.Require().NoError(ctx.Err(), "client did not finish: %s", out.String())
	return out.String()
}

// lossySender loses the responses drop matches
type lossySender struct {
	*transport.Sender
	drop func(protocol.Response) bool
}

func (l lossySender) SendResponse(ctx context.Context, to protocol.Connection, resp protocol.Response) error {
	if l.drop(resp) {
		return nil
	}
	return l.Sender.SendResponse(ctx, to, resp)
}

// dropFirst matches the first message of type T only
func dropFirst[M any, T any]() func(M) bool {
	var once sync.Once
	return func(msg M) bool {
		if _, ok := any(msg).(T); !ok {
			return false
		}
		dropped := false
		once.Do(func() { dropped = true })
		return dropped
	}
}

func keepAll[M any](M) bool { return false }

// lossyServer serves the suite's sessions on a second UDP port, losing the
// requests and responses the filters match. It returns a client config for it.
func (s *ClientSuite) lossyServer(dropRequest func(protocol.Request) bool, dropResponse func(protocol.Response) bool) Config {
	lcfg := transport.DefaultConfig()
	lcfg.Host = "127.0.0.1"
	lcfg.Transports = []protocol.Transport{protocol.TransportUDP}
	l, err := transport.Listen(s.ctx, lcfg, protocol.DecodeRequest, testutil.NopLogger())
	s.Require().NoError(err)

	sender := lossySender{Sender: transport.NewSender(0), drop: dropResponse}
	router := server.NewRouter(s.table, s.auth, s.leaderboard, sender, testutil.NopLogger())
	go func() {
		for msg := range l.Messages() {
			if dropRequest(msg.Body) {
				continue
			}
			router.Handle(s.ctx, msg)
		}
	}()

	cfg := DefaultConfig(protocol.NewConnection(protocol.TransportUDP, testutil.Loopback(l.Port())))
	cfg.ServerTimeout = 300 * time.Millisecond
	cfg.Backoff = 50 * time.Millisecond
	return cfg
}

func (s *ClientSuite) eventuallyPrints(p *player, text string) {
	s.Eventually(func() bool { return strings.Contains(p.output.String(), text) }, waitFor, 10*time.Millisecond,
		"missing %q in output:\n%s", text, p.output.String())
}

func (s *ClientSuite) userState(user string) protocol.UserState {
	for _, u := range s.table.Users() {
		if u.User == user {
			return u.State
		}
	}
	return ""
}

// Session tests

func (s *ClientSuite) TestAccountLifecycle() {
	for _, t := range []protocol.Transport{protocol.TransportUDP, protocol.TransportTCP} {
		s.Run(string(t), func() {
			user := "carl" + string(t)
			out := s.script(t, strings.Join([]string{
				"login " + user + " pw",
				"new " + user + " pw",
				"login " + user + " pw",
				"users",
				"leaders",
				"passwd pw pw2",
				"logout",
				"login " + user + " pw",
				"login " + user + " pw2",
				"bye",
			}, "\n"))

			s.Contains(out, "login failed")
			s.Contains(out, fmt.Sprintf("user %s created", user))
			s.Contains(out, user+": idle")
			s.Contains(out, "no games finished yet")
			s.Contains(out, "password changed")
			s.Contains(out, "logged out")
			s.Equal(2, strings.Count(out, "logged in as "+user))
			s.True(strings.HasSuffix(out, "bye\n"))
		})
	}
	s.Eventually(func() bool { return s.table.Len() == 0 }, waitFor, 10*time.Millisecond)
}

func (s *ClientSuite) TestLogoutRetriedAfterLostRequest() {
	cfg := s.lossyServer(dropFirst[protocol.Request, protocol.LogoutRequest](), keepAll[protocol.Response])
	out := s.scriptWith(cfg, "login ana secret\nlogout\nlogout\nlogin ana secret\nbye\n")

	s.Contains(out, ErrTimeout.Error())
	s.Equal(1, strings.Count(out, "logged out"))
	s.Equal(2, strings.Count(out, "logged in as ana"))
	s.NotContains(out, "login failed")
	s.Eventually(func() bool { return s.table.Len() == 0 }, waitFor, 10*time.Millisecond)
}

func (s *ClientSuite) TestLogoutSurvivesLostReply() {
	cfg := s.lossyServer(keepAll[protocol.Request], dropFirst[protocol.Response, protocol.LogoutResponse]())
	out := s.scriptWith(cfg, "login ana secret\nlogout\nlogin ana secret\nbye\n")

	s.Contains(out, "logged out")
	s.Equal(2, strings.Count(out, "logged in as ana"))
	s.NotContains(out, "login failed")
}

func (s *ClientSuite) TestEndOfInputSaysBye() {
	out := s.script(protocol.TransportUDP, "login ana secret\n")
	s.Contains(out, "logged in as ana")
	s.Contains(out, "bye")
	s.Eventually(func() bool { return s.table.Len() == 0 }, waitFor, 10*time.Millisecond)
}

func (s *ClientSuite) TestJoinUnknownHost() {
	out := s.script(protocol.TransportTCP, "login bob hunter2\njoin nobody\nbye\n")
	s.Contains(out, "cannot join nobody's game")
}

func (s *ClientSuite) TestReconnectsAfterEviction() {
	cfg := s.config(protocol.TransportUDP)
	cfg.Heartbeat.Interval = 20 * time.Millisecond
	p := s.start(cfg)

	s.eventuallyPrints(p, "connected to")
	s.Eventually(func() bool { return s.table.Len() == 1 }, waitFor, 10*time.Millisecond)
	for _, conn := range s.table.Connections() {
		s.table.Remove(conn)
	}

	s.Eventually(func() bool { return strings.Count(p.output.String(), "connected to") >= 2 }, waitFor, 10*time.Millisecond)
	s.Contains(p.output.String(), ErrDisconnected.Error())
}

// Game tests

func (s *ClientSuite) TestHostedGameRecordsScore() {
	ana := s.start(s.config(protocol.TransportUDP))
	bob := s.start(s.config(protocol.TransportTCP))

	ana.say("login ana secret", "host")
	s.eventuallyPrints(ana, "hosting a game at")
	s.Eventually(func() bool { return s.userState("ana") == protocol.UserHosting }, waitFor, 10*time.Millisecond)

	bob.say("login bob hunter2", "join ana")
	s.eventuallyPrints(bob, "joined ana's game")
	s.Eventually(func() bool { return strings.Contains(ana.logs.String(), "peer connected") }, waitFor, 10*time.Millisecond)
	s.Equal(protocol.UserJoined, s.userState("bob"))

	// bob's ghost only tries to walk into the wall above it
	go func() {
		for i := 0; i < 40; i++ {
			bob.say("move w")
		}
	}()
	// the local ghost never leaves its corner, so Pacman walks into it
	var moves []string
	for _, d := range "sssddddsssddddddd" {
		moves = append(moves, "move "+string(d))
	}
	go ana.say(moves...)

	s.eventuallyPrints(ana, "game over, final score 16")
	s.eventuallyPrints(bob, "game over, final score 16")
	s.Eventually(func() bool {
		top, err := s.leaderboard.Top(s.ctx)
		return err == nil && len(top) == 1 && top[0] == model.LeaderboardEntry{User: "ana", Score: 16}
	}, waitFor, 10*time.Millisecond)
	s.Eventually(func() bool {
		return s.userState("ana") == protocol.UserIdle && s.userState("bob") == protocol.UserIdle
	}, waitFor, 10*time.Millisecond)
}

func (s *ClientSuite) TestHostCarriesOnWhenChallengerQuits() {
	ana := s.start(s.config(protocol.TransportTCP))
	bob := s.start(s.config(protocol.TransportUDP))

	ana.say("login ana secret", "host")
	s.Eventually(func() bool { return s.userState("ana") == protocol.UserHosting }, waitFor, 10*time.Millisecond)
	bob.say("login bob hunter2", "join ana")
	s.Eventually(func() bool { return strings.Contains(ana.logs.String(), "peer connected") }, waitFor, 10*time.Millisecond)

	go bob.say("quit")
	ana.say("move s")
	s.eventuallyPrints(ana, "lost the challenger")
	s.eventuallyPrints(bob, "left the game")
	s.Eventually(func() bool { return s.userState("bob") == protocol.UserIdle }, waitFor, 10*time.Millisecond)

	ana.say("delay", "quit")
	s.eventuallyPrints(ana, "no challenger yet")
	s.eventuallyPrints(ana, "left the game")
	s.Eventually(func() bool { return s.userState("ana") == protocol.UserIdle }, waitFor, 10*time.Millisecond)
}

func (s *ClientSuite) TestFailHardHostLeavesWithChallenger() {
	cfg := s.config(protocol.TransportUDP)
	cfg.FailHard = true
	ana := s.start(cfg)
	bob := s.start(s.config(protocol.TransportUDP))

	ana.say("login ana secret", "host")
	s.Eventually(func() bool { return s.userState("ana") == protocol.UserHosting }, waitFor, 10*time.Millisecond)
	bob.say("login bob hunter2", "join ana")
	s.Eventually(func() bool { return strings.Contains(ana.logs.String(), "peer connected") }, waitFor, 10*time.Millisecond)

	go bob.say("quit")
	ana.say("move s")
	s.eventuallyPrints(ana, "lost the challenger")
	s.Eventually(func() bool {
		return s.userState("ana") == protocol.UserIdle && s.userState("bob") == protocol.UserIdle
	}, waitFor, 10*time.Millisecond)

	ana.say("users")
	s.eventuallyPrints(ana, "ana: idle")
	s.NotContains(ana.output.String(), "left the game")
}

func (s *ClientSuite) TestJoinedPlayerSeesHostLeave() {
	ana := s.start(s.config(protocol.TransportUDP))
	bob := s.start(s.config(protocol.TransportUDP))

	ana.say("login ana secret", "host")
	s.Eventually(func() bool { return s.userState("ana") == protocol.UserHosting }, waitFor, 10*time.Millisecond)
	bob.say("login bob hunter2", "join ana")
	s.Eventually(func() bool { return strings.Contains(ana.logs.String(), "peer connected") }, waitFor, 10*time.Millisecond)

	ana.say("quit")
	s.eventuallyPrints(ana, "left the game")
	s.eventuallyPrints(bob, "the host left the game")
	s.Eventually(func() bool {
		return s.userState("ana") == protocol.UserIdle && s.userState("bob") == protocol.UserIdle
	}, waitFor, 10*time.Millisecond)

	bob.say("users")
	s.eventuallyPrints(bob, "bob: idle")
}

func (s *ClientSuite) TestJoinedPlayerStopsWaitingWhenEvicted() {
	ana := s.start(s.config(protocol.TransportUDP))
	cfg := s.config(protocol.TransportUDP)
	cfg.Heartbeat.Interval = 20 * time.Millisecond
	bob := s.start(cfg)

	ana.say("login ana secret", "host")
	s.Eventually(func() bool { return s.userState("ana") == protocol.UserHosting }, waitFor, 10*time.Millisecond)
	bob.say("login bob hunter2", "join ana")
	s.eventuallyPrints(bob, "joined ana's game")

	// ana never moves, so bob sits waiting for a board
	for _, conn := range s.table.Connections() {
		if sess, ok := s.table.Get(conn); ok && sess.Login == "bob" {
			s.table.Remove(conn)
		}
	}

	s.eventuallyPrints(bob, ErrDisconnected.Error())
	s.NotContains(bob.output.String(), "the host left the game")
}
