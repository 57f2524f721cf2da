package factory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/session"
	redisstorage "github.com/wmrmrx/MAC0352-EP2/internal/storage/redis"
	"github.com/wmrmrx/MAC0352-EP2/internal/testutil"
	"github.com/wmrmrx/MAC0352-EP2/internal/transport"
)

// wireClient talks the raw protocol to the app's server
type wireClient struct {
	self     protocol.Connection
	listener *transport.Listener[protocol.Response]
}

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	ctx    context.Context
	cancel context.CancelFunc
	server protocol.Connection
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.Require().NoError(s.app.Server.Listen(s.ctx))
	go func() { _ = s.app.Server.Serve(s.ctx) }()
	s.server = protocol.NewConnection(protocol.TransportUDP, testutil.Loopback(s.app.Server.Port()))
}

func (s *IntegrationSuite) TearDownTest() {
	s.cancel()
}

func (s *IntegrationSuite) client(t protocol.Transport) *wireClient {
	cfg := transport.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Transports = []protocol.Transport{t}
	l, err := transport.Listen(s.ctx, cfg, protocol.DecodeResponse, testutil.NopLogger())
	s.Require().NoError(err)
	return &wireClient{
		self:     protocol.NewConnection(t, l.Addr(t)),
		listener: l,
	}
}

func (s *IntegrationSuite) send(c *wireClient, req protocol.Request) {
	msg := protocol.ClientMessage{From: c.self, Body: req}
	s.Require().NoError(s.app.Sender.SendRequest(s.ctx, s.server, msg))
}

// receive returns the next non-heartbeat reply
func (s *IntegrationSuite) receive(c *wireClient) protocol.Response {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case resp := <-c.listener.Messages():
			if _, ok := resp.(protocol.Heartbeat); ok {
				continue
			}
			return resp
		case <-timeout:
			s.FailNow("no reply from server")
			return nil
		}
	}
}

func (s *IntegrationSuite) call(c *wireClient, req protocol.Request) protocol.Response {
	s.send(c, req)
	return s.receive(c)
}

func (s *IntegrationSuite) login(t protocol.Transport, user string) *wireClient {
	c := s.client(t)
	s.Equal(protocol.ConnectResponse{}, s.call(c, protocol.ConnectRequest{}))
	s.Equal(protocol.CreateUserResponse{Result: protocol.ResultOK}, s.call(c, protocol.CreateUserRequest{User: user, Passwd: "pw"}))
	s.Equal(protocol.LoginResponse{Result: protocol.ResultOK}, s.call(c, protocol.LoginRequest{User: user, Passwd: "pw"}))
	return c
}

// Test: a host and a challenger pair up over both transports
func (s *IntegrationSuite) TestHostAndJoin() {
	ana := s.login(protocol.TransportUDP, "ana")
	bob := s.login(protocol.TransportTCP, "bob")

	peerAddr := testutil.Loopback(4000)
	s.Equal(protocol.CreateGameResponse{Result: protocol.ResultOK}, s.call(ana, protocol.CreateGameRequest{ListenerAddr: peerAddr}))
	s.Equal(protocol.JoinGameResponse{Result: protocol.ResultOK, ListenerAddr: peerAddr}, s.call(bob, protocol.JoinGameRequest{Host: "ana"}))

	users := s.call(bob, protocol.ConnectedUsersRequest{})
	s.Equal(protocol.ConnectedUsersResponse{Users: []protocol.UserStatus{
		{User: "ana", State: protocol.UserHosting, Partner: "bob"},
		{User: "bob", State: protocol.UserJoined, Partner: "ana"},
	}}, users)

	// the game ends: score recorded, both back to idle
	s.send(ana, protocol.AddLeaderboardEntry{Entry: model.LeaderboardEntry{User: "ana", Score: 42}})
	s.send(ana, protocol.QuitGameRequest{})
	s.Eventually(func() bool {
		sess, ok := s.app.Table.Get(bob.self)
		return ok && sess.Role == session.RoleIdle
	}, 2*time.Second, 10*time.Millisecond)

	top := s.call(bob, protocol.LeaderboardRequest{})
	s.Equal(protocol.LeaderboardResponse{Top: []model.LeaderboardEntry{{User: "ana", Score: 42}}}, top)
}

// Test: a silent client is evicted and told so on its next heartbeat
func (s *IntegrationSuite) TestSilentClientIsEvicted() {
	ana := s.login(protocol.TransportUDP, "ana")
	s.Equal(1, s.app.Table.Len())

	s.app.MockClock.Advance(protocol.HeartbeatTimeout + time.Second)
	s.app.Monitor.Reap()
	s.Equal(0, s.app.Table.Len())

	s.Equal(protocol.NotConnected{}, s.call(ana, protocol.Heartbeat{}))

	// the name is free again
	bob := s.client(protocol.TransportTCP)
	s.Equal(protocol.ConnectResponse{}, s.call(bob, protocol.ConnectRequest{}))
	s.Equal(protocol.LoginResponse{Result: protocol.ResultOK}, s.call(bob, protocol.LoginRequest{User: "ana", Passwd: "pw"}))
}

// Test: heartbeats keep a client alive past the timeout
func (s *IntegrationSuite) TestHeartbeatKeepsSessionAlive() {
	ana := s.login(protocol.TransportUDP, "ana")
	half := protocol.HeartbeatTimeout / 2

	for i := 0; i < 3; i++ {
		s.app.MockClock.Advance(half)
		s.send(ana, protocol.Heartbeat{})
		s.Eventually(func() bool {
			sess, ok := s.app.Table.Get(ana.self)
			return ok && sess.LastHeartbeat.Equal(s.app.MockClock.Now())
		}, 2*time.Second, 10*time.Millisecond)
		s.Empty(s.app.Monitor.Reap())
	}
}

// Factory tests

func TestNewWithStorageTypes(t *testing.T) {
	ctx := context.Background()

	app, err := New(Config{})
	require.NoError(t, err)
	assert.NoError(t, app.Close())

	app, err = New(Config{StorageType: StorageTypeFile, DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.NoError(t, app.AuthService.CreateUser(ctx, "ana", "pw"))
	assert.NoError(t, app.Close())

	mr := miniredis.RunT(t)
	app, err = New(Config{StorageType: StorageTypeRedis, RedisConfig: &redisstorage.Config{URL: "redis://" + mr.Addr()}})
	require.NoError(t, err)
	assert.NoError(t, app.LeaderboardService.Add(ctx, model.LeaderboardEntry{User: "ana", Score: 1}))
	assert.NoError(t, app.Close())
}

func TestNewRejectsBadStorageConfig(t *testing.T) {
	for _, cfg := range []Config{
		{StorageType: StorageTypeRedis},
		{StorageType: StorageTypeFile},
		{StorageType: "sqlite"},
	} {
		_, err := New(cfg)
		assert.Error(t, err, cfg.StorageType)
	}
}
