package transport

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/testutil"
)

func decodeText(data []byte) (string, error) {
	if strings.HasPrefix(string(data), "bad") {
		return "", errors.New("bad input")
	}
	return string(data), nil
}

type TransportSuite struct {
	suite.Suite
	ctx      context.Context
	cancel   context.CancelFunc
	listener *Listener[string]
	sender   *Sender
}

func TestTransportSuite(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}

func (s *TransportSuite) SetupTest() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	l, err := Listen(s.ctx, cfg, decodeText, testutil.NopLogger())
	s.Require().NoError(err)
	s.listener = l
	s.sender = NewSender(time.Second)
}

func (s *TransportSuite) TearDownTest() {
	s.cancel()
	<-s.listener.Done()
}

func (s *TransportSuite) conn(t protocol.Transport) protocol.Connection {
	return protocol.NewConnection(t, s.listener.Addr(t))
}

func (s *TransportSuite) receive() string {
	select {
	case msg, ok := <-s.listener.Messages():
		s.Require().True(ok, "channel closed")
		return msg
	case <-time.After(2 * time.Second):
		s.FailNow("no message received")
		return ""
	}
}

func (s *TransportSuite) TestBindsBothTransportsOnOnePort() {
	udp := s.listener.Addr(protocol.TransportUDP)
	tcp := s.listener.Addr(protocol.TransportTCP)
	s.True(udp.IsValid())
	s.True(tcp.IsValid())
	s.Equal(udp.Port(), tcp.Port())
	s.Equal(udp.Port(), s.listener.Port())
}

func (s *TransportSuite) TestUDPDelivery() {
	s.Require().NoError(s.sender.Send(s.ctx, s.conn(protocol.TransportUDP), []byte("hello")))
	s.Equal("hello", s.receive())
}

func (s *TransportSuite) TestTCPDelivery() {
	s.Require().NoError(s.sender.Send(s.ctx, s.conn(protocol.TransportTCP), []byte("one")))
	s.Require().NoError(s.sender.Send(s.ctx, s.conn(protocol.TransportTCP), []byte("two")))

	got := []string{s.receive(), s.receive()}
	s.ElementsMatch([]string{"one", "two"}, got)
}

func (s *TransportSuite) TestUndecodableInputIsDropped() {
	s.Require().NoError(s.sender.Send(s.ctx, s.conn(protocol.TransportUDP), []byte("bad datagram")))
	s.Require().NoError(s.sender.Send(s.ctx, s.conn(protocol.TransportTCP), []byte("bad stream")))
	s.Require().NoError(s.sender.Send(s.ctx, s.conn(protocol.TransportUDP), []byte("good")))
	s.Equal("good", s.receive())
}

func (s *TransportSuite) TestOversizedSendRejected() {
	payload := make([]byte, protocol.MaxMessageSize+1)
	s.Error(s.sender.Send(s.ctx, s.conn(protocol.TransportTCP), payload))
}

func (s *TransportSuite) TestCancelClosesMessages() {
	s.cancel()
	select {
	case <-s.listener.Done():
	case <-time.After(time.Second):
		s.FailNow("listener did not stop")
	}
	_, ok := <-s.listener.Messages()
	s.False(ok)
}

func (s *TransportSuite) TestEncodedRoundTrip() {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Transports = []protocol.Transport{protocol.TransportUDP}
	l, err := Listen(s.ctx, cfg, protocol.DecodeResponse, testutil.NopLogger())
	s.Require().NoError(err)
	s.False(l.Addr(protocol.TransportTCP).IsValid())

	to := protocol.UDP(l.Addr(protocol.TransportUDP))
	s.Require().NoError(s.sender.SendResponse(s.ctx, to, protocol.LoginResponse{Result: protocol.ResultOK}))

	select {
	case msg := <-l.Messages():
		s.Equal(protocol.LoginResponse{Result: protocol.ResultOK}, msg)
	case <-time.After(2 * time.Second):
		s.FailNow("no response received")
	}
}

func (s *TransportSuite) TestLocalAddrFor() {
	addr, err := LocalAddrFor(netip.MustParseAddrPort("127.0.0.1:9"))
	s.Require().NoError(err)
	s.True(addr.IsLoopback())
	s.True(addr.Is4())
}
