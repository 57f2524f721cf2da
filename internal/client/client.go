// Package client implements the interactive game client: a connection state
// machine driven by shell commands, talking to the server over UDP or TCP
// and to the other player over a peer stream.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/clock"
	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/random"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/transport"
)

// Client connects to a game server and keeps reconnecting until the player quits
type Client struct {
	config Config
	shell  Shell
	random random.Random
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a Client
func New(cfg Config, shell Shell, rnd random.Random, clk clock.Clock, logger *slog.Logger) *Client {
	return &Client{
		config: cfg,
		shell:  shell,
		random: rnd,
		clock:  clk,
		logger: logger.With(slog.String("component", "client")),
	}
}

// Run plays connection after connection, waiting Backoff between them,
// until the player says bye or ctx is done
func (cl *Client) Run(ctx context.Context) error {
	for {
		err := cl.RunOnce(ctx)
		if errors.Is(err, ErrQuit) || err == nil || ctx.Err() != nil {
			return nil
		}

		cl.logger.Warn("connection ended", slog.String("error", err.Error()))
		cl.shell.Printf("%v, reconnecting in %s\n", err, cl.config.Backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cl.config.Backoff):
		}
	}
}

// RunOnce opens a fresh reply listener and drives one connection from
// Connecting until it ends
func (cl *Client) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	server := cl.config.Server
	localIP, err := transport.LocalAddrFor(server.Addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	lcfg := transport.DefaultConfig()
	lcfg.Transports = []protocol.Transport{server.Transport}
	if cl.config.PollInterval > 0 {
		lcfg.PollInterval = cl.config.PollInterval
	}
	l, err := transport.Listen(ctx, lcfg, protocol.DecodeResponse, cl.logger)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}
	defer func() {
		cancel()
		<-l.Done()
	}()

	conn := &Conn{
		config:  cl.config,
		server:  server,
		self:    protocol.NewConnection(server.Transport, netip.AddrPortFrom(localIP, l.Port())),
		localIP: localIP,
		sender:  transport.NewSender(0),
		inbox:   l.Messages(),
		cancel:  cancel,
		shell:   cl.shell,
		random:  cl.random,
		clock:   cl.clock,
		logger:  cl.logger,
	}

	var state State = connecting{conn: conn}
	for state != nil {
		state, err = state.Run(ctx)
	}
	return err
}
