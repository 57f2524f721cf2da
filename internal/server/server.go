package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/wmrmrx/MAC0352-EP2/internal/heartbeat"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/transport"
)

// Config holds configuration for the game server
type Config struct {
	Listener  transport.Config
	Heartbeat heartbeat.Config
}

// DefaultConfig returns a server listening on both transports on port 0
func DefaultConfig() Config {
	return Config{
		Listener:  transport.DefaultConfig(),
		Heartbeat: heartbeat.DefaultConfig(),
	}
}

// Server receives requests on UDP and TCP, routes them and keeps sessions
// alive with heartbeats
type Server struct {
	config  Config
	router  *Router
	monitor *heartbeat.Monitor
	logger  *slog.Logger

	listener *transport.Listener[protocol.ClientMessage]
}

// New creates a Server
func New(cfg Config, router *Router, monitor *heartbeat.Monitor, logger *slog.Logger) *Server {
	return &Server{
		config:  cfg,
		router:  router,
		monitor: monitor,
		logger:  logger.With(slog.String("component", "server")),
	}
}

// Listen binds the server sockets. They are released when ctx is done.
func (s *Server) Listen(ctx context.Context) error {
	l, err := transport.Listen(ctx, s.config.Listener, protocol.DecodeRequest, s.logger)
	if err != nil {
		return err
	}
	s.listener = l
	return nil
}

// Port returns the bound port, valid after Listen
func (s *Server) Port() uint16 {
	if s.listener == nil {
		return 0
	}
	return s.listener.Port()
}

// Serve handles requests until ctx is done. Listen must have been called.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("serve: server is not listening")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.monitor.Run(ctx)
	}()

	s.logger.Info("server started", slog.Int("port", int(s.Port())))
	for msg := range s.listener.Messages() {
		s.router.Handle(ctx, msg)
	}

	wg.Wait()
	s.logger.Info("server stopped")
	return nil
}

// Run listens and serves until ctx is done
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(ctx); err != nil {
		return err
	}
	return s.Serve(ctx)
}
