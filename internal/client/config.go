package client

import (
	"time"

	"github.com/wmrmrx/MAC0352-EP2/internal/heartbeat"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// Config holds configuration for a game client
type Config struct {
	// Server is the server endpoint. Its transport is also the one the
	// client listens on for replies.
	Server protocol.Connection

	ServerTimeout time.Duration // bound on every request/response wait
	PeerTimeout   time.Duration // bound on waiting for the other player's board
	Heartbeat     heartbeat.Config
	PollInterval  time.Duration // reply listener poll interval

	// FailHard ends a hosted game when the challenger's stream fails,
	// instead of carrying on alone
	FailHard bool
	// Backoff is the wait before reconnecting after a lost connection
	Backoff time.Duration
}

// DefaultConfig returns defaults for a client of server
func DefaultConfig(server protocol.Connection) Config {
	return Config{
		Server:        server,
		ServerTimeout: 10 * time.Second,
		PeerTimeout:   2 * time.Minute,
		Heartbeat:     heartbeat.DefaultConfig(),
		PollInterval:  33 * time.Millisecond,
		FailHard:      false,
		Backoff:       5 * time.Second,
	}
}
