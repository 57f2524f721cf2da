package heartbeat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
	"github.com/wmrmrx/MAC0352-EP2/internal/session"
)

// Config holds heartbeat timing for both sides
type Config struct {
	// Interval between heartbeats sent
	Interval time.Duration
	// Timeout after which a silent peer is considered gone
	Timeout time.Duration
	// WatchInterval between server reaper passes
	WatchInterval time.Duration
}

// DefaultConfig returns the protocol's heartbeat timing
func DefaultConfig() Config {
	return Config{
		Interval:      protocol.HeartbeatInterval,
		Timeout:       protocol.HeartbeatTimeout,
		WatchInterval: 2 * time.Second,
	}
}

// ResponseSender delivers a server message to a client
type ResponseSender interface {
	SendResponse(ctx context.Context, to protocol.Connection, resp protocol.Response) error
}

// Monitor pings every known client and evicts the ones that went silent
type Monitor struct {
	table  *session.Table
	sender ResponseSender
	config Config
	logger *slog.Logger
}

// NewMonitor creates a server-side heartbeat monitor
func NewMonitor(table *session.Table, sender ResponseSender, cfg Config, logger *slog.Logger) *Monitor {
	defaults := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = defaults.WatchInterval
	}
	return &Monitor{
		table:  table,
		sender: sender,
		config: cfg,
		logger: logger.With(slog.String("component", "heartbeat")),
	}
}

// Run pings and reaps on their own tickers until ctx is done
func (m *Monitor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		every(ctx, m.config.Interval, func() { m.Ping(ctx) })
	}()
	go func() {
		defer wg.Done()
		every(ctx, m.config.WatchInterval, func() { m.Reap() })
	}()
	wg.Wait()
}

// Ping sends one heartbeat to every known connection. The table lock is not
// held while sending.
func (m *Monitor) Ping(ctx context.Context) {
	var wg sync.WaitGroup
	for _, conn := range m.table.Connections() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.sender.SendResponse(ctx, conn, protocol.Heartbeat{}); err != nil {
				m.logger.Debug("heartbeat send failed",
					slog.String("conn", conn.String()),
					slog.String("error", err.Error()),
				)
			}
		}()
	}
	wg.Wait()
}

// Reap evicts every session that has been silent for longer than the timeout
func (m *Monitor) Reap() []protocol.Connection {
	var evicted []protocol.Connection
	for _, s := range m.table.Reap(m.config.Timeout) {
		m.logger.Info("session expired",
			slog.String("conn", s.Conn.String()),
			slog.String("session", s.ID.String()),
			slog.String("user", s.Login),
			slog.Time("connected_at", s.ConnectedAt),
		)
		evicted = append(evicted, s.Conn)
	}
	return evicted
}

// every calls fn each interval until ctx is done
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
