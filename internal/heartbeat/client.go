package heartbeat

import (
	"context"
	"log/slog"
	"time"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/clock"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// RequestSender delivers a client message to the server
type RequestSender interface {
	SendRequest(ctx context.Context, server protocol.Connection, msg protocol.ClientMessage) error
}

// Beacon sends a heartbeat to the server every interval until ctx is done
func Beacon(ctx context.Context, sender RequestSender, server, self protocol.Connection, interval time.Duration, logger *slog.Logger) {
	msg := protocol.ClientMessage{From: self, Body: protocol.Heartbeat{}}
	every(ctx, interval, func() {
		if err := sender.SendRequest(ctx, server, msg); err != nil {
			logger.Debug("heartbeat send failed", slog.String("error", err.Error()))
		}
	})
}

// filterTick is how often the filter checks for a silent server
const filterTick = 100 * time.Millisecond

// Filter consumes in, swallows server heartbeats and forwards everything else
// in arrival order. If the server stays silent for longer than timeout, says
// it no longer knows this client, or in is closed, Filter calls cancel. The
// returned channel is closed when Filter stops.
func Filter(ctx context.Context, cancel context.CancelFunc, in <-chan protocol.Response, timeout time.Duration, c clock.Clock, logger *slog.Logger) <-chan protocol.Response {
	out := make(chan protocol.Response, cap(in))
	logger = logger.With(slog.String("component", "heartbeat"))

	go func() {
		defer close(out)

		lastSeen := c.Now()
		ticker := time.NewTicker(filterTick)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if silent := clock.Since(c, lastSeen); silent > timeout {
					logger.Warn("server heartbeat timed out", slog.Duration("silent", silent))
					cancel()
					return
				}
			case msg, ok := <-in:
				if !ok {
					cancel()
					return
				}
				lastSeen = c.Now()
				switch msg.(type) {
				case protocol.Heartbeat:
					continue
				case protocol.NotConnected:
					logger.Warn("server dropped this session")
					cancel()
					return
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
