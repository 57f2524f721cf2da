package peer

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
)

// Host accepts the joined player's stream. Only one peer is played with at a
// time; anyone else dialing in while a peer is active is hung up on.
type Host struct {
	ln     *net.TCPListener
	logger *slog.Logger

	mu      sync.Mutex
	current *Conn
	closed  bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Listen opens the peer listener on an ephemeral port on all interfaces and
// accepts until ctx is done or Close is called
func Listen(ctx context.Context, logger *slog.Logger) (*Host, error) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		return nil, err
	}

	h := &Host{
		ln:     ln.(*net.TCPListener),
		logger: logger.With(slog.String("component", "peer")),
		stop:   make(chan struct{}),
	}

	h.wg.Add(2)
	go h.acceptLoop()
	go func() {
		defer h.wg.Done()
		select {
		case <-ctx.Done():
		case <-h.stop:
		}
		_ = h.ln.Close()
	}()
	h.logger.Info("waiting for a challenger", slog.Int("port", int(h.Port())))
	return h, nil
}

// Port returns the listening port
func (h *Host) Port() uint16 {
	return uint16(h.ln.Addr().(*net.TCPAddr).Port)
}

// Current returns the active peer, or nil while nobody is connected
func (h *Host) Current() *Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Drop hangs up on the active peer so another one can connect
func (h *Host) Drop() {
	h.mu.Lock()
	c := h.current
	h.current = nil
	h.mu.Unlock()

	if c != nil {
		_ = c.Close()
		h.logger.Info("peer dropped", slog.String("peer", c.RemoteAddr()))
	}
}

// Close stops accepting and hangs up on the active peer
func (h *Host) Close() error {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.stopOnce.Do(func() { close(h.stop) })
	h.wg.Wait()
	h.Drop()
	return nil
}

func (h *Host) acceptLoop() {
	defer h.wg.Done()
	for {
		c, err := h.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				h.logger.Warn("peer accept failed", slog.String("error", err.Error()))
			}
			return
		}

		h.mu.Lock()
		if h.current != nil || h.closed {
			h.mu.Unlock()
			h.logger.Info("rejecting extra peer", slog.String("peer", c.RemoteAddr().String()))
			_ = c.Close()
			continue
		}
		h.current = newConn(c)
		h.mu.Unlock()
		h.logger.Info("peer connected", slog.String("peer", c.RemoteAddr().String()))
	}
}
