package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"slices"
	"sync"
	"time"

	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// Config holds configuration for a Listener
type Config struct {
	Host       string
	Port       uint16 // 0 picks an ephemeral port
	Transports []protocol.Transport

	// PollInterval bounds every blocking socket call, so it is also the
	// shutdown latency after ctx is cancelled
	PollInterval time.Duration
	// ReadTimeout bounds reading one single-shot TCP message
	ReadTimeout time.Duration
	QueueSize   int
}

// DefaultConfig returns defaults for a listener on both transports
func DefaultConfig() Config {
	return Config{
		Host:         "",
		Port:         0,
		Transports:   []protocol.Transport{protocol.TransportUDP, protocol.TransportTCP},
		PollInterval: 33 * time.Millisecond,
		ReadTimeout:  time.Second,
		QueueSize:    64,
	}
}

// bindAttempts is how often an ephemeral port is retried when the second
// transport cannot bind the port picked by the first
const bindAttempts = 8

// Decoder turns one received message into a value. Errors drop the input.
type Decoder[T any] func([]byte) (T, error)

// Listener receives single-message datagrams and single-shot TCP streams
// and forwards every decoded message on one channel
type Listener[T any] struct {
	config Config
	decode Decoder[T]
	logger *slog.Logger

	udp *net.UDPConn
	tcp *net.TCPListener

	messages chan T
	wg       sync.WaitGroup
	done     chan struct{}
}

// Listen binds the configured transports on the same port and starts the
// receive loops. The loops stop when ctx is done; Messages is closed after
// the last loop exits.
func Listen[T any](ctx context.Context, cfg Config, decode Decoder[T], logger *slog.Logger) (*Listener[T], error) {
	if len(cfg.Transports) == 0 {
		return nil, errors.New("listen: no transport configured")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultConfig().PollInterval
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultConfig().ReadTimeout
	}

	l := &Listener[T]{
		config:   cfg,
		decode:   decode,
		logger:   logger.With(slog.String("component", "listener")),
		messages: make(chan T, cfg.QueueSize),
		done:     make(chan struct{}),
	}

	var err error
	for attempt := 0; attempt < bindAttempts; attempt++ {
		if err = l.bind(); err == nil {
			break
		}
		if cfg.Port != 0 {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	if l.udp != nil {
		l.wg.Add(1)
		go l.udpLoop(ctx)
	}
	if l.tcp != nil {
		l.wg.Add(1)
		go l.tcpLoop(ctx)
	}
	go func() {
		l.wg.Wait()
		close(l.messages)
		close(l.done)
	}()

	l.logger.Info("listening",
		slog.String("udp", l.Addr(protocol.TransportUDP).String()),
		slog.String("tcp", l.Addr(protocol.TransportTCP).String()),
	)
	return l, nil
}

// bind opens the sockets. With two transports the second one reuses the
// port the first one got.
func (l *Listener[T]) bind() error {
	port := l.config.Port
	if slices.Contains(l.config.Transports, protocol.TransportTCP) {
		ln, err := net.Listen("tcp", net.JoinHostPort(l.config.Host, fmt.Sprint(port)))
		if err != nil {
			return fmt.Errorf("listen tcp: %w", err)
		}
		l.tcp = ln.(*net.TCPListener)
		port = uint16(l.tcp.Addr().(*net.TCPAddr).Port)
	}
	if slices.Contains(l.config.Transports, protocol.TransportUDP) {
		pc, err := net.ListenPacket("udp", net.JoinHostPort(l.config.Host, fmt.Sprint(port)))
		if err != nil {
			if l.tcp != nil {
				_ = l.tcp.Close()
				l.tcp = nil
			}
			return fmt.Errorf("listen udp: %w", err)
		}
		l.udp = pc.(*net.UDPConn)
	}
	return nil
}

// Messages returns the channel of decoded messages
func (l *Listener[T]) Messages() <-chan T {
	return l.messages
}

// Done is closed once both loops have exited and their sockets are closed
func (l *Listener[T]) Done() <-chan struct{} {
	return l.done
}

// Addr returns the bound address for a transport, or the zero value if that
// transport is not being listened on
func (l *Listener[T]) Addr(t protocol.Transport) netip.AddrPort {
	switch {
	case t == protocol.TransportUDP && l.udp != nil:
		return l.udp.LocalAddr().(*net.UDPAddr).AddrPort()
	case t == protocol.TransportTCP && l.tcp != nil:
		return l.tcp.Addr().(*net.TCPAddr).AddrPort()
	}
	return netip.AddrPort{}
}

// Port returns the port shared by all bound transports
func (l *Listener[T]) Port() uint16 {
	if l.tcp != nil {
		return l.Addr(protocol.TransportTCP).Port()
	}
	return l.Addr(protocol.TransportUDP).Port()
}

func (l *Listener[T]) udpLoop(ctx context.Context) {
	defer l.wg.Done()
	defer l.udp.Close()

	buf := make([]byte, protocol.MaxMessageSize)
	for ctx.Err() == nil {
		_ = l.udp.SetReadDeadline(time.Now().Add(l.config.PollInterval))
		n, src, err := l.udp.ReadFromUDPAddrPort(buf)
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Warn("udp receive failed", slog.String("error", err.Error()))
			continue
		}
		l.deliver(ctx, buf[:n], src)
	}
}

func (l *Listener[T]) tcpLoop(ctx context.Context) {
	defer l.wg.Done()
	defer l.tcp.Close()

	for ctx.Err() == nil {
		_ = l.tcp.SetDeadline(time.Now().Add(l.config.PollInterval))
		conn, err := l.tcp.AcceptTCP()
		if err != nil {
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.logger.Warn("tcp accept failed", slog.String("error", err.Error()))
			continue
		}
		l.wg.Add(1)
		go l.readStream(ctx, conn)
	}
}

// readStream reads exactly one message from a single-shot connection
func (l *Listener[T]) readStream(ctx context.Context, conn *net.TCPConn) {
	defer l.wg.Done()
	defer conn.Close()

	src := conn.RemoteAddr().(*net.TCPAddr).AddrPort()
	_ = conn.SetReadDeadline(time.Now().Add(l.config.ReadTimeout))
	data, err := io.ReadAll(io.LimitReader(conn, protocol.MaxMessageSize+1))
	if err != nil {
		l.logger.Debug("tcp read failed", slog.String("src", src.String()), slog.String("error", err.Error()))
		return
	}
	if len(data) > protocol.MaxMessageSize {
		l.logger.Debug("dropping oversized message", slog.String("src", src.String()))
		return
	}
	l.deliver(ctx, data, src)
}

func (l *Listener[T]) deliver(ctx context.Context, data []byte, src netip.AddrPort) {
	msg, err := l.decode(data)
	if err != nil {
		l.logger.Debug("dropping undecodable message",
			slog.String("src", src.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	select {
	case l.messages <- msg:
	case <-ctx.Done():
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
