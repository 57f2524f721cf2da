package client

import (
	"context"
	"errors"
	"time"

	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

var (
	// ErrTimeout means the server did not answer in time. The caller may carry on.
	ErrTimeout = errors.New("server did not answer in time")
	// ErrDisconnected means the connection to the server is gone
	ErrDisconnected = errors.New("disconnected from server")
	// ErrConnectFailed means the server never acknowledged the connect request
	ErrConnectFailed = errors.New("could not connect to server")
	// ErrQuit ends the client without a reconnect
	ErrQuit = errors.New("quit")
)

// Watch waits for the first message satisfying match. Messages that do not
// match are discarded.
func Watch(ctx context.Context, in <-chan protocol.Response, match func(protocol.Response) bool, timeout time.Duration) (protocol.Response, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ErrDisconnected
		case <-timer.C:
			return nil, ErrTimeout
		case msg, ok := <-in:
			if !ok {
				return nil, ErrDisconnected
			}
			if match(msg) {
				return msg, nil
			}
		}
	}
}

// WatchFor waits for the first message of type T
func WatchFor[T protocol.Response](ctx context.Context, in <-chan protocol.Response, timeout time.Duration) (T, error) {
	msg, err := Watch(ctx, in, func(m protocol.Response) bool {
		_, ok := m.(T)
		return ok
	}, timeout)
	if err != nil {
		var zero T
		return zero, err
	}
	return msg.(T), nil
}
