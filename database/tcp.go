package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// DefaultWaitTimeout bounds how long WaitForServer keeps dialing.
	DefaultWaitTimeout = 5 * time.Second

	// DefaultPollFrequency is the interval between dial attempts.
	DefaultPollFrequency = 50 * time.Millisecond
)

// WaitTimeoutError is returned when a server does not accept TCP
// connections within the allowed time.
type WaitTimeoutError struct {
	Address string
	Timeout time.Duration
}

func (e *WaitTimeoutError) Error() string {
	return fmt.Sprintf("server on %s did not start within %gs", e.Address, e.Timeout.Seconds())
}

// WaitForServer dials address until a TCP connection is accepted, retrying
// while the connection is refused. Zero durations select the defaults. It
// returns [WaitTimeoutError] when the timeout elapses first; any dial
// failure other than a refused connection fails immediately.
func WaitForServer(ctx context.Context, address string, timeout, poll time.Duration) error {
	if timeout == 0 {
		timeout = DefaultWaitTimeout
	}
	if poll == 0 {
		poll = DefaultPollFrequency
	}

	var dialer net.Dialer
	backoff := retry.WithMaxDuration(timeout, retry.NewConstant(poll))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		conn, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			if errors.Is(err, syscall.ECONNREFUSED) {
				return retry.RetryableError(err)
			}
			return err
		}
		return conn.Close()
	})
	if errors.Is(err, syscall.ECONNREFUSED) {
		return &WaitTimeoutError{Address: address, Timeout: timeout}
	}
	return err
}
