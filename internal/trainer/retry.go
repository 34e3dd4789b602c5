package trainer

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"
)

const maxBackoff = 2 * time.Second

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == 429 || he.StatusCode/100 == 5
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return false
}

// retryTransient runs f up to attempts times, sleeping with capped exponential
// backoff between transient failures.
func retryTransient(ctx context.Context, attempts int, initialSleep time.Duration, f func() error) error {
	sleep := initialSleep
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := f()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			return err
		}

		t := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		sleep *= 2
		if sleep > maxBackoff {
			sleep = maxBackoff
		}
	}
	return lastErr
}
