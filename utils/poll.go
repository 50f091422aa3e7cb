package utils

import (
	"context"
	"fmt"
	"time"
)

// ErrWaitTimeout is returned by WaitFor when the timeout elapses.
var ErrWaitTimeout = fmt.Errorf("wait timed out")

// WaitFor polls check until it returns (true, nil), returns a non-nil error,
// or the timeout/context expires. The first wait is interval; each following
// wait doubles up to maxInterval. maxInterval <= interval polls at a fixed rate.
func WaitFor(ctx context.Context, timeout, interval, maxInterval time.Duration, check func() (done bool, err error)) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	wait := interval
	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("%w after %s", ErrWaitTimeout, timeout)
			}
			return ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; wait > maxInterval {
			wait = max(maxInterval, interval)
		}
		timer.Reset(wait)
	}
}
