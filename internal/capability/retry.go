package capability

import (
	"context"
	"time"

	perr "moderato/internal/platform/errors"
)

// Retry runs fn up to 1+retries times, sleeping backoff (doubling each
// attempt) between tries. Configuration errors and invalid-output errors are
// not retried; only transient transport failures are. Context cancellation
// wins over further attempts
func Retry(ctx context.Context, retries int, backoff time.Duration, fn func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return perr.Wrap(ctx.Err(), perr.ErrorCodeTimeout, "retry abandoned")
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
	}
	return err
}

func retryable(err error) bool {
	switch perr.CodeOf(err) {
	case perr.ErrorCodeUnavailable, perr.ErrorCodeTimeout:
		return true
	default:
		return false
	}
}
