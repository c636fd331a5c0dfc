package refresh

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"filingsync/pkg/core/fetch"
)

// retryPolicy applies a uniform retry discipline around remote-call task
// bodies. A 404 is a fact about the upstream, not a transient fault, so it
// is never retried.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func (p retryPolicy) do(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if fetch.IsNotFound(err) || attempt == p.attempts {
			return err
		}

		zerolog.Ctx(ctx).Debug().
			Str("op", op).
			Int("attempt", attempt).
			Err(err).
			Msg("retrying after backoff")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff):
		}
	}
	return err
}
