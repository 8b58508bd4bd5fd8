package metrics

import (
	"context"
	"time"
)

// SyncRound is one run of a background poller.
type SyncRound func(ctx context.Context) error

// TimeSyncRound observes every run of round in poller_duration_seconds under
// name. A run cut short by shutdown is reported as interrupted, not as a
// success or an error.
func TimeSyncRound(name string, round SyncRound) SyncRound {
	return func(ctx context.Context) error {
		start := time.Now()
		err := round(ctx)
		pollerDurationHistogram.
			WithLabelValues(name, roundOutcome(ctx, err).String()).
			Observe(time.Since(start).Seconds())
		return err
	}
}

func roundOutcome(ctx context.Context, err error) Outcome {
	switch {
	case ctx.Err() != nil:
		return Interrupted
	case err != nil:
		return Error
	default:
		return Success
	}
}
