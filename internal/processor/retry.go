package processor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultRetryBackoff = 100 * time.Millisecond

// retry runs a sink write of the current round until it succeeds or
// MaxRetries further attempts have failed. The backoff doubles per attempt.
func (r *Runner) retry(ctx context.Context, target string, fn func(context.Context) error) error {
	delay := r.cfg.RetryBackoff
	if delay <= 0 {
		delay = defaultRetryBackoff
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt > r.cfg.MaxRetries {
			return fmt.Errorf("store %s for round %d: %w", target, r.round, err)
		}
		r.logger.Warn("sink write failed",
			zap.String("target", target),
			zap.Uint64("round", r.round),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", delay),
			zap.Error(err),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
