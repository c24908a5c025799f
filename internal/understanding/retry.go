package understanding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy bounds how often and how slowly a round trip is retried.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	// Sleep waits for d or until ctx is done. Nil uses a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// IsPermanent reports whether err must not be retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidResponse) ||
		errors.Is(err, ErrContentBlocked) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, context.Canceled)
}

// WithRetry calls fn until it succeeds, fails permanently, or MaxRetries
// retries are spent. Delays grow as base * 2^attempt with 50-100% jitter.
func WithRetry[T any](ctx context.Context, log *slog.Logger, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = time.Second
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		out, err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				log.InfoContext(ctx, "understanding call succeeded after retry", "attempt", attempt+1)
			}
			return out, nil
		}

		if IsPermanent(err) {
			log.WarnContext(ctx, "permanent understanding error, not retrying", "error", err)
			return zero, err
		}
		if attempt >= p.MaxRetries {
			log.WarnContext(ctx, "maximum retry attempts reached", "max_retries", p.MaxRetries, "error", err)
			return zero, fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v", ErrTransientFailure, p.MaxRetries, err)
		}

		backoff := float64(p.BaseDelay) * math.Pow(2, float64(attempt))
		delay := time.Duration(backoff * (0.5 + rng.Float64()*0.5))
		log.InfoContext(ctx, "retrying understanding call",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error", err)

		if err := sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%w: %v", ErrTransientFailure, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
