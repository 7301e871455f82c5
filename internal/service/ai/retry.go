package ai

import (
	"context"
	"time"

	"github.com/zhouzirui/chara-chat/backend/internal/apperror"
)

// Policy bounds the retry loop around a model call.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy is one attempt plus two retries, starting at two seconds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Delay returns the backoff after the failed attempt with 0-based index n:
// min(BaseDelay * 2^n, MaxDelay).
func (p Policy) Delay(n int) time.Duration {
	limit := p.MaxDelay
	if limit <= 0 {
		limit = DefaultPolicy().MaxDelay
	}

	delay := p.BaseDelay
	for i := 0; i < n; i++ {
		delay *= 2
		if delay >= limit || delay <= 0 {
			return limit
		}
	}
	if delay > limit {
		return limit
	}
	return delay
}

// Observer is told about every retry before its backoff starts. attempt is
// the 1-based number of the attempt about to run.
type Observer func(attempt int, err *apperror.Error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs op until it succeeds, fails with a non-retryable error, or the
// policy runs out of attempts. The returned error is always the last
// classified *apperror.Error.
func Retry[T any](ctx context.Context, policy Policy, sleep SleepFunc, op func(context.Context) (T, error), onRetry Observer) (T, error) {
	var zero T
	if sleep == nil {
		sleep = sleepContext
	}
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var last *apperror.Error
	for attempt := 0; attempt < attempts; attempt++ {
		value, err := op(ctx)
		if err == nil {
			return value, nil
		}

		last = apperror.Classify(err)
		if !last.Retryable() || attempt == attempts-1 {
			return zero, last
		}
		// A finished caller gets no further attempt, so none is announced.
		if ctx.Err() != nil {
			return zero, last
		}

		if onRetry != nil {
			onRetry(attempt+2, last)
		}
		if err := sleep(ctx, policy.Delay(attempt)); err != nil {
			return zero, last
		}
	}

	return zero, last
}
