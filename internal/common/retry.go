package common

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/mint-balance/internal/service"
)

var (
	// ErrRateLimit indicates that a remote API rate limit has been exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")
	// ErrMaxRetries indicates that all retry attempts have been exhausted.
	ErrMaxRetries = errors.New("max retries exceeded")
)

// RetryableError records whether a remote failure is worth another attempt.
type RetryableError struct {
	Err       error
	Retryable bool
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Transient marks err as worth retrying.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, Retryable: true}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, Retryable: false}
}

// IsRetryable reports whether err was marked transient, is a rate limit, or is a timeout.
func IsRetryable(err error) bool {
	var marked *RetryableError
	if errors.As(err, &marked) {
		return marked.Retryable
	}
	return errors.Is(err, ErrRateLimit) || errors.Is(err, context.DeadlineExceeded)
}

func isPermanent(err error) (error, bool) {
	var marked *RetryableError
	if errors.As(err, &marked) && !marked.Retryable {
		return marked.Err, true
	}
	return nil, false
}

// nextDelay grows delay by the multiplier, capped at MaxDelay.
func nextDelay(delay time.Duration, opts service.RetryOptions) time.Duration {
	return min(time.Duration(float64(delay)*opts.Multiplier), opts.MaxDelay)
}

// WithRetry calls operation until it succeeds, returns a permanent error, or runs out of attempts.
//
// Only idempotent remote calls go through here. Ledger writes are never retried.
func WithRetry(ctx context.Context, operation func() error, opts service.RetryOptions) error {
	opts = opts.WithDefaults()
	wait := min(opts.InitialDelay, opts.MaxDelay)

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if cause, ok := isPermanent(lastErr); ok {
			return cause
		}
		// A rate limited API gets the longest pause.
		if errors.Is(lastErr, ErrRateLimit) {
			wait = opts.MaxDelay
		}
		if attempt == opts.MaxAttempts {
			break
		}

		slog.Warn("remote call failed, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxAttempts,
			"delay", wait,
			"error", lastErr)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		wait = nextDelay(wait, opts)
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetries, opts.MaxAttempts, lastErr)
}
