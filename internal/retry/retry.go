// Package retry runs an operation a bounded number of times with linear
// backoff, using a classifier to separate transient failures from fatal ones.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds retry configuration.
type Config struct {
	// Attempts is the total number of calls made before giving up.
	Attempts int
	// Step is the linear backoff unit; attempt n waits Step*(n+1).
	Step time.Duration
	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration
	// Sleep replaces the context-aware timer, mainly for tests.
	Sleep SleepFunc
}

// Classifier reports whether err is worth another attempt.
type Classifier func(error) bool

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryable treats everything except context cancellation as transient.
func IsRetryable(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Delay returns the wait applied after the given zero-based attempt.
func (c Config) Delay(attempt int) time.Duration {
	if c.Step <= 0 {
		return 0
	}
	d := c.Step * time.Duration(attempt+1)
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// Do calls fn until it succeeds, returns a non-retryable error, or the attempt
// budget runs out. fn receives the zero-based attempt index so callers can
// rotate strategies between attempts.
func Do(ctx context.Context, cfg Config, classifier Classifier, fn func(ctx context.Context, attempt int) error) error {
	if classifier == nil {
		classifier = IsRetryable
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if !classifier(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}
		if err := sleep(ctx, cfg.Delay(attempt)); err != nil {
			return err
		}
	}

	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
