// Package retry provides retry loops for operations that fail transiently.
// Two schedules are offered: exponential backoff with jitter for polling-style
// callers, and a fixed-count linear schedule for connection establishment.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"syscall"
	"time"
)

// Config holds the configuration for exponential retry logic.
type Config struct {
	// MaxAttempts is the maximum number of attempts
	MaxAttempts int

	// InitialDelay is the delay before the first retry
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries
	MaxDelay time.Duration

	// Multiplier is the multiplier for exponential backoff
	Multiplier float64

	// JitterFraction is the fraction of delay to add as random jitter (0.0 to 1.0)
	JitterFraction float64

	// Retryable decides whether an error is worth another attempt.
	// IsRetryable is used when nil.
	Retryable func(error) bool
}

// ProbeConfig returns configuration for readiness polling from the probe command.
// Attempts are effectively bounded by the caller's context deadline.
func ProbeConfig() Config {
	return Config{
		MaxAttempts:    1000,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       10 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// WithBackoff executes the given function with retry logic and exponential backoff.
// It returns nil if the function succeeds, or the last error if all attempts fail.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()

		if lastErr == nil {
			if attempt > 1 {
				slog.Info("operation succeeded after retry",
					slog.Int("attempt", attempt))
			}
			return nil
		}

		if !retryable(lastErr) {
			slog.Warn("non-retryable error, aborting",
				slog.Int("attempt", attempt),
				slog.Any("error", lastErr))
			return lastErr
		}

		// Don't wait after last attempt
		if attempt == cfg.MaxAttempts {
			break
		}

		slog.Warn("operation failed, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}

		delay = addJitter(delay, cfg.JitterFraction)
	}

	return &ExhaustedError{Attempts: cfg.MaxAttempts, Err: lastErr}
}

// LinearConfig describes a fixed number of attempts where the wait after the
// n-th failed attempt is Delay*n. The wait also follows the final failure, so a
// fully failed run of N attempts always waits Delay*N*(N+1)/2 in total.
type LinearConfig struct {
	MaxAttempts int
	Delay       time.Duration

	// Sleep blocks for the given duration. time.Sleep is used when nil.
	Sleep func(time.Duration)
}

// ConnectConfig returns the schedule used to (re)establish connections to
// external services: 5 attempts waiting 1.5s, 3s, 4.5s, 6s and 7.5s.
func ConnectConfig() LinearConfig {
	return LinearConfig{
		MaxAttempts: 5,
		Delay:       1500 * time.Millisecond,
	}
}

// LinearDelay returns the wait that follows failed attempt number attempt.
func LinearDelay(base time.Duration, attempt int) time.Duration {
	return base * time.Duration(attempt)
}

// TotalLinearDelay returns the cumulative wait after attempts failed attempts.
func TotalLinearDelay(base time.Duration, attempts int) time.Duration {
	var total time.Duration
	for n := 1; n <= attempts; n++ {
		total += LinearDelay(base, n)
	}
	return total
}

// Linear runs fn until it succeeds or cfg.MaxAttempts attempts have failed.
// fn receives the 1-based attempt number. Every error is retried; the loop is
// not cancellable once started. On success the successful attempt number is
// returned. On exhaustion the error is an *ExhaustedError wrapping the last
// failure.
func Linear(cfg LinearConfig, fn func(attempt int) error) (int, error) {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return attempt, nil
		}
		sleep(LinearDelay(cfg.Delay, attempt))
	}

	return maxAttempts, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// ExhaustedError reports that every attempt of a retry loop failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("max retry attempts (%d) exceeded: %v", e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// IsRetryable determines if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	return false
}

// addJitter adds random jitter to a duration to prevent thundering herd.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- Using math/rand is acceptable for jitter calculation.
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
