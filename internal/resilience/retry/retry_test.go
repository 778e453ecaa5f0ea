package retry

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   10 * time.Millisecond,
		MaxDelay:       100 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_Success(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return syscall.ECONNREFUSED
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoff_MaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return syscall.ECONNRESET
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if !errors.Is(err, syscall.ECONNRESET) {
		t.Errorf("expected wrapped error to contain original error")
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 3 {
		t.Errorf("expected *ExhaustedError with 3 attempts, got %v", err)
	}
}

func TestWithBackoff_NonRetryableError(t *testing.T) {
	attempts := 0
	testErr := errors.New("bad input")
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return testErr
	})

	if attempts != 1 {
		t.Errorf("expected 1 attempt (non-retryable), got %d", attempts)
	}
	if err != testErr {
		t.Errorf("expected same error, got %v", err)
	}
}

func TestWithBackoff_CustomRetryable(t *testing.T) {
	cfg := fastConfig()
	notReady := errors.New("not ready")
	cfg.Retryable = func(err error) bool { return errors.Is(err, notReady) }

	attempts := 0
	err := WithBackoff(context.Background(), cfg, func() error {
		attempts++
		if attempts == 1 {
			return notReady
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestWithBackoff_ContextCanceled(t *testing.T) {
	cfg := Config{
		MaxAttempts:    5,
		InitialDelay:   50 * time.Millisecond,
		MaxDelay:       200 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := WithBackoff(ctx, cfg, func() error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return syscall.ETIMEDOUT
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled error, got %v", err)
	}
	if attempts < 2 {
		t.Errorf("expected at least 2 attempts, got %d", attempts)
	}
}

func TestLinear_SucceedsAfterThreeFailures(t *testing.T) {
	var waits []time.Duration
	cfg := ConnectConfig()
	cfg.Sleep = func(d time.Duration) { waits = append(waits, d) }

	calls := 0
	attempt, err := Linear(cfg, func(n int) error {
		calls++
		if n != calls {
			t.Errorf("attempt number %d passed on call %d", n, calls)
		}
		if n <= 3 {
			return syscall.ECONNREFUSED
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempt != 4 {
		t.Errorf("expected success on attempt 4, got %d", attempt)
	}
	want := []time.Duration{1500 * time.Millisecond, 3 * time.Second, 4500 * time.Millisecond}
	if len(waits) != len(want) {
		t.Fatalf("expected %d waits, got %v", len(want), waits)
	}
	var total time.Duration
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d: expected %v, got %v", i, want[i], waits[i])
		}
		total += waits[i]
	}
	if total != 9*time.Second {
		t.Errorf("expected 9s cumulative backoff, got %v", total)
	}
}

func TestLinear_ExhaustsBudget(t *testing.T) {
	var total time.Duration
	sleeps := 0
	cfg := ConnectConfig()
	cfg.Sleep = func(d time.Duration) {
		sleeps++
		total += d
	}

	lastErr := errors.New("connection refused")
	calls := 0
	attempt, err := Linear(cfg, func(int) error {
		calls++
		return lastErr
	})

	if calls != 5 {
		t.Errorf("expected exactly 5 attempts, got %d", calls)
	}
	if attempt != 5 {
		t.Errorf("expected reported attempts 5, got %d", attempt)
	}
	if sleeps != 5 {
		t.Errorf("expected a wait after every failed attempt, got %d waits", sleeps)
	}
	if total != 22500*time.Millisecond {
		t.Errorf("expected 22.5s total wait, got %v", total)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("expected last error to be wrapped, got %v", err)
	}
	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) || exhausted.Attempts != 5 {
		t.Errorf("expected *ExhaustedError with 5 attempts, got %v", err)
	}
}

func TestLinear_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Linear(LinearConfig{Sleep: func(time.Duration) {}}, func(int) error {
		calls++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestTotalLinearDelay(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 0},
		{1, 1500 * time.Millisecond},
		{3, 9 * time.Second},
		{5, 22500 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := TotalLinearDelay(1500*time.Millisecond, tt.attempts); got != tt.want {
			t.Errorf("TotalLinearDelay(1.5s, %d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil error", err: nil, retryable: false},
		{name: "context canceled", err: context.Canceled, retryable: false},
		{name: "context deadline exceeded", err: context.DeadlineExceeded, retryable: false},
		{name: "ECONNREFUSED", err: syscall.ECONNREFUSED, retryable: true},
		{name: "ECONNRESET", err: syscall.ECONNRESET, retryable: true},
		{name: "ETIMEDOUT", err: syscall.ETIMEDOUT, retryable: true},
		{name: "ENETUNREACH", err: syscall.ENETUNREACH, retryable: true},
		{name: "generic error", err: errors.New("some error"), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.retryable)
			}
		})
	}
}

func TestProbeConfig(t *testing.T) {
	cfg := ProbeConfig()

	if cfg.InitialDelay != 500*time.Millisecond {
		t.Errorf("expected InitialDelay=500ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 10*time.Second {
		t.Errorf("expected MaxDelay=10s, got %v", cfg.MaxDelay)
	}
	if cfg.MaxAttempts < 100 {
		t.Errorf("expected the deadline to bound attempts, got MaxAttempts=%d", cfg.MaxAttempts)
	}
}

func TestConnectConfig(t *testing.T) {
	cfg := ConnectConfig()

	if cfg.MaxAttempts != 5 {
		t.Errorf("expected MaxAttempts=5, got %d", cfg.MaxAttempts)
	}
	if cfg.Delay != 1500*time.Millisecond {
		t.Errorf("expected Delay=1.5s, got %v", cfg.Delay)
	}
}

func TestAddJitter(t *testing.T) {
	duration := 100 * time.Millisecond

	results := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		result := addJitter(duration, 0.2)

		maxDuration := time.Duration(float64(duration) * 1.2)
		if result < duration || result > maxDuration {
			t.Errorf("expected result between %v and %v, got %v", duration, maxDuration, result)
		}
		results[result] = true
	}

	if len(results) < 2 {
		t.Error("expected jitter to produce varied results")
	}
}

func TestAddJitter_ZeroFraction(t *testing.T) {
	if got := addJitter(100*time.Millisecond, 0.0); got != 100*time.Millisecond {
		t.Errorf("expected no jitter with fraction=0, got %v", got)
	}
}
