package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"backend-scaffold/internal/observability/logging"
	"backend-scaffold/internal/observability/metrics"
	"backend-scaffold/internal/observability/tracing"
	"backend-scaffold/internal/resilience/circuitbreaker"
	"backend-scaffold/internal/resilience/retry"
)

// Resource knows how to build, verify and release one kind of connection
// handle. Implementations must not retain state between calls; the
// Supervisor owns the handle.
type Resource[H any] interface {
	// Connect builds a new handle. It may be lazy; Ping is always called
	// before the handle is handed out.
	Connect(ctx context.Context) (H, error)
	// Ping performs one round trip proving the handle can serve requests.
	Ping(ctx context.Context, handle H) error
	// Close releases the handle and everything it pooled.
	Close(handle H) error
}

// Options configures a Supervisor.
type Options struct {
	// Retry is the establishment schedule. retry.ConnectConfig when zero.
	Retry retry.LinearConfig

	// AttemptTimeout bounds a single Connect+Ping attempt and every health
	// ping. Zero disables the bound.
	AttemptTimeout time.Duration

	// Breaker optionally fails Get fast while the service keeps failing.
	Breaker *circuitbreaker.CircuitBreaker

	Logger *slog.Logger
	Tracer trace.Tracer
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		Retry:          retry.ConnectConfig(),
		AttemptTimeout: 5 * time.Second,
	}
}

// Supervisor lazily creates a single shared connection handle, verifies it
// on every access, replaces it when verification fails and releases it on
// Close. All methods are safe for concurrent use.
type Supervisor[H any] struct {
	service  string
	resource Resource[H]
	opts     Options
	logger   *slog.Logger
	tracer   trace.Tracer

	// mu is held for the whole check-then-create-or-replace section,
	// including network I/O and retry sleeps.
	mu     sync.Mutex
	handle H
	live   bool

	state atomic.Int32
}

// New returns a Supervisor in the Absent state. No I/O is performed.
func New[H any](service string, resource Resource[H], opts Options) *Supervisor[H] {
	if opts.Retry.MaxAttempts == 0 && opts.Retry.Delay == 0 {
		sleep := opts.Retry.Sleep
		opts.Retry = retry.ConnectConfig()
		opts.Retry.Sleep = sleep
	}

	tracer := opts.Tracer
	if tracer == nil {
		tracer = tracing.GetTracer()
	}

	s := &Supervisor[H]{
		service:  service,
		resource: resource,
		opts:     opts,
		logger:   logging.ForComponent(opts.Logger, "supervisor").With(slog.String("service", service)),
		tracer:   tracer,
	}
	s.setState(StateAbsent)
	return s
}

// Service returns the name the supervisor was created with.
func (s *Supervisor[H]) Service() string {
	return s.service
}

// Logger returns the supervisor's logger, tagged with the service name.
func (s *Supervisor[H]) Logger() *slog.Logger {
	return s.logger
}

// Peek returns the held handle without verifying it. ok is false when no
// handle is held or an establishment sequence is running; Peek never blocks.
func (s *Supervisor[H]) Peek() (handle H, ok bool) {
	if !s.mu.TryLock() {
		return handle, false
	}
	defer s.mu.Unlock()
	return s.handle, s.live
}

// State returns the current lifecycle state without blocking.
func (s *Supervisor[H]) State() State {
	return State(s.state.Load())
}

// Get returns the shared handle, creating it on first use and replacing it
// when it fails verification. The returned handle passed a ping during this
// call or during its creation. On failure the error matches
// ErrServiceUnavailable.
func (s *Supervisor[H]) Get(ctx context.Context) (H, error) {
	if s.opts.Breaker == nil {
		return s.get(ctx)
	}

	result, err := s.opts.Breaker.Execute(func() (interface{}, error) {
		return s.get(ctx)
	})
	if err != nil {
		var zero H
		if circuitbreaker.IsRejection(err) {
			s.logger.Debug("connection request rejected by circuit breaker",
				slog.String("circuit", s.opts.Breaker.Name()))
			return zero, fmt.Errorf("%s: %w: %w", s.service, ErrServiceUnavailable, err)
		}
		return zero, err
	}
	return result.(H), nil
}

func (s *Supervisor[H]) get(ctx context.Context) (H, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ensureLocked(ctx); err != nil {
		var zero H
		return zero, err
	}
	return s.handle, nil
}

// HealthCheck pings the held handle. A failed ping discards the handle and
// starts a replacement; the call still reports false because the handle it
// observed was unhealthy. With no handle held it creates one and reports
// whether that succeeded. HealthCheck never returns an error.
func (s *Supervisor[H]) HealthCheck(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	healthy, _ := s.ensureLocked(ctx)
	metrics.RecordHealthCheck(s.service, healthy)
	return healthy
}

// Close releases the held handle. It is idempotent and never fails;
// disposal errors are logged.
func (s *Supervisor[H]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.live {
		s.logger.Debug("no connection to close")
		s.setState(StateAbsent)
		return nil
	}

	s.logger.Info("closing connection")
	s.discardLocked()
	s.setState(StateAbsent)
	return nil
}

// ensureLocked guarantees a verified handle is held. observed reports
// whether the handle present at entry (or the freshly created one, when none
// was present) was healthy.
func (s *Supervisor[H]) ensureLocked(ctx context.Context) (observed bool, err error) {
	if !s.live {
		s.logger.Info("creating connection")
		if err := s.createLocked(ctx); err != nil {
			return false, err
		}
		return true, nil
	}

	pingErr := s.ping(ctx, s.handle)
	if pingErr == nil {
		s.logger.Debug("health check succeeded")
		return true, nil
	}

	s.logger.Warn("health check failed, recreating connection",
		slog.String("error", logging.SanitizeError(pingErr)))
	s.setState(StateDegraded)
	metrics.RecordRecreation(s.service)
	s.discardLocked()

	return false, s.createLocked(ctx)
}

// createLocked runs the full establishment sequence. It ignores cancellation
// of ctx so a caller going away cannot abandon a half-built handle.
func (s *Supervisor[H]) createLocked(ctx context.Context) error {
	s.setState(StateCreating)

	ctx, span := s.tracer.Start(context.WithoutCancel(ctx), "supervisor.create",
		trace.WithAttributes(attribute.String("supervisor.service", s.service)))
	defer span.End()

	start := time.Now()
	var (
		handle  H
		lastErr error
	)
	attempts, err := retry.Linear(s.opts.Retry, func(attempt int) error {
		s.logger.Debug("attempting connection",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.opts.Retry.MaxAttempts))

		h, err := s.attempt(ctx)
		metrics.RecordConnectionAttempt(s.service, err == nil)
		if err != nil {
			lastErr = err
			s.logger.Warn("connection attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", s.opts.Retry.MaxAttempts),
				slog.Duration("retry_in", retry.LinearDelay(s.opts.Retry.Delay, attempt)),
				slog.String("error", logging.SanitizeError(err)))
			return err
		}
		handle = h
		return nil
	})
	metrics.RecordCreateDuration(s.service, time.Since(start))
	span.SetAttributes(attribute.Int("supervisor.attempts", attempts))

	if err != nil {
		s.setState(StateAbsent)
		span.RecordError(lastErr)
		span.SetStatus(codes.Error, "connection attempts exhausted")
		s.logger.Error("failed to connect after retries",
			slog.Int("attempts", attempts),
			slog.String("error", logging.SanitizeError(lastErr)))
		return &ConnectionError{Service: s.service, Attempts: attempts, Err: lastErr}
	}

	s.handle = handle
	s.live = true
	s.setState(StateLive)
	s.logger.Info("connection established",
		slog.Int("attempt", attempts),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// attempt builds and verifies one handle. A handle that fails verification
// is released before returning.
func (s *Supervisor[H]) attempt(ctx context.Context) (H, error) {
	var zero H

	ctx, cancel := s.boundedContext(ctx)
	defer cancel()

	h, err := s.resource.Connect(ctx)
	if err != nil {
		return zero, err
	}
	if err := s.resource.Ping(ctx, h); err != nil {
		s.dispose(h)
		return zero, fmt.Errorf("verify connection: %w", err)
	}
	return h, nil
}

// ping verifies h. A caller that goes away mid-ping must not cause the
// handle to be treated as broken, so only AttemptTimeout bounds it.
func (s *Supervisor[H]) ping(ctx context.Context, h H) error {
	ctx, cancel := s.boundedContext(context.WithoutCancel(ctx))
	defer cancel()
	return s.resource.Ping(ctx, h)
}

func (s *Supervisor[H]) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.AttemptTimeout)
}

func (s *Supervisor[H]) discardLocked() {
	h := s.handle
	var zero H
	s.handle = zero
	s.live = false
	s.dispose(h)
}

func (s *Supervisor[H]) dispose(h H) {
	if err := s.resource.Close(h); err != nil {
		metrics.RecordDisposalError(s.service)
		s.logger.Warn("failed to release connection",
			slog.String("error", logging.SanitizeError(err)))
	}
}

func (s *Supervisor[H]) setState(st State) {
	s.state.Store(int32(st))
	metrics.SetState(s.service, int(st))
}
