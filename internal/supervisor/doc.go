// Package supervisor owns the lifecycle of shared connection handles to
// external services.
//
// A Supervisor wraps a Resource (how to connect, ping and close one kind of
// handle) and guarantees:
//   - at most one handle exists per supervisor
//   - a handle is only handed out after a successful ping
//   - a failing handle is discarded and rebuilt on the next access
//   - establishment is retried on a linear schedule (retry.ConnectConfig)
//   - Close is idempotent and never fails
//
// A single non-reentrant mutex serializes every check-then-create section,
// so concurrent cold callers trigger exactly one establishment sequence.
// Callers queued behind a slow sequence wait up to the full retry budget.
//
// Database and cache specializations live in internal/infra/db and
// internal/infra/cache.
package supervisor
