// Package resilience groups the reliability patterns used around external services.
//
// The subpackages provide:
//   - retry: a linear fixed-count schedule for connection establishment and an
//     exponential backoff loop with jitter for polling
//   - circuitbreaker: a sony/gobreaker wrapper used to fail fast while a
//     supervised dependency is unreachable
//
// Usage Example:
//
//	attempt, err := retry.Linear(retry.ConnectConfig(), func(attempt int) error {
//	    return connect(ctx)
//	})
//
//	cb := circuitbreaker.New(circuitbreaker.SupervisorConfig("cache"))
//	result, err := cb.Execute(func() (interface{}, error) {
//	    return supervisor.Get(ctx)
//	})
package resilience
