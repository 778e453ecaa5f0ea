// Package metrics provides the Prometheus collectors for connection supervisors.
//
// All collectors are registered with the Prometheus default registry through
// promauto and exposed via the /metrics endpoint. Every series carries a
// "service" label naming the supervised dependency ("database", "cache").
//
// Example usage:
//
//	start := time.Now()
//	handle, err := connect(ctx)
//	metrics.RecordConnectionAttempt("cache", err == nil)
//	metrics.RecordCreateDuration("cache", time.Since(start))
package metrics
