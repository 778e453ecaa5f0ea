// Package observability groups the logging, metrics and tracing infrastructure.
//
// Subpackages:
//   - logging: slog JSON loggers, component tagging and credential masking
//   - metrics: Prometheus collectors for connection supervisors
//   - tracing: OpenTelemetry tracer and HTTP middleware
//
// HTTP request metrics live next to the middleware that records them in
// internal/handler/http.
package observability
