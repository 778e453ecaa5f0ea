// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are created through the global otel TracerProvider, so the process
// decides where they go (no exporter is configured by default, which makes
// every span a no-op). Two span sources exist:
//   - Middleware: one server span per HTTP request, with W3C trace context
//     propagation and an X-Trace-Id response header
//   - connection supervisors: a "supervisor.create" span per establishment
//     sequence
package tracing
