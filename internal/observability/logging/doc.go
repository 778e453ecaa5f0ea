// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for the logging patterns used throughout the service.
//
// Key features:
//   - JSON output with level taken from LOG_LEVEL
//   - Component tagging for long-lived collaborators such as connection supervisors
//   - Request ID propagation
//   - Credential masking for DSNs and error messages
//
// Example usage:
//
//	logger := logging.NewLogger(settings.App.LogLevel)
//	dbLogger := logging.ForComponent(logger, "database")
//	dbLogger.Info("engine created", slog.String("dsn", logging.RedactDSN(dsn)))
package logging
