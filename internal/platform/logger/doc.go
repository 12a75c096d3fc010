// Package logger configures the process-wide JSON slog logger and carries
// request-scoped loggers (tagged with trace and request ids) through
// context.Context.
package logger
