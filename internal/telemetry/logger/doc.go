// Package logger configures structured logging for mdkeep.
//
// It builds *slog.Logger values on top of log/slog:
//
//   - logger.go: handler construction and the process-wide level
//   - context.go: loggers and request ids carried in a context
//   - redact.go: masking of secrets and document bodies
//
// The level is held in a shared slog.LevelVar so a configuration reload
// can change it without rebuilding loggers.
package logger
