// Package logging assembles the structured slog loggers used across latinize.
//
// It owns the console and JSON handlers, an optional rotating JSON file sink,
// and context helpers that tag log lines with the batch job ID, operation, and
// item index. A no-op logger is provided for tests and wiring code.
package logging
