// Package services defines shared utilities consumed by the batch pipeline and
// the language-model integration.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, operation names, and item positions
//     for logging.
//   - Structured error markers plus the Wrap helper so callers can separate
//     configuration, transport, HTTP status, parse, cancellation, and storage
//     failures with errors.Is.
//
// Use these helpers when wiring new per-item logic so failure classification
// and log shape stay uniform across operations.
package services
