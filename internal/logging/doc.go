// Package logging assembles structured slog loggers and formatting helpers used
// across owlmap commands.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so ingest and apply runs tag
// their log lines with a run identifier. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging
