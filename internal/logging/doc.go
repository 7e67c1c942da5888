// Package logging assembles structured slog loggers used across dvd.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and stamps every record logged with a context carrying the stage, video ID,
// and correlation ID set through the services package. A no-op logger is
// provided for tests and wiring code that cannot fail.
package logging
