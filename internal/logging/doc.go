// Package logging builds the slog loggers used across ripple. It provides a
// compact console handler for interactive use, a JSON handler for log files
// and machine consumption, and small attr helpers so call sites stay terse.
package logging
