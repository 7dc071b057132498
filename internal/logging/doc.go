// Package logging configures slog for the engine and CLI. It provides a
// console handler for interactive use, a JSON handler for log files, and
// helpers that derive structured attributes from context annotations.
package logging
