// Package logging centralizes slog construction for the daemon and CLI.
//
// It provides console and JSON handlers, typed attribute helpers, component
// loggers, and context-derived fields (user, pack, correlation ID) so every
// subsystem logs with the same vocabulary.
package logging
