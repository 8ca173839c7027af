// Package logging wires log/slog for the resolver: a console handler for
// interactive use, a JSON handler for log files, typed attribute helpers so
// call sites stay terse, and retention pruning for the log directory.
package logging
