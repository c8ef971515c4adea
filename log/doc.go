// Package log provides a concurrency-safe, leveled logging facade over
// [log/slog] used by every package in runmd.
//
// It extends slog with a Trace level below Debug, a colorized pretty text
// handler for interactive use, and a process-wide default logger that can be
// reconfigured at any time via [Config]. All configuration is expressed with
// functional options so callers can derive loggers without mutating shared
// state.
package log
