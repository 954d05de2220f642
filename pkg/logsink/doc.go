// Package logsink persists structured tool-execution records.
//
// A Record captures one moment of a tool call (running, success, or error)
// together with its correlation id, timing, and redacted input summary.
// Sinks store records and answer queries filtered by correlation id, tool
// name, level, and time range, newest first.
//
// Three destinations are provided: a file-backed SQLite store, a Redis list
// store, and a stderr mirror built on log/slog. The factory selects the
// first enabled destination from the configuration; it does not fan out to
// multiple destinations.
package logsink
