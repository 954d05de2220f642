package logsink

import (
	"context"
	"time"
)

// Status marks the lifecycle stage a record was emitted at.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Record levels. Warning covers degenerate-but-valid calls (e.g. an empty
// batch); debug covers suppressed coercion failures.
const (
	LevelDebug   = "debug"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// LogTypeToolExecution tags records produced by the invocation pipeline.
const LogTypeToolExecution = "tool_execution"

// Record is one immutable structured log entry. It is created by the
// pipeline at call start and call end and never mutated afterwards.
type Record struct {
	CorrelationID string         `json:"correlation_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Level         string         `json:"level"`
	LogType       string         `json:"log_type"`
	Message       string         `json:"message"`
	ToolName      string         `json:"tool_name"`
	DurationMS    float64        `json:"duration_ms"`
	Status        Status         `json:"status"`
	InputArgs     map[string]any `json:"input_args,omitempty"`
	OutputSummary string         `json:"output_summary,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	ErrorType     string         `json:"error_type,omitempty"`
	Source        string         `json:"source,omitempty"`
	PID           int            `json:"pid"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// Filter selects records in a Query. Zero values mean "no constraint";
// a zero Limit falls back to DefaultQueryLimit.
type Filter struct {
	CorrelationID string
	ToolName      string
	Level         string
	Since         time.Time
	Until         time.Time
	Limit         int
}

// DefaultQueryLimit bounds queries that do not specify a limit.
const DefaultQueryLimit = 100

// Sink is a destination for structured records.
// Write must be safe for concurrent use. Query returns matching records in
// reverse-chronological order, up to the filter's limit.
type Sink interface {
	Write(ctx context.Context, rec Record) error
	Query(ctx context.Context, f Filter) ([]Record, error)
	Close() error
}

// matches reports whether rec passes the non-storage parts of the filter.
// Shared by sinks that filter in memory.
func (f Filter) matches(rec Record) bool {
	if f.CorrelationID != "" && rec.CorrelationID != f.CorrelationID {
		return false
	}
	if f.ToolName != "" && rec.ToolName != f.ToolName {
		return false
	}
	if f.Level != "" && rec.Level != f.Level {
		return false
	}
	if !f.Since.IsZero() && rec.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && rec.Timestamp.After(f.Until) {
		return false
	}
	return true
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	return f.Limit
}
