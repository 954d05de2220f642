package logsink

import (
	"context"
	"errors"
	"log/slog"
)

// ErrQueryUnsupported is returned by destinations that only mirror records
// and do not retain them.
var ErrQueryUnsupported = errors.New("logsink: destination does not support queries")

// SlogSink mirrors records to a *slog.Logger (typically stderr, so stdout
// stays clean for JSON-RPC). It retains nothing and cannot be queried.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a mirror sink over the given logger.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

// Write emits the record as one slog entry at the record's level.
func (s *SlogSink) Write(ctx context.Context, rec Record) error {
	attrs := []any{
		"correlation_id", rec.CorrelationID,
		"tool", rec.ToolName,
		"status", string(rec.Status),
		"log_type", rec.LogType,
	}
	if rec.DurationMS > 0 {
		attrs = append(attrs, "duration_ms", rec.DurationMS)
	}
	if rec.OutputSummary != "" {
		attrs = append(attrs, "output", rec.OutputSummary)
	}
	if rec.ErrorMessage != "" {
		attrs = append(attrs, "error", rec.ErrorMessage, "error_type", rec.ErrorType)
	}

	switch rec.Level {
	case LevelDebug:
		s.logger.DebugContext(ctx, rec.Message, attrs...)
	case LevelWarning:
		s.logger.WarnContext(ctx, rec.Message, attrs...)
	case LevelError:
		s.logger.ErrorContext(ctx, rec.Message, attrs...)
	default:
		s.logger.InfoContext(ctx, rec.Message, attrs...)
	}
	return nil
}

// Query always fails: mirrored records are not retained.
func (s *SlogSink) Query(ctx context.Context, f Filter) ([]Record, error) {
	return nil, ErrQueryUnsupported
}

// Close is a no-op.
func (s *SlogSink) Close() error { return nil }
