package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/ragline/ragline/pkg/logsink"
	"github.com/ragline/ragline/pkg/schema"
)

// maxOutputSummary bounds the logged output representation.
const maxOutputSummary = 200

// unserializablePlaceholder replaces argument values that cannot be
// JSON-encoded, so logging never fails a call.
const unserializablePlaceholder = "<unserializable>"

// Recorder builds immutable log records for tool calls and routes them to
// the configured sink, mirroring a short form to the application logger.
// A sink write failure is logged and dropped; it never fails the call.
type Recorder struct {
	sink   logsink.Sink
	logger *slog.Logger
}

// NewRecorder creates a Recorder over the given sink and logger.
func NewRecorder(sink logsink.Sink, logger *slog.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger}
}

// Start emits the status=running record at call entry.
func (r *Recorder) Start(ctx context.Context, tool string, args map[string]any, sig schema.Signature) {
	rec := r.newRecord(ctx, tool)
	rec.Level = logsink.LevelInfo
	rec.Status = logsink.StatusRunning
	rec.Message = fmt.Sprintf("tool %s started", tool)
	rec.InputArgs = redactArgs(args, sig)
	r.write(ctx, rec)
}

// Success emits the status=success record at call exit.
func (r *Recorder) Success(ctx context.Context, tool string, args map[string]any, output any, elapsed time.Duration, sig schema.Signature) {
	rec := r.newRecord(ctx, tool)
	rec.Level = logsink.LevelInfo
	rec.Status = logsink.StatusSuccess
	rec.Message = fmt.Sprintf("tool %s completed", tool)
	rec.DurationMS = durationMS(elapsed)
	rec.InputArgs = redactArgs(args, sig)
	rec.OutputSummary = summarize(output)
	r.write(ctx, rec)
}

// Error emits the status=error record for a failed call. Exactly one such
// record exists per failed call; it is written by the outermost wrapper.
func (r *Recorder) Error(ctx context.Context, tool string, callErr error, elapsed time.Duration, stack []byte) {
	rec := r.newRecord(ctx, tool)
	rec.Level = logsink.LevelError
	rec.Status = logsink.StatusError
	rec.Message = fmt.Sprintf("tool %s failed", tool)
	rec.DurationMS = durationMS(elapsed)
	rec.ErrorMessage = callErr.Error()
	rec.ErrorType = fmt.Sprintf("%T", callErr)
	if len(stack) > 0 {
		rec.Extra = map[string]any{"stack": string(stack)}
	}
	r.write(ctx, rec)
}

// EmptyBatch emits a warning-level record for a batch call with no items.
// Degenerate but valid: the call still succeeds with an empty result.
func (r *Recorder) EmptyBatch(ctx context.Context, tool string) {
	rec := r.newRecord(ctx, tool)
	rec.Level = logsink.LevelWarning
	rec.Status = logsink.StatusRunning
	rec.Message = fmt.Sprintf("tool %s received an empty batch, nothing to execute", tool)
	r.write(ctx, rec)
}

func (r *Recorder) newRecord(ctx context.Context, tool string) logsink.Record {
	id, _ := IDFromContext(ctx)
	return logsink.Record{
		CorrelationID: id,
		Timestamp:     time.Now().UTC(),
		LogType:       logsink.LogTypeToolExecution,
		ToolName:      tool,
		Source:        callSite(),
		PID:           os.Getpid(),
	}
}

func (r *Recorder) write(ctx context.Context, rec logsink.Record) {
	if err := r.sink.Write(ctx, rec); err != nil {
		r.logger.Warn("log sink write failed, record dropped",
			"tool", rec.ToolName, "status", string(rec.Status), "err", err)
	}
}

// Instrument is the structured-logger middleware. It emits the start record
// and, on success, the end record with duration and a truncated output
// summary. Failed calls are left for the normalizer, which owns the single
// error record of a call.
func Instrument(rec *Recorder, tool string, sig schema.Signature) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, args map[string]any) (any, error) {
			start := time.Now()
			rec.Start(ctx, tool, args, sig)

			out, err := next(ctx, args)
			if err != nil {
				return nil, err
			}

			rec.Success(ctx, tool, args, out, time.Since(start), sig)
			return out, nil
		}
	}
}

// redactArgs copies args, dropping the runtime-only context parameter and
// replacing values that cannot be serialized. The caller's map is never
// mutated.
func redactArgs(args map[string]any, sig schema.Signature) map[string]any {
	if args == nil {
		return nil
	}
	out := make(map[string]any, len(args))
	for key, value := range args {
		if key == sig.ContextParam && sig.ContextParam != "" {
			continue
		}
		if _, err := json.Marshal(value); err != nil {
			out[key] = unserializablePlaceholder
			continue
		}
		out[key] = value
	}
	return out
}

// summarize renders output as JSON truncated to maxOutputSummary runes.
func summarize(output any) string {
	if output == nil {
		return ""
	}
	data, err := json.Marshal(output)
	var s string
	if err != nil {
		s = fmt.Sprintf("%v", output)
	} else {
		s = string(data)
	}
	runes := []rune(s)
	if len(runes) > maxOutputSummary {
		return string(runes[:maxOutputSummary]) + "..."
	}
	return s
}

func durationMS(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// callSite reports the file:line of the pipeline frame that created the
// record, for diagnostics.
func callSite() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s:%d", file, line)
}
