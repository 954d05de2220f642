package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// Normalize is the outermost middleware. Successful results pass through
// untouched. Every failure is logged with full context (error message, error
// type, correlation id, whole-call duration) and then returned unchanged:
// converting it to a protocol error envelope is the adapter's job, not this
// layer's. Panics in the tool body are recovered, logged with their stack,
// and surfaced as ordinary errors.
func Normalize(rec *Recorder, tool string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, args map[string]any) (out any, err error) {
			start := time.Now()

			defer func() {
				if r := recover(); r != nil {
					out = nil
					err = fmt.Errorf("tool %s panicked: %v", tool, r)
					rec.Error(ctx, tool, err, time.Since(start), debug.Stack())
				}
			}()

			out, err = next(ctx, args)
			if err != nil {
				rec.Error(ctx, tool, err, time.Since(start), nil)
				return nil, err
			}
			return out, nil
		}
	}
}
