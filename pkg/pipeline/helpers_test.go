package pipeline_test

import (
	"context"
	"sync"

	"github.com/ragline/ragline/internal/logging"
	"github.com/ragline/ragline/pkg/logsink"
	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/schema"
)

// memSink collects records in memory for assertions.
type memSink struct {
	mu      sync.Mutex
	records []logsink.Record
}

func (s *memSink) Write(_ context.Context, rec logsink.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *memSink) Query(_ context.Context, f logsink.Filter) ([]logsink.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []logsink.Record
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if f.CorrelationID != "" && rec.CorrelationID != f.CorrelationID {
			continue
		}
		if f.ToolName != "" && rec.ToolName != f.ToolName {
			continue
		}
		if f.Level != "" && rec.Level != f.Level {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *memSink) Close() error { return nil }

func (s *memSink) byStatus(status logsink.Status) []logsink.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []logsink.Record
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

func (s *memSink) byLevel(level string) []logsink.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []logsink.Record
	for _, rec := range s.records {
		if rec.Level == level {
			out = append(out, rec)
		}
	}
	return out
}

func (s *memSink) all() []logsink.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]logsink.Record, len(s.records))
	copy(out, s.records)
	return out
}

// newComposer builds a composer over a fresh memory sink.
func newComposer(opts ...pipeline.Option) (*pipeline.Composer, *memSink) {
	sink := &memSink{}
	logger := logging.NewNop()
	return pipeline.New(pipeline.NewRecorder(sink, logger), logger, opts...), sink
}

// doubleTool returns 2*n; used as the canonical single-item tool.
func doubleTool() pipeline.Tool {
	return pipeline.Tool{
		Name:        "double",
		Description: "Doubles a number.",
		Signature: schema.Signature{
			Params: []schema.Param{
				{Name: "n", Type: schema.Int(), Required: true},
			},
			ContextParam: "meta",
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			n, err := asInt(args["n"])
			if err != nil {
				return nil, err
			}
			return 2 * n, nil
		},
	}
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, &typeError{}
	}
}

type typeError struct{}

func (e *typeError) Error() string { return "not an integer" }
