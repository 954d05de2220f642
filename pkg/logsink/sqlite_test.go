package logsink

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteSink(t *testing.T) *SQLiteSink {
	t.Helper()
	sink, err := NewSQLiteSink(filepath.Join(t.TempDir(), "logs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })
	return sink
}

func sampleRecord(corr, tool string, level string, ts time.Time) Record {
	return Record{
		CorrelationID: corr,
		Timestamp:     ts,
		Level:         level,
		LogType:       LogTypeToolExecution,
		Message:       "tool " + tool + " started",
		ToolName:      tool,
		Status:        StatusRunning,
		PID:           1234,
	}
}

func TestSQLiteWriteAndQueryRoundTrip(t *testing.T) {
	sink := newTestSQLiteSink(t)
	ctx := context.Background()

	rec := sampleRecord("corr-1", "ingest", LevelInfo, time.Now().UTC())
	rec.InputArgs = map[string]any{"title": "doc", "count": float64(3)}
	rec.Extra = map[string]any{"stack": "trace"}
	rec.DurationMS = 12.5
	require.NoError(t, sink.Write(ctx, rec))

	got, err := sink.Query(ctx, Filter{CorrelationID: "corr-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "corr-1", got[0].CorrelationID)
	assert.Equal(t, "ingest", got[0].ToolName)
	assert.Equal(t, StatusRunning, got[0].Status)
	assert.Equal(t, 12.5, got[0].DurationMS)
	assert.Equal(t, "doc", got[0].InputArgs["title"])
	assert.Equal(t, "trace", got[0].Extra["stack"])
	assert.Equal(t, 1234, got[0].PID)
}

func TestSQLiteQueryFilters(t *testing.T) {
	sink := newTestSQLiteSink(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, sink.Write(ctx, sampleRecord("c1", "ingest", LevelInfo, base)))
	require.NoError(t, sink.Write(ctx, sampleRecord("c1", "ingest", LevelError, base.Add(time.Minute))))
	require.NoError(t, sink.Write(ctx, sampleRecord("c2", "search", LevelInfo, base.Add(2*time.Minute))))

	t.Run("by correlation id", func(t *testing.T) {
		got, err := sink.Query(ctx, Filter{CorrelationID: "c1"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("by tool name", func(t *testing.T) {
		got, err := sink.Query(ctx, Filter{ToolName: "search"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "c2", got[0].CorrelationID)
	})

	t.Run("by level", func(t *testing.T) {
		got, err := sink.Query(ctx, Filter{Level: LevelError})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, LevelError, got[0].Level)
	})

	t.Run("by time window", func(t *testing.T) {
		got, err := sink.Query(ctx, Filter{
			Since: base.Add(30 * time.Second),
			Until: base.Add(90 * time.Second),
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, LevelError, got[0].Level)
	})

	t.Run("combined filters", func(t *testing.T) {
		got, err := sink.Query(ctx, Filter{CorrelationID: "c1", Level: LevelInfo})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestSQLiteQueryNewestFirstWithLimit(t *testing.T) {
	sink := newTestSQLiteSink(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := sampleRecord(fmt.Sprintf("c%d", i), "chunk", LevelInfo, base.Add(time.Duration(i)*time.Second))
		require.NoError(t, sink.Write(ctx, rec))
	}

	got, err := sink.Query(ctx, Filter{Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c4", got[0].CorrelationID)
	assert.Equal(t, "c3", got[1].CorrelationID)
	assert.Equal(t, "c2", got[2].CorrelationID)
}

func TestSQLiteTimeFilterAtWholeSecondBoundary(t *testing.T) {
	sink := newTestSQLiteSink(t)
	ctx := context.Background()
	boundary := time.Date(2026, 8, 1, 10, 0, 5, 0, time.UTC)

	// One record inside the boundary second with sub-second precision, one
	// a full second before it.
	require.NoError(t, sink.Write(ctx, sampleRecord("inside", "ingest", LevelInfo, boundary.Add(123*time.Millisecond))))
	require.NoError(t, sink.Write(ctx, sampleRecord("before", "ingest", LevelInfo, boundary.Add(-time.Second))))

	t.Run("since includes the boundary second", func(t *testing.T) {
		got, err := sink.Query(ctx, Filter{Since: boundary})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "inside", got[0].CorrelationID)
	})

	t.Run("until excludes fractional times past the boundary", func(t *testing.T) {
		got, err := sink.Query(ctx, Filter{Until: boundary})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "before", got[0].CorrelationID)
	})

	t.Run("ordering with mixed precision", func(t *testing.T) {
		require.NoError(t, sink.Write(ctx, sampleRecord("whole", "ingest", LevelInfo, boundary)))

		got, err := sink.Query(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "inside", got[0].CorrelationID)
		assert.Equal(t, "whole", got[1].CorrelationID)
		assert.Equal(t, "before", got[2].CorrelationID)
	})
}

func TestSQLiteQueryFailsOnCorruptTimestamp(t *testing.T) {
	sink := newTestSQLiteSink(t)
	ctx := context.Background()

	_, err := sink.db.Exec(`
		INSERT INTO tool_logs (correlation_id, timestamp, level, log_type, message, tool_name, status)
		VALUES ('c1', 'garbage', 'info', 'tool_execution', 'm', 'ingest', 'running')`)
	require.NoError(t, err)

	_, err = sink.Query(ctx, Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse timestamp")
}

func TestSQLiteCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "logs.db")
	sink, err := NewSQLiteSink(path)
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Write(context.Background(), sampleRecord("c1", "ingest", LevelInfo, time.Now())))
}
