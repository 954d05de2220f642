package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragline/ragline/pkg/logsink"
	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/schema"
)

func TestBatchResultsPreserveInputOrder(t *testing.T) {
	composer, _ := newComposer()
	entry, err := composer.RegisterBatch(doubleTool())
	require.NoError(t, err)

	items := make([]any, 20)
	for i := range items {
		items[i] = map[string]any{"n": i}
	}

	out, err := entry.Invoke(context.Background(), map[string]any{"items": items})
	require.NoError(t, err)

	results, ok := out.([]any)
	require.True(t, ok)
	require.Len(t, results, 20)
	for i, res := range results {
		assert.Equal(t, 2*i, res, "result %d", i)
	}
}

func TestBatchEmptyItemsSkipsBody(t *testing.T) {
	var calls atomic.Int64
	tool := doubleTool()
	inner := tool.Handler
	tool.Handler = func(ctx context.Context, args map[string]any) (any, error) {
		calls.Add(1)
		return inner(ctx, args)
	}

	composer, sink := newComposer()
	entry, err := composer.RegisterBatch(tool)
	require.NoError(t, err)

	out, err := entry.Invoke(context.Background(), map[string]any{"items": []any{}})
	require.NoError(t, err)
	assert.Equal(t, []any{}, out)
	assert.Zero(t, calls.Load())

	warnings := sink.byLevel(logsink.LevelWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "empty batch")
}

func TestBatchFailFast(t *testing.T) {
	tool := pipeline.Tool{
		Name: "fail_if_negative",
		Signature: schema.Signature{
			Params: []schema.Param{{Name: "n", Type: schema.Int(), Required: true}},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			n, err := asInt(args["n"])
			if err != nil {
				return nil, err
			}
			if n < 0 {
				return nil, fmt.Errorf("negative input: %d", n)
			}
			return n, nil
		},
	}

	composer, _ := newComposer()
	entry, err := composer.RegisterBatch(tool)
	require.NoError(t, err)

	out, err := entry.Invoke(context.Background(), map[string]any{
		"items": []any{
			map[string]any{"n": 1},
			map[string]any{"n": -1},
			map[string]any{"n": 2},
		},
	})
	require.Error(t, err)
	assert.Nil(t, out, "a failed batch must not return partial results")
	assert.Contains(t, err.Error(), "negative input")
}

func TestBatchInvalidInputShapes(t *testing.T) {
	composer, _ := newComposer()
	entry, err := composer.RegisterBatch(doubleTool())
	require.NoError(t, err)

	t.Run("items missing", func(t *testing.T) {
		_, err := entry.Invoke(context.Background(), map[string]any{})
		var ibe *pipeline.InvalidBatchInputError
		require.ErrorAs(t, err, &ibe)
		assert.Equal(t, -1, ibe.Index)
	})

	t.Run("items not a list", func(t *testing.T) {
		_, err := entry.Invoke(context.Background(), map[string]any{"items": "nope"})
		var ibe *pipeline.InvalidBatchInputError
		require.ErrorAs(t, err, &ibe)
		assert.Equal(t, -1, ibe.Index)
	})

	t.Run("element not a map", func(t *testing.T) {
		_, err := entry.Invoke(context.Background(), map[string]any{
			"items": []any{map[string]any{"n": 1}, 42},
		})
		var ibe *pipeline.InvalidBatchInputError
		require.ErrorAs(t, err, &ibe)
		assert.Equal(t, 1, ibe.Index, "error must name the offending index")
	})
}

func TestBatchBindingValidatedBeforeDispatch(t *testing.T) {
	var calls atomic.Int64
	tool := doubleTool()
	inner := tool.Handler
	tool.Handler = func(ctx context.Context, args map[string]any) (any, error) {
		calls.Add(1)
		return inner(ctx, args)
	}

	composer, _ := newComposer()
	entry, err := composer.RegisterBatch(tool)
	require.NoError(t, err)

	t.Run("missing required param", func(t *testing.T) {
		_, err := entry.Invoke(context.Background(), map[string]any{
			"items": []any{map[string]any{"n": 1}, map[string]any{}},
		})
		var be *pipeline.BindingError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, 1, be.Index)
	})

	t.Run("unknown param", func(t *testing.T) {
		_, err := entry.Invoke(context.Background(), map[string]any{
			"items": []any{map[string]any{"n": 1, "extra": true}},
		})
		var be *pipeline.BindingError
		require.ErrorAs(t, err, &be)
		assert.Equal(t, 0, be.Index)
	})

	assert.Zero(t, calls.Load(), "binding failures must surface before any dispatch")
}

func TestBatchSharedContextMergedWithoutMutation(t *testing.T) {
	var seen atomic.Value
	tool := pipeline.Tool{
		Name: "echo_meta",
		Signature: schema.Signature{
			Params:       []schema.Param{{Name: "n", Type: schema.Int(), Required: true}},
			ContextParam: "meta",
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			seen.Store(args["meta"])
			return args["n"], nil
		},
	}

	composer, _ := newComposer()
	entry, err := composer.RegisterBatch(tool)
	require.NoError(t, err)

	item := map[string]any{"n": 1}
	shared := map[string]any{"job": "j-17"}

	_, err = entry.Invoke(context.Background(), map[string]any{
		"items": []any{item},
		"meta":  shared,
	})
	require.NoError(t, err)

	got, ok := seen.Load().(map[string]any)
	require.True(t, ok, "tool body must receive the shared context")
	assert.Equal(t, "j-17", got["job"])

	_, mutated := item["meta"]
	assert.False(t, mutated, "caller's item map must not be mutated")
}

func TestBatchItemsCoercedIndependently(t *testing.T) {
	// Scenario: double over items with string numbers yields real integers.
	composer, _ := newComposer()
	entry, err := composer.RegisterBatch(doubleTool())
	require.NoError(t, err)

	out, err := entry.Invoke(context.Background(), map[string]any{
		"items": []any{
			map[string]any{"n": "3"},
			map[string]any{"n": "5"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{6, 10}, out)
}

func TestBatchErrorIdentityPreserved(t *testing.T) {
	sentinel := errors.New("boom")
	tool := pipeline.Tool{
		Name: "always_fails",
		Signature: schema.Signature{
			Params: []schema.Param{{Name: "n", Type: schema.Int(), Required: true}},
		},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return nil, sentinel
		},
	}

	composer, _ := newComposer()
	entry, err := composer.RegisterBatch(tool)
	require.NoError(t, err)

	_, err = entry.Invoke(context.Background(), map[string]any{
		"items": []any{map[string]any{"n": 1}},
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestBatchPublishedSchema(t *testing.T) {
	composer, _ := newComposer()
	entry, err := composer.RegisterBatch(doubleTool())
	require.NoError(t, err)

	published := entry.Published()
	require.Len(t, published, 2)
	assert.Equal(t, "items", published[0].Name)
	assert.True(t, published[0].Required)
	assert.Equal(t, "[map]", published[0].Type.Name())
	assert.Equal(t, "meta", published[1].Name)
	assert.False(t, published[1].Required)

	// The real per-item signature stays recoverable for documentation.
	item := entry.ItemSignature()
	require.Len(t, item.Params, 1)
	assert.Equal(t, "n", item.Params[0].Name)
}
