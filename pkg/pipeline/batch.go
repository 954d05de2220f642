package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ragline/ragline/pkg/schema"
)

// BatchItemsParam is the single published parameter of every batch tool.
const BatchItemsParam = "items"

// Parallelize transforms a single-item handler into a batch handler taking a
// list of argument maps, executing all items concurrently with fail-fast
// semantics:
//
//   - the items argument must be a list of maps; anything else fails with
//     InvalidBatchInputError before any dispatch, naming the offending index
//   - an empty list returns an empty result without invoking the body
//   - a shared context map, when the tool declares a context parameter, is
//     merged into a copy of each item map (caller maps are never mutated)
//   - every item must bind against the tool's declared parameters before any
//     work is dispatched (BindingError with the item index)
//   - the first item failure fails the whole batch; no partial results are
//     returned; in-flight siblings run to completion in the background
//   - result[i] corresponds to item[i], regardless of completion order
func Parallelize(sig schema.Signature, logger batchLogger, tool string) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, args map[string]any) (any, error) {
			items, err := batchItems(args)
			if err != nil {
				return nil, err
			}

			if len(items) == 0 {
				logger.EmptyBatch(ctx, tool)
				return []any{}, nil
			}

			shared, _ := args[sig.ContextParam].(map[string]any)

			prepared := make([]map[string]any, len(items))
			for i, item := range items {
				merged := make(map[string]any, len(item)+1)
				for key, value := range item {
					merged[key] = value
				}
				if shared != nil && sig.ContextParam != "" {
					merged[sig.ContextParam] = shared
				}
				if err := sig.Bind(merged); err != nil {
					return nil, &BindingError{Index: i, Err: err}
				}
				prepared[i] = merged
			}

			results := make([]any, len(prepared))
			var g errgroup.Group
			for i, item := range prepared {
				g.Go(func() error {
					out, err := next(ctx, item)
					if err != nil {
						return fmt.Errorf("item %d: %w", i, err)
					}
					results[i] = out
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return nil, err
			}
			return results, nil
		}
	}
}

// batchLogger is the slice of the Recorder the parallelizer needs; narrowed
// for testability.
type batchLogger interface {
	EmptyBatch(ctx context.Context, tool string)
}

// batchItems extracts and shape-checks the items argument.
func batchItems(args map[string]any) ([]map[string]any, error) {
	raw, ok := args[BatchItemsParam]
	if !ok {
		return nil, &InvalidBatchInputError{Index: -1, Reason: `missing "items" argument`}
	}

	var elems []any
	switch v := raw.(type) {
	case []any:
		elems = v
	case []map[string]any:
		items := make([]map[string]any, len(v))
		copy(items, v)
		return items, nil
	default:
		return nil, &InvalidBatchInputError{Index: -1, Reason: fmt.Sprintf(`"items" must be a list, got %T`, raw)}
	}

	items := make([]map[string]any, len(elems))
	for i, elem := range elems {
		m, ok := elem.(map[string]any)
		if !ok {
			return nil, &InvalidBatchInputError{Index: i, Reason: fmt.Sprintf("element must be an argument map, got %T", elem)}
		}
		items[i] = m
	}
	return items, nil
}

// PublishedBatchParams is the externally-visible schema of a batch tool:
// exactly the items list plus the optional shared context parameter, never
// the tool's real per-item parameters.
func PublishedBatchParams(sig schema.Signature) []schema.Param {
	params := []schema.Param{{
		Name:        BatchItemsParam,
		Type:        schema.Slice(schema.Map()),
		Required:    true,
		Description: "Per-item argument maps; each element holds the arguments for one invocation.",
	}}
	if sig.ContextParam != "" {
		params = append(params, schema.Param{
			Name:        sig.ContextParam,
			Type:        schema.Map(),
			Description: "Shared context merged into every item.",
		})
	}
	return params
}
