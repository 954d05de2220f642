package tools

import (
	"context"
	"fmt"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/schema"
)

// IngestTool stores a document in the given store.
func IngestTool(store *DocStore) pipeline.Tool {
	return pipeline.Tool{
		Name:        "ingest_document",
		Description: "Store a document for later retrieval.",
		Signature: schema.Signature{
			Params: []schema.Param{
				{Name: "title", Type: schema.String(), Required: true, Description: "Document title."},
				{Name: "content", Type: schema.String(), Required: true, Description: "Full document text."},
				{Name: "tags", Type: schema.Slice(schema.String()), Description: "Optional labels."},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			title, _ := args["title"].(string)
			content, _ := args["content"].(string)
			if title == "" {
				return nil, fmt.Errorf("title must not be empty")
			}
			if content == "" {
				return nil, fmt.Errorf("content must not be empty")
			}

			if store == nil {
				return nil, fmt.Errorf("document store is not configured")
			}

			tags := stringSlice(args["tags"])
			id, err := store.Insert(ctx, title, content, tags)
			if err != nil {
				return nil, err
			}
			return map[string]any{"id": id}, nil
		},
	}
}

// SearchTool queries the document store.
func SearchTool(store *DocStore) pipeline.Tool {
	return pipeline.Tool{
		Name:        "search_documents",
		Description: "Find stored documents by substring match on title or content.",
		Signature: schema.Signature{
			Params: []schema.Param{
				{Name: "query", Type: schema.String(), Required: true, Description: "Substring to search for."},
				{Name: "limit", Type: schema.Int(), Default: 10, Description: "Maximum number of results."},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			query, _ := args["query"].(string)
			limit, err := intArg(args, "limit")
			if err != nil {
				return nil, err
			}
			if store == nil {
				return nil, fmt.Errorf("document store is not configured")
			}
			docs, err := store.Search(ctx, query, limit)
			if err != nil {
				return nil, err
			}
			if docs == nil {
				docs = []Document{}
			}
			return docs, nil
		},
	}
}

// RegisterAll wires every tool into the composer. chunk_text is registered
// in its parallel form; callers send a list of per-item argument maps.
func RegisterAll(c *pipeline.Composer, store *DocStore) error {
	if _, err := c.RegisterBatch(ChunkTool()); err != nil {
		return err
	}
	if _, err := c.Register(IngestTool(store)); err != nil {
		return err
	}
	if _, err := c.Register(SearchTool(store)); err != nil {
		return err
	}
	return nil
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, elem := range vv {
			if s, ok := elem.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
