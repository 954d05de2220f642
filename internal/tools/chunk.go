package tools

import (
	"context"
	"fmt"

	"github.com/ragline/ragline/pkg/pipeline"
	"github.com/ragline/ragline/pkg/schema"
)

// ChunkText splits text into rune windows of size with the given overlap
// between consecutive windows.
func ChunkText(text string, size, overlap int) ([]string, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk_size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must be in [0, chunk_size), got %d", overlap)
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return []string{}, nil
	}

	step := size - overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}

// ChunkTool exposes ChunkText as a pipeline tool. It declares a passthrough
// "meta" parameter so batch callers can share job metadata across items.
func ChunkTool() pipeline.Tool {
	return pipeline.Tool{
		Name:        "chunk_text",
		Description: "Split a document into overlapping text chunks for embedding.",
		Signature: schema.Signature{
			Params: []schema.Param{
				{Name: "text", Type: schema.String(), Required: true, Description: "Document text to split."},
				{Name: "chunk_size", Type: schema.Int(), Default: 800, Description: "Chunk length in characters."},
				{Name: "overlap", Type: schema.Int(), Default: 80, Description: "Characters shared between consecutive chunks."},
			},
			ContextParam: "meta",
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			text, _ := args["text"].(string)
			size, err := intArg(args, "chunk_size")
			if err != nil {
				return nil, err
			}
			overlap, err := intArg(args, "overlap")
			if err != nil {
				return nil, err
			}
			return ChunkText(text, size, overlap)
		},
	}
}

// intArg reads an integer argument that may arrive as int (defaults) or
// float64 (JSON numbers).
func intArg(args map[string]any, name string) (int, error) {
	switch v := args[name].(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("argument %q must be an integer, got %T", name, v)
	}
}
