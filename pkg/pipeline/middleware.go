package pipeline

import "context"

// Handler is the invocable form of a tool: a named argument map in, a
// JSON-serializable result or an error out.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Middleware wraps a Handler with cross-cutting behavior.
type Middleware func(Handler) Handler

// Chain applies middlewares to h so that mws[0] is the outermost wrapper:
// Chain(h, a, b) == a(b(h)).
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
