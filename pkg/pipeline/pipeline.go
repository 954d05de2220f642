package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ragline/ragline/pkg/logsink"
	"github.com/ragline/ragline/pkg/schema"
)

// Tool is a registerable unit: a name, a declared signature, and a body.
type Tool struct {
	Name        string
	Description string
	Signature   schema.Signature
	Handler     Handler
}

// Entry is a registered tool after composition. It carries both the wrapped
// handler and the schema published to the protocol server, which for batch
// tools differs from the tool's real per-item signature.
type Entry struct {
	tool      Tool
	batch     bool
	published []schema.Param
	handler   Handler
}

// Name returns the registered tool name.
func (e *Entry) Name() string { return e.tool.Name }

// Description returns the registered tool description.
func (e *Entry) Description() string { return e.tool.Description }

// Batch reports whether the tool was registered in its parallel form.
func (e *Entry) Batch() bool { return e.batch }

// Published returns the externally-visible parameter list. The protocol
// adapter builds the client-facing schema from this, never from the tool's
// native parameters.
func (e *Entry) Published() []schema.Param {
	out := make([]schema.Param, len(e.published))
	copy(out, e.published)
	return out
}

// ItemSignature returns the tool's declared per-item signature, kept for
// documentation tooling even when the published schema replaces it.
func (e *Entry) ItemSignature() schema.Signature { return e.tool.Signature }

// Invoke runs the fully wrapped handler, generating a correlation id when
// the context does not already carry one.
func (e *Entry) Invoke(ctx context.Context, args map[string]any) (any, error) {
	ctx, _ = EnsureID(ctx, "")
	return e.handler(ctx, args)
}

// ObserveFunc receives the outcome of every call for metrics collection.
type ObserveFunc func(tool string, status logsink.Status, elapsed time.Duration)

// Composer applies the middleware chain to tools at registration time and
// keeps the resulting entries for the protocol adapter to publish.
type Composer struct {
	recorder *Recorder
	logger   *slog.Logger
	observe  ObserveFunc

	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// Option configures a Composer.
type Option func(*Composer)

// WithObserver registers a per-call outcome callback (e.g. Prometheus
// counters). It wraps the whole chain and never alters results or errors.
func WithObserver(fn ObserveFunc) Option {
	return func(c *Composer) {
		c.observe = fn
	}
}

// New creates a Composer that logs through the given recorder and logger.
func New(recorder *Recorder, logger *slog.Logger, opts ...Option) *Composer {
	c := &Composer{
		recorder: recorder,
		logger:   logger,
		entries:  make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register composes a single-item tool:
//
//	Normalize -> Instrument -> CoerceArgs -> body
func (c *Composer) Register(t Tool) (*Entry, error) {
	handler := Chain(t.Handler,
		Normalize(c.recorder, t.Name),
		Instrument(c.recorder, t.Name, t.Signature),
		CoerceArgs(t.Signature, c.logger),
	)
	return c.add(t, false, publishedSingleParams(t.Signature), handler)
}

// RegisterBatch composes the parallel form of a single-item tool:
//
//	Normalize -> Instrument -> Parallelize -> CoerceArgs -> body
//
// Coercion sits inside the parallelizer so each item is repaired
// independently; instrumentation sits outside it so one start/end record
// covers the whole batch call.
func (c *Composer) RegisterBatch(t Tool) (*Entry, error) {
	handler := Chain(t.Handler,
		Normalize(c.recorder, t.Name),
		Instrument(c.recorder, t.Name, t.Signature),
		Parallelize(t.Signature, c.recorder, t.Name),
		CoerceArgs(t.Signature, c.logger),
	)
	return c.add(t, true, PublishedBatchParams(t.Signature), handler)
}

func (c *Composer) add(t Tool, batch bool, published []schema.Param, handler Handler) (*Entry, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("pipeline: tool name is required")
	}
	if t.Handler == nil {
		return nil, fmt.Errorf("pipeline: tool %q has no handler", t.Name)
	}

	if c.observe != nil {
		handler = observed(handler, t.Name, c.observe)
	}

	entry := &Entry{tool: t, batch: batch, published: published, handler: handler}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[t.Name]; exists {
		return nil, fmt.Errorf("pipeline: tool %q already registered", t.Name)
	}
	c.entries[t.Name] = entry
	c.order = append(c.order, t.Name)
	return entry, nil
}

// Get returns the entry registered under name.
func (c *Composer) Get(name string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[name]
	return entry, ok
}

// Entries returns all registered entries in registration order.
func (c *Composer) Entries() []*Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Entry, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.entries[name])
	}
	return out
}

// observed wraps the composed chain with the outcome callback. It sits
// outside the normalizer, so panics already arrive converted to errors.
func observed(next Handler, tool string, fn ObserveFunc) Handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		start := time.Now()
		out, err := next(ctx, args)
		status := logsink.StatusSuccess
		if err != nil {
			status = logsink.StatusError
		}
		fn(tool, status, time.Since(start))
		return out, err
	}
}

// publishedSingleParams mirrors the declared parameters, appending the
// passthrough context parameter as an optional map when declared.
func publishedSingleParams(sig schema.Signature) []schema.Param {
	params := make([]schema.Param, len(sig.Params))
	copy(params, sig.Params)
	if sig.ContextParam != "" {
		params = append(params, schema.Param{
			Name:        sig.ContextParam,
			Type:        schema.Map(),
			Description: "Runtime context passed through to the tool body.",
		})
	}
	return params
}
