// Package pipeline wraps tool handlers in a fixed-order middleware chain.
//
// Every registered tool is composed, outermost first, as:
//
//	Normalize -> Instrument -> [Parallelize ->] CoerceArgs -> tool body
//
// The order is load-bearing. Coercion runs per item, so it sits inside the
// parallelizer. Instrumentation wraps the parallelizer, so one start record
// covers a whole batch call. Normalization is outermost, so every failure,
// including validation failures raised by inner layers, is logged exactly
// once before it propagates unchanged to the protocol adapter.
//
// Middlewares are plain functions over the Handler type; the Composer applies
// them at registration time and records the schema each tool publishes to
// the protocol server, which for batch tools differs from the tool's real
// per-item parameters.
package pipeline
