// Package schema describes tool parameters and repairs loosely-typed input.
//
// It defines a small type system (string, int, float, bool, slices, maps)
// where every type knows how to validate a value and how to coerce a value
// toward itself. Coercion is best-effort: it converts strings produced by
// lossy client transports ("42" -> 42, "true" -> true, "[1,2]" -> []any{1,2})
// and reports an error when the value cannot be repaired. Callers decide what
// to do with a failed coercion; this package never mutates the input.
//
// A Signature bundles the declared parameters of a tool together with an
// optional passthrough context parameter. Signatures are used both to bind
// incoming argument maps (missing/unknown parameter detection) and to publish
// the externally visible parameter list of a tool.
package schema
