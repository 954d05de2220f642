package pipeline

import (
	"context"
	"log/slog"

	"github.com/ragline/ragline/pkg/schema"
)

// CoerceArgs repairs loosely-typed input against the tool's declared
// parameter types before the body runs. It is best-effort and non-blocking:
// a failed conversion passes the original value through and leaves the type
// error to the tool body, with a debug log so silent mis-coercion stays
// diagnosable. Declared defaults fill absent parameters; nil values pass
// through untouched. Only runtime values are touched, never the published
// schema.
func CoerceArgs(sig schema.Signature, logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, args map[string]any) (any, error) {
			fixed := make(map[string]any, len(args))
			for key, value := range args {
				fixed[key] = value
			}

			for _, p := range sig.Params {
				value, present := fixed[p.Name]
				if !present {
					if p.Default != nil {
						fixed[p.Name] = p.Default
					}
					continue
				}
				if value == nil {
					continue
				}

				coerced, err := p.Type.Coerce(value)
				if err != nil {
					cerr := &ConversionError{Param: p.Name, Err: err}
					logger.DebugContext(ctx, "argument coercion failed, passing original value through",
						"param", p.Name, "err", cerr)
					continue
				}
				fixed[p.Name] = coerced
			}

			return next(ctx, fixed)
		}
	}
}
