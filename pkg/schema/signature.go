package schema

import "encoding/json"

// Param describes one declared tool parameter.
type Param struct {
	Name        string
	Type        Type
	Required    bool
	Default     any // nil means no default
	Description string
}

// Signature is a read-only view of a tool's declared parameters.
// ContextParam names an optional passthrough parameter (a shared map the
// caller may supply once for a whole batch); it is never required and is
// excluded from argument logging.
type Signature struct {
	Params       []Param
	ContextParam string
}

// Param returns the declared parameter with the given name.
func (s Signature) Param(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Bind validates an argument map against the signature: every required
// parameter without a default must be present, and every supplied key must
// name a declared parameter (or the context parameter). Values are not type
// checked here; coercion and the tool body own value-level errors.
func (s Signature) Bind(args map[string]any) error {
	var errs []error

	for _, p := range s.Params {
		if !p.Required || p.Default != nil {
			continue
		}
		if _, ok := args[p.Name]; !ok {
			errs = append(errs, &ValidationError{Key: p.Name, Reason: "required"})
		}
	}

	for key := range args {
		if key == s.ContextParam && s.ContextParam != "" {
			continue
		}
		if _, ok := s.Param(key); !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: "unknown parameter", Value: args[key]})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

type paramJSON struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// MarshalJSON serializes the signature as an ordered parameter list, so
// documentation tooling can render the declared per-item parameters even
// when a wrapper publishes a different external schema.
func (s Signature) MarshalJSON() ([]byte, error) {
	out := struct {
		Params       []paramJSON `json:"params"`
		ContextParam string      `json:"context_param,omitempty"`
	}{
		Params:       make([]paramJSON, 0, len(s.Params)),
		ContextParam: s.ContextParam,
	}
	for _, p := range s.Params {
		out.Params = append(out.Params, paramJSON{
			Name:        p.Name,
			Type:        p.Type.Name(),
			Required:    p.Required,
			Default:     p.Default,
			Description: p.Description,
		})
	}
	return json.Marshal(out)
}
