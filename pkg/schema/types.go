package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Type defines the contract for parameter validation and coercion.
// Validate checks if a value already conforms; Coerce attempts to repair a
// non-conforming value (typically a string from a lossy transport) and
// returns the converted value, or an error when no repair is possible.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
	// Coerce converts value toward this type. Values that already validate
	// are returned unchanged.
	Coerce(value any) (any, error)
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// Coerce is a no-op: conversion rules only apply to string inputs, and a
// string input already satisfies a string target.
func (t *StringType) Coerce(value any) (any, error) {
	return value, nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == float64(int64(v)) {
			return nil
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

func (t *IntType) Coerce(value any) (any, error) {
	if t.Validate(value) == nil {
		return value, nil
	}
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %q to int: %w", s, err)
	}
	return int(n), nil
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64:
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

func (t *FloatType) Coerce(value any) (any, error) {
	if t.Validate(value) == nil {
		return value, nil
	}
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("cannot convert %q to float: %w", s, err)
	}
	return f, nil
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (t *BoolType) Coerce(value any) (any, error) {
	if t.Validate(value) == nil {
		return value, nil
	}
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return nil, fmt.Errorf("cannot convert %q to bool", s)
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

// Elem returns the declared element type.
func (t *SliceType) Elem() Type { return t.elemType }

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}

	for i := 0; i < rv.Len(); i++ {
		elem := rv.Index(i).Interface()
		if err := t.elemType.Validate(elem); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// Coerce repairs string and loosely-typed slice inputs. A string that looks
// like a JSON array is parsed; any other string becomes a one-element slice.
// Elements are then coerced recursively against the declared element type.
func (t *SliceType) Coerce(value any) (any, error) {
	if t.Validate(value) == nil {
		return value, nil
	}

	if s, ok := value.(string); ok {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			var parsed []any
			if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
				return nil, fmt.Errorf("cannot parse %q as list: %w", s, err)
			}
			return t.coerceElements(parsed)
		}
		return t.coerceElements([]any{s})
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot convert %T to list", value)
	}
	elems := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elems[i] = rv.Index(i).Interface()
	}
	return t.coerceElements(elems)
}

func (t *SliceType) coerceElements(elems []any) ([]any, error) {
	out := make([]any, len(elems))
	for i, elem := range elems {
		coerced, err := t.elemType.Coerce(elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = coerced
	}
	return out, nil
}

// MapType validates string-keyed maps.
type MapType struct{}

func (t *MapType) Name() string { return "map" }

func (t *MapType) Validate(value any) error {
	if _, ok := value.(map[string]any); ok {
		return nil
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		return nil
	}
	return fmt.Errorf("expected map, got %T", value)
}

// Coerce parses strings that look like JSON objects. Anything else that is
// not already a map is a hard conversion failure: there is no safe way to
// wrap a scalar into a map.
func (t *MapType) Coerce(value any) (any, error) {
	if t.Validate(value) == nil {
		return value, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("cannot convert %T to map", value)
	}
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "{") || !strings.HasSuffix(trimmed, "}") {
		return nil, fmt.Errorf("cannot convert %q to map", s)
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return nil, fmt.Errorf("cannot parse %q as map: %w", s, err)
	}
	return parsed, nil
}

// AnyType accepts every value.
type AnyType struct{}

func (t *AnyType) Name() string { return "any" }

func (t *AnyType) Validate(value any) error { return nil }

func (t *AnyType) Coerce(value any) (any, error) { return value, nil }

// OptionalType wraps another type and additionally accepts nil.
// Coercion unwraps to the inner type before conversion rules apply.
type OptionalType struct {
	inner Type
}

func (t *OptionalType) Name() string { return t.inner.Name() + "?" }

// Inner returns the wrapped non-nil type.
func (t *OptionalType) Inner() Type { return t.inner }

func (t *OptionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
}

func (t *OptionalType) Coerce(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return t.inner.Coerce(value)
}

// --- Factory Functions ---

// String creates a string type.
func String() Type { return &StringType{} }

// Int creates an integer type.
func Int() Type { return &IntType{} }

// Float creates a float type.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type.
func Bool() Type { return &BoolType{} }

// Slice creates a slice type for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Map creates a string-keyed map type.
func Map() Type { return &MapType{} }

// Any creates a type that accepts every value.
func Any() Type { return &AnyType{} }

// Optional wraps a type so that nil is also accepted.
func Optional(inner Type) Type {
	return &OptionalType{inner: inner}
}

// Unwrap strips an Optional wrapper, if present.
func Unwrap(t Type) Type {
	if opt, ok := t.(*OptionalType); ok {
		return opt.inner
	}
	return t
}
