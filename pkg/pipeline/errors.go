package pipeline

import "fmt"

// InvalidBatchInputError reports a malformed batch argument: the items
// argument is not a list, or an element is not an argument map.
// Index is -1 when the list itself is malformed.
type InvalidBatchInputError struct {
	Index  int
	Reason string
}

func (e *InvalidBatchInputError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid batch input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid batch input at index %d: %s", e.Index, e.Reason)
}

// BindingError reports that one batch item's argument map does not satisfy
// the tool's declared parameters.
type BindingError struct {
	Index int
	Err   error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("item %d does not bind: %v", e.Index, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// ConversionError reports a failed argument coercion. It never propagates
// out of the coercion layer: the original value is passed through and the
// error is only surfaced as a debug log.
type ConversionError struct {
	Param string
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot coerce parameter %q: %v", e.Param, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
