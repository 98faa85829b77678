package oracle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for empty batches, unordered boundaries
	// and out-of-range quantile ranks.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownKind is returned for a kind outside the supported set.
	ErrUnknownKind = errors.New("unknown aggregation kind")
)

// InputError describes why a Summarize call was rejected.
type InputError struct {
	Kind    Kind   `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	err     error
}

func (e *InputError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s (kind %q)", e.err, e.Field, e.Message, e.Kind)
	}
	return fmt.Sprintf("%s: %s (kind %q)", e.err, e.Message, e.Kind)
}

// Unwrap exposes the sentinel so errors.Is matches ErrInvalidInput or ErrUnknownKind.
func (e *InputError) Unwrap() error { return e.err }

func newInvalidInputError(kind Kind, field, format string, args ...interface{}) *InputError {
	return &InputError{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		err:     ErrInvalidInput,
	}
}

func newUnknownKindError(kind Kind) *InputError {
	return &InputError{
		Kind:    kind,
		Message: fmt.Sprintf("supported kinds are %v", Kinds),
		err:     ErrUnknownKind,
	}
}
