package schema

import (
	"fmt"
	"strings"
)

// Reason classifies why a single field failed validation.
type Reason string

const (
	ReasonMissing    Reason = "missing"
	ReasonWrongType  Reason = "wrong_type"
	ReasonOutOfRange Reason = "out_of_range"
	ReasonNotInEnum  Reason = "not_in_enum"
)

// FieldError is one violated field with its reason.
type FieldError struct {
	Field  string
	Reason Reason
	Detail string
}

func (f FieldError) String() string {
	if f.Detail == "" {
		return fmt.Sprintf("%s: %s", f.Field, f.Reason)
	}
	return fmt.Sprintf("%s: %s (%s)", f.Field, f.Reason, f.Detail)
}

// ValidationError enumerates every violated field of a record. Validation is
// total: a malformed record produces one of these, never a panic, and the
// same input always produces the same set of violations.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the named field is among the violations.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// errorOrNil returns a *ValidationError when any violations accumulated.
func errorOrNil(fields []FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}
