package schema

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind string

const (
	UnknownService       Kind = "unknown_service"
	MissingRequiredField Kind = "missing_required_field"
	TypeMismatch         Kind = "type_mismatch"
	OutOfRange           Kind = "out_of_range"
	InvalidOption        Kind = "invalid_option"
	UnexpectedField      Kind = "unexpected_field"
	TargetMismatch       Kind = "target_mismatch"
)

// Error is a validation failure for one service call. Service is always set;
// Field is set when the failure is attributable to a single field.
type Error struct {
	Kind    Kind
	Service string
	Field   string
	Reason  string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: service %q, field %q: %s", e.Kind, e.Service, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: service %q: %s", e.Kind, e.Service, e.Reason)
}

// KindOf returns the Kind carried by err, or "" when err is not a schema error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
