package schema

import (
	"errors"
	"fmt"
)

var (
	ErrMissingRequiredField = errors.New("missing required field")
	ErrInvalidOptionValue   = errors.New("invalid option value")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrTypeMismatch         = errors.New("type mismatch")
)

// FieldError represents a single field validation failure.
type FieldError struct {
	Field  string // Field name
	Reason error  // One of the Err* sentinels above
	Value  any    // The offending value, or the rejected extension for file fields
	Detail string
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("field %q: %v", e.Field, e.Reason)
	switch {
	case e.Detail != "":
		msg += " (" + e.Detail + ")"
	case e.Value != nil:
		msg += fmt.Sprintf(" (got %v)", e.Value)
	}
	return msg
}

func (e *FieldError) Unwrap() error { return e.Reason }

// MissingRequiredField reports a required, visible field without a value.
func MissingRequiredField(name string) *FieldError {
	return &FieldError{Field: name, Reason: ErrMissingRequiredField}
}

// InvalidOptionValue reports a value outside the declared options.
func InvalidOptionValue(name string, value any) *FieldError {
	return &FieldError{Field: name, Reason: ErrInvalidOptionValue, Value: value}
}

// UnsupportedFileType reports a file URL whose extension is not accepted.
func UnsupportedFileType(name, ext string) *FieldError {
	if ext == "" {
		ext = "<none>"
	}
	return &FieldError{Field: name, Reason: ErrUnsupportedFileType, Value: ext}
}

// TypeMismatch reports a value that does not coerce to the declared kind.
func TypeMismatch(name string, value any, want string) *FieldError {
	return &FieldError{Field: name, Reason: ErrTypeMismatch, Value: value, Detail: fmt.Sprintf("expected %s, got %T", want, value)}
}

// FieldOf returns the offending field name if err is a FieldError.
func FieldOf(err error) (string, bool) {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field, true
	}
	return "", false
}
