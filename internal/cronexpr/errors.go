package cronexpr

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedField is returned when a single field violates its grammar or range.
	ErrMalformedField = errors.New("malformed cron field")
	// ErrInvalidSchedule is returned when an expression cannot be turned into a Schedule.
	ErrInvalidSchedule = errors.New("invalid cron schedule")
	// ErrNoOccurrence is returned when the occurrence search passes its horizon.
	ErrNoOccurrence = errors.New("no occurrence found")
)

// FieldError describes why one field of an expression was rejected.
type FieldError struct {
	Field  Field
	Text   string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s field %q: %s", e.Field, e.Text, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrMalformedField
}

func fieldErr(f Field, text, format string, args ...any) error {
	return &FieldError{Field: f, Text: text, Reason: fmt.Sprintf(format, args...)}
}
