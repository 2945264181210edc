// Package apperr holds the error taxonomy shared by the booking engine.
// Callers match with errors.Is against the sentinels; richer error values
// unwrap to one of them.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrSlotUnavailable          = errors.New("slot unavailable")
	ErrOutOfOperatingHours      = errors.New("outside court operating hours")
	ErrVenueNotBookable         = errors.New("venue not bookable")
	ErrPaymentFailed            = errors.New("payment failed")
	ErrCancellationWindowClosed = errors.New("cancellation window closed")
	ErrInvalidInterval          = errors.New("invalid interval")
	ErrNotFound                 = errors.New("not found")
	ErrInvalidInput             = errors.New("invalid input")
	ErrInvalidTransition        = errors.New("invalid booking transition")
)

// FieldError reports a single invalid input field.
type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e FieldError) Unwrap() error {
	return ErrInvalidInput
}

// Field is shorthand for building a FieldError.
func Field(field, reason string) error {
	return FieldError{Field: field, Reason: reason}
}

// IntervalError explains why a requested time range was rejected.
type IntervalError struct {
	Reason string
}

func (e IntervalError) Error() string {
	return fmt.Sprintf("invalid interval: %s", e.Reason)
}

func (e IntervalError) Unwrap() error {
	return ErrInvalidInterval
}

// Interval is shorthand for building an IntervalError.
func Interval(format string, args ...any) error {
	return IntervalError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NotFound is shorthand for building a NotFoundError.
func NotFound(entity string, id int64) error {
	return NotFoundError{Entity: entity, ID: id}
}

// IsDomain reports whether err belongs to the expected, user-actionable
// taxonomy rather than an internal failure.
func IsDomain(err error) bool {
	for _, target := range []error{
		ErrSlotUnavailable,
		ErrOutOfOperatingHours,
		ErrVenueNotBookable,
		ErrPaymentFailed,
		ErrCancellationWindowClosed,
		ErrInvalidInterval,
		ErrNotFound,
		ErrInvalidInput,
		ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
