package calculator

import (
	"errors"
	"fmt"

	"riskcalc/internal/types"
)

var ErrInvalidPayload = errors.New("payload must be a JSON object")

// ValidationError reports a malformed or out-of-range field, or a violated
// relation between two fields.
type ValidationError struct {
	Field   types.PositionField
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UnknownFieldError is returned when fieldToUpdate names no position field.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return "Invalid field name."
}

// DerivationError is returned when a formula produced a value the field
// cannot hold: a non-finite result, typically a division by a zero-width
// stop, or one outside the field's range, such as a stop placed below zero
// by a risk budget larger than the position.
type DerivationError struct {
	Field types.PositionField
	Value float64
	// Reason is empty for non-finite results.
	Reason string
}

func (e *DerivationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s could not be derived: result is not a finite number", e.Field)
	}
	return fmt.Sprintf("%s could not be derived: %s", e.Field, e.Reason)
}

// IsClientError reports whether err was caused by the request contents.
func IsClientError(err error) bool {
	var ve *ValidationError
	var ue *UnknownFieldError
	var de *DerivationError
	return errors.As(err, &ve) || errors.As(err, &ue) || errors.As(err, &de) || errors.Is(err, ErrInvalidPayload)
}
