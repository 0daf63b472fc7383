// internal/common/errors/validation.go
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrValidation is the sentinel wrapped by every ValidationError.
var ErrValidation = stderrors.New("PREDICTION_INPUT_INVALID")

// ValidationError reports input that violates a precondition of the prediction engine.
// Unlike StandardError it carries no timestamp.
type ValidationError struct {
	Field  string
	Value  interface{}
	Reason string
}

func NewValidationError(field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsValidation reports whether err or anything it wraps is a ValidationError.
func IsValidation(err error) bool {
	return stderrors.Is(err, ErrValidation)
}

// AsValidationError extracts the first ValidationError in err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	ok := stderrors.As(err, &verr)
	return verr, ok
}

// AsStandardError normalizes any error into a StandardError.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if verr, ok := AsValidationError(err); ok {
		return NewPredictionInputInvalidError(verr)
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
