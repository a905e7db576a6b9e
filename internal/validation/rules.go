// Package validation provides custom validation rules for the application.
package validation

import (
	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/kbsync/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// UUID validates that a string value is a well-formed UUID. Empty strings
// pass so the rule composes with validation.Required on mandatory fields.
var UUID = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_uuid", "must be a string")
	}
	if s == "" {
		return nil
	}
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_uuid", "must be a valid UUID")
	}
	return nil
})
