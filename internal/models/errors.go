package models

import (
	"errors"
	"fmt"
)

// ErrValidation wraps every error returned by a model's Validate method.
var ErrValidation = errors.New("validation failed")

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
