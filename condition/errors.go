package condition

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidCondition is returned when a condition tree does not match the grammar.
	ErrInvalidCondition = errors.New("dyalchemy: invalid condition")

	// ErrNotImplemented is returned when a Function condition is evaluated or extracted locally.
	ErrNotImplemented = errors.New("dyalchemy: condition not implemented")

	// ErrUnknownType is returned when a node carries an unrecognized type.
	ErrUnknownType = errors.New("dyalchemy: unknown condition type")
)

// ValidationError reports why a condition failed validation.
type ValidationError struct {
	Condition Condition
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrInvalidCondition, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidCondition
}

// Fields returns the individual field failures, if the validator produced any.
func (e *ValidationError) Fields() validator.ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if errors.As(e.Err, &fieldErrs) {
		return fieldErrs
	}
	return nil
}

// UnknownTypeError is returned for nodes whose Type is not part of the grammar.
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnknownType, string(e.Type))
}

func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}
