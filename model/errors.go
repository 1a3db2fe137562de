package model

import (
	"errors"
	"fmt"

	"github.com/jacentio/dyalchemy/internal/identity"
)

var (
	// ErrConfiguration is returned when a model is missing a required setting.
	ErrConfiguration = errors.New("dyalchemy: configuration error")

	// ErrItemNotFound is matched by the default ItemNotFound error.
	ErrItemNotFound = errors.New("dyalchemy: item not found")

	// ErrItemExists is matched by the default ItemExists error.
	ErrItemExists = errors.New("dyalchemy: item exists")

	// ErrInvalidPrimaryKeyUsage is matched by both ErrMustProvideIDXorPrimaryKeys
	// and ErrIncompletePrimaryKey.
	ErrInvalidPrimaryKeyUsage = errors.New("dyalchemy: invalid primary key usage")

	// ErrMustProvideIDXorPrimaryKeys is returned when an operation is given both or
	// neither of an identifier and primary-key values.
	ErrMustProvideIDXorPrimaryKeys = identity.ErrMustProvideIDXorPrimaryKeys

	// ErrIncompletePrimaryKey is returned when data lacks a configured primary key.
	ErrIncompletePrimaryKey = identity.ErrIncompletePrimaryKey

	// ErrCannotUpdatePrimaryKeys is returned when an update touches a primary key.
	ErrCannotUpdatePrimaryKeys = errors.New("dyalchemy: cannot update primary keys")
)

// Reason tells why an item was reported missing or existing.
type Reason string

const (
	// ReasonMissing means the store has no item with the identifier.
	ReasonMissing Reason = "missing"

	// ReasonConditionFailed means the item exists but a condition rejected it.
	ReasonConditionFailed Reason = "conditional-check-failed"
)

// ErrorContext describes the item an error is about.
type ErrorContext struct {
	ID        string
	ModelName string
	TableName string
	Reason    Reason
}

// ErrorMap builds the domain errors a model returns. Implementations replace the
// defaults per model.
type ErrorMap interface {
	ItemNotFound(ctx ErrorContext) error
	ItemExists(ctx ErrorContext) error
}

// DefaultErrorMap returns *NotFoundError and *ExistsError.
type DefaultErrorMap struct{}

func (DefaultErrorMap) ItemNotFound(ctx ErrorContext) error {
	return &NotFoundError{ErrorContext: ctx}
}

func (DefaultErrorMap) ItemExists(ctx ErrorContext) error {
	return &ExistsError{ErrorContext: ctx}
}

// ErrorMapFuncs adapts plain functions to ErrorMap. A nil function falls back to
// DefaultErrorMap.
type ErrorMapFuncs struct {
	NotFound func(ErrorContext) error
	Exists   func(ErrorContext) error
}

func (f ErrorMapFuncs) ItemNotFound(ctx ErrorContext) error {
	if f.NotFound == nil {
		return DefaultErrorMap{}.ItemNotFound(ctx)
	}
	return f.NotFound(ctx)
}

func (f ErrorMapFuncs) ItemExists(ctx ErrorContext) error {
	if f.Exists == nil {
		return DefaultErrorMap{}.ItemExists(ctx)
	}
	return f.Exists(ctx)
}

// NotFoundError is the default ItemNotFound error.
type NotFoundError struct {
	ErrorContext
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrItemNotFound, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrItemNotFound
}

// ExistsError is the default ItemExists error.
type ExistsError struct {
	ErrorContext
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrItemExists, e.ID)
}

func (e *ExistsError) Is(target error) bool {
	return target == ErrItemExists
}

// PartialSuccessError is returned when a write succeeded but reading the item back
// failed. The item has been written.
type PartialSuccessError struct {
	Action ActionType
	ID     string
	Err    error
}

func (e *PartialSuccessError) Error() string {
	return fmt.Sprintf("dyalchemy: %s of %s succeeded but read back failed: %v", e.Action, e.ID, e.Err)
}

func (e *PartialSuccessError) Unwrap() error {
	return e.Err
}

// primaryKeyError tags identity errors with ErrInvalidPrimaryKeyUsage.
type primaryKeyError struct {
	err error
}

func (e *primaryKeyError) Error() string {
	return e.err.Error()
}

func (e *primaryKeyError) Unwrap() []error {
	return []error{e.err, ErrInvalidPrimaryKeyUsage}
}

func wrapPrimaryKeyError(err error) error {
	if err == nil {
		return nil
	}
	return &primaryKeyError{err: err}
}
