package store

import "errors"

var (
	// ErrNotFound is returned when a read targets an item that doesn't exist.
	ErrNotFound = errors.New("dyalchemy: item not found in store")

	// ErrConditionFailed is returned when a write's condition evaluates to false.
	ErrConditionFailed = errors.New("dyalchemy: conditional check failed")

	// ErrUnknownIndex is returned when a query names an index the store doesn't have.
	ErrUnknownIndex = errors.New("dyalchemy: unknown index")
)
