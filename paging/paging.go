// Package paging implements the opaque cursors used by model list operations.
//
// A cursor is base64(JSON) of a [State]:
//
//	{"lastEvaluatedKey": {...}, "scanIndexForward": true, "currentPage": 2, "limit": 20}
//
// The wire format is part of the public contract: cursors handed out by one version
// must decode in the next.
package paging

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	// DefaultLimit is the page size used when a list call does not set one.
	DefaultLimit = 20

	// NoLimit requests every matching item in a single, unbounded page.
	NoLimit = -1

	// MaxLimit is the largest page size a store query can carry.
	MaxLimit = math.MaxInt32
)

// ErrInvalidCursor is returned when a cursor cannot be decoded. Callers should
// restart pagination from the first page.
var ErrInvalidCursor = errors.New("dyalchemy: invalid page cursor")

// State is the pagination context carried by a cursor. Nil fields were absent
// from the cursor and fall back to the caller's own parameters.
//
// LastEvaluatedKey is plain JSON: binary key values decode as base64 strings
// and numbers as float64, so integer keys beyond 2^53 lose precision. Stores
// restore binary values from the schema.
type State struct {
	LastEvaluatedKey map[string]any `json:"lastEvaluatedKey"`
	ScanIndexForward *bool          `json:"scanIndexForward"`
	CurrentPage      *int           `json:"currentPage"`
	Limit            *int           `json:"limit"`
}

// Link points at an adjacent page.
type Link struct {
	Limit  *int   `json:"limit"`
	Cursor string `json:"cursor"`
}

// Index describes the position of a page.
type Index struct {
	Current int `json:"current"`
}

// Page describes a page of list results. Next is set iff the store reported a
// continuation key; Previous is set iff the page is not the first.
type Page struct {
	Next     *Link `json:"next"`
	Previous *Link `json:"previous"`
	Index    Index `json:"index"`
	Size     *int  `json:"size"`
}

// Encode serializes s into a cursor.
func Encode(s State) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses a cursor produced by Encode. The empty cursor yields the zero
// State. Anything that is not base64-encoded JSON, or that carries a page below 1
// or a limit outside [1, MaxLimit], fails with ErrInvalidCursor.
func Decode(cursor string) (State, error) {
	if cursor == "" {
		return State{}, nil
	}

	data, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if s.CurrentPage != nil && *s.CurrentPage < 1 {
		return State{}, fmt.Errorf("%w: page %d", ErrInvalidCursor, *s.CurrentPage)
	}
	if s.Limit != nil && (*s.Limit < 1 || *s.Limit > MaxLimit) {
		return State{}, fmt.Errorf("%w: limit %d", ErrInvalidCursor, *s.Limit)
	}
	return s, nil
}

// BuildPage describes page currentPage of size limit (nil when unbounded).
// lastEvaluatedKey is the continuation key reported by the store, or nil.
func BuildPage(currentPage int, limit *int, lastEvaluatedKey map[string]any) (Page, error) {
	page := Page{
		Index: Index{Current: currentPage},
		Size:  limit,
	}

	if lastEvaluatedKey != nil {
		cursor, err := Encode(State{
			LastEvaluatedKey: lastEvaluatedKey,
			ScanIndexForward: ptr(true),
			CurrentPage:      ptr(currentPage + 1),
			Limit:            limit,
		})
		if err != nil {
			return Page{}, err
		}
		page.Next = &Link{Limit: limit, Cursor: cursor}
	}

	if currentPage != 1 {
		cursor, err := Encode(State{
			LastEvaluatedKey: lastEvaluatedKey,
			ScanIndexForward: ptr(false),
			CurrentPage:      ptr(currentPage - 1),
			Limit:            limit,
		})
		if err != nil {
			return Page{}, err
		}
		page.Previous = &Link{Limit: limit, Cursor: cursor}
	}

	return page, nil
}

func ptr[T any](v T) *T {
	return &v
}
