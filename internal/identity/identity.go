// Package identity resolves item identifiers, either supplied by the caller or
// derived from a model's composite primary key.
package identity

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMustProvideIDXorPrimaryKeys is returned when a call supplies both or neither
	// of an explicit identifier and primary-key values, or the mode does not match
	// the model configuration.
	ErrMustProvideIDXorPrimaryKeys = errors.New("dyalchemy: must provide either an id or primary key values")

	// ErrIncompletePrimaryKey is returned when a configured key attribute is missing.
	ErrIncompletePrimaryKey = errors.New("dyalchemy: incomplete primary key")
)

// Resolver derives identifiers for one model.
type Resolver struct {
	// PrimaryKeys are the attributes of the composite natural key. Empty means
	// identifiers are always supplied explicitly.
	PrimaryKeys []string
}

// Derived reports whether identifiers are derived from primary keys.
func (r Resolver) Derived() bool {
	return len(r.PrimaryKeys) > 0
}

// ForWrite resolves the identifier for create and upsert. Models with primary keys
// derive it from data and reject an explicit id; models without require one.
func (r Resolver) ForWrite(id string, data map[string]any) (string, error) {
	if r.Derived() {
		if id != "" {
			return "", fmt.Errorf("%w: id given for a model with primary keys", ErrMustProvideIDXorPrimaryKeys)
		}
		return r.Derive(data)
	}
	if id == "" {
		return "", fmt.Errorf("%w: id required for a model without primary keys", ErrMustProvideIDXorPrimaryKeys)
	}
	return id, nil
}

// ForKey resolves the identifier for get, update and delete, which address an item
// either by id or by its primary-key values.
func (r Resolver) ForKey(id string, key map[string]any) (string, error) {
	switch {
	case id != "" && key != nil:
		return "", fmt.Errorf("%w: both id and key given", ErrMustProvideIDXorPrimaryKeys)
	case id != "":
		return id, nil
	case key == nil:
		return "", fmt.Errorf("%w: neither id nor key given", ErrMustProvideIDXorPrimaryKeys)
	case !r.Derived():
		return "", fmt.Errorf("%w: key given for a model without primary keys", ErrMustProvideIDXorPrimaryKeys)
	}
	return r.Derive(key)
}

// Derive hashes the primary-key values in data into a 40 character hex identifier.
// The digest covers canonical JSON with sorted keys, so neither the order of
// PrimaryKeys nor of data affects the result.
func (r Resolver) Derive(data map[string]any) (string, error) {
	values := make(map[string]any, len(r.PrimaryKeys))
	for _, key := range r.PrimaryKeys {
		v, ok := data[key]
		if !ok {
			return "", fmt.Errorf("%w: missing %q", ErrIncompletePrimaryKey, key)
		}
		values[key] = v
	}

	canonical, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode primary key: %w", err)
	}
	h := sha1.Sum(canonical)
	return hex.EncodeToString(h[:]), nil
}

// Touches returns the configured primary keys that appear in data.
func (r Resolver) Touches(data map[string]any) []string {
	var touched []string
	for _, key := range r.PrimaryKeys {
		if _, ok := data[key]; ok {
			touched = append(touched, key)
		}
	}
	return touched
}
