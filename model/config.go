package model

import (
	"github.com/rs/zerolog"

	"github.com/jacentio/dyalchemy/schema"
)

// Config holds configuration for a Model.
type Config struct {
	// ModelName identifies the model in callback events and errors.
	// Required by every operation.
	ModelName string

	// TableName is the table items are stored in.
	// Required by every operation.
	TableName string

	// Schema describes the item attributes. Exactly one attribute must be HASH.
	Schema schema.Schema

	// PrimaryKeys are the attributes identifiers are derived from.
	// Empty means callers supply identifiers explicitly.
	PrimaryKeys []string

	// ErrorMap builds the ItemNotFound and ItemExists errors.
	// Default: DefaultErrorMap
	ErrorMap ErrorMap

	// Callback is invoked after every successful operation.
	// Default: none
	Callback Callback

	// Logger receives callback failures.
	// Default: zerolog.Nop()
	Logger *zerolog.Logger
}

// validate fills in defaults for optional values.
func (c *Config) validate() {
	if c.ErrorMap == nil {
		c.ErrorMap = DefaultErrorMap{}
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
}
