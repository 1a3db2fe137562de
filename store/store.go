package store

import (
	"context"

	"github.com/jacentio/dyalchemy/condition"
	"github.com/jacentio/dyalchemy/schema"
)

// Item is a record as exchanged with an item store.
type Item = map[string]any

// GetInput describes a single-item read.
type GetInput struct {
	Table  string
	Schema schema.Schema

	// Key holds the identifier attribute of the item.
	Key Item

	// Projection limits the attributes returned. Empty means all attributes.
	Projection []string

	ConsistentRead bool
}

// PutInput describes a full-item write.
type PutInput struct {
	Table     string
	Schema    schema.Schema
	Item      Item
	Condition *condition.Condition
}

// UpdateInput describes a partial write. Attributes absent from Set are left
// untouched; attributes mapped to nil are removed.
type UpdateInput struct {
	Table     string
	Schema    schema.Schema
	Key       Item
	Set       Item
	Condition *condition.Condition
}

// DeleteInput describes a single-item delete.
type DeleteInput struct {
	Table     string
	Schema    schema.Schema
	Key       Item
	Condition *condition.Condition
}

// QueryInput describes an index query.
type QueryInput struct {
	Table  string
	Schema schema.Schema

	// IndexName selects a secondary index. Empty queries the table itself.
	IndexName string

	// KeyConditions maps key attributes to the values they must equal.
	KeyConditions Item

	Projection       []string
	ScanIndexForward bool

	// Limit bounds the number of items evaluated. Zero follows every page.
	Limit int32

	ExclusiveStartKey Item
}

// QueryOutput is one page of query results.
type QueryOutput struct {
	Items []Item

	// LastEvaluatedKey is nil when no further items remain.
	LastEvaluatedKey Item
}

// ItemStore is the item-store boundary the model layer is written against.
//
// Reads report a missing item with ErrNotFound. Writes and deletes report a failed
// condition with ErrConditionFailed. Any other error is returned unchanged.
type ItemStore interface {
	GetItem(ctx context.Context, in GetInput) (Item, error)
	PutItem(ctx context.Context, in PutInput) error
	UpdateItem(ctx context.Context, in UpdateInput) error
	DeleteItem(ctx context.Context, in DeleteInput) error
	Query(ctx context.Context, in QueryInput) (*QueryOutput, error)
}
