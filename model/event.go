package model

import "context"

// ActionType names the operation an Event reports.
type ActionType string

const (
	ActionGet    ActionType = "get"
	ActionCreate ActionType = "create"
	ActionUpdate ActionType = "update"
	ActionUpsert ActionType = "upsert"
	ActionDelete ActionType = "delete"
	ActionList   ActionType = "list"

	// Stream actions are reported for changes observed on the table's stream
	// rather than made through the model.
	ActionStreamInsert ActionType = "stream:insert"
	ActionStreamModify ActionType = "stream:modify"
	ActionStreamRemove ActionType = "stream:remove"
)

// Event is passed to a model's Callback.
type Event struct {
	ID         string     `json:"id"`
	ModelName  string     `json:"modelName"`
	TableName  string     `json:"tableName"`
	ActionType ActionType `json:"actionType"`
}

// Callback is invoked after a successful operation. It is awaited; a returned
// error is logged and not propagated to the caller.
type Callback func(ctx context.Context, event Event) error
