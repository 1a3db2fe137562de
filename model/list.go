package model

import (
	"context"
	"fmt"
	"slices"

	"github.com/jacentio/dyalchemy/paging"
	"github.com/jacentio/dyalchemy/store"
)

// ListInput holds the parameters of List.
type ListInput struct {
	// IndexName selects a secondary index. Empty queries the table itself.
	IndexName string

	// IndexMap maps index key attributes to the values to match.
	IndexMap map[string]any

	// Fields restricts the returned attributes. Empty returns all attributes.
	Fields []string

	// Descending scans the index backwards.
	Descending bool

	// Limit is the page size. Zero means paging.DefaultLimit and paging.NoLimit
	// returns every matching item in one page. Larger values are capped at
	// paging.MaxLimit.
	Limit int

	// Cursor continues a previous listing. Its direction, limit and page take
	// precedence over Descending and Limit.
	Cursor string
}

// ListOutput is one page of a listing.
type ListOutput struct {
	Payload []Record    `json:"payload"`
	Page    paging.Page `json:"page"`
}

// List queries an index one page at a time. The callback is invoked once per
// returned item, in order.
func (m *Model) List(ctx context.Context, in ListInput) (*ListOutput, error) {
	if err := m.precheck(); err != nil {
		return nil, err
	}
	state, err := paging.Decode(in.Cursor)
	if err != nil {
		return nil, err
	}

	limit := listLimit(in.Limit)
	if state.Limit != nil {
		limit = state.Limit
	}
	forward := !in.Descending
	if state.ScanIndexForward != nil {
		forward = *state.ScanIndexForward
	}
	current := 1
	if state.CurrentPage != nil {
		current = *state.CurrentPage
	}

	query := store.QueryInput{
		Table:             m.config.TableName,
		Schema:            m.config.Schema,
		IndexName:         in.IndexName,
		KeyConditions:     in.IndexMap,
		ScanIndexForward:  forward,
		ExclusiveStartKey: state.LastEvaluatedKey,
	}
	if len(in.Fields) > 0 {
		query.Projection = slices.Clone(in.Fields)
		if !slices.Contains(in.Fields, m.idAttr) {
			query.Projection = append(query.Projection, m.idAttr)
		}
	}
	if limit != nil && *limit > 0 {
		query.Limit = int32(*limit)
	}

	result, err := m.store.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	payload := make([]Record, 0, len(result.Items))
	for _, item := range result.Items {
		m.Notify(ctx, fmt.Sprint(item[m.idAttr]), ActionList)
		payload = append(payload, restrict(item, in.Fields))
	}

	page, err := paging.BuildPage(current, limit, result.LastEvaluatedKey)
	if err != nil {
		return nil, err
	}
	return &ListOutput{Payload: payload, Page: page}, nil
}

func listLimit(limit int) *int {
	switch {
	case limit == 0:
		limit = paging.DefaultLimit
	case limit < 0:
		return nil
	case limit > paging.MaxLimit:
		limit = paging.MaxLimit
	}
	return &limit
}
