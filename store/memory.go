package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/jacentio/dyalchemy/condition"
	"github.com/jacentio/dyalchemy/schema"
)

// IndexDefinition declares a secondary index of a Memory table. Items lacking the
// hash key attribute are not indexed.
type IndexDefinition struct {
	Name     string
	HashKey  string
	RangeKey string
}

// Memory is an in-process ItemStore. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	tables  map[string]map[string]Item
	indexes map[string]map[string]IndexDefinition
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		tables:  make(map[string]map[string]Item),
		indexes: make(map[string]map[string]IndexDefinition),
	}
}

// DefineIndex declares a secondary index on table.
func (m *Memory) DefineIndex(table string, def IndexDefinition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.indexes[table] == nil {
		m.indexes[table] = make(map[string]IndexDefinition)
	}
	m.indexes[table][def.Name] = def
}

// GetItem returns a copy of the stored item restricted to in.Projection.
func (m *Memory) GetItem(_ context.Context, in GetInput) (Item, error) {
	key, err := memoryKey(in.Schema, in.Key)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.tables[in.Table][key]
	if !ok {
		return nil, ErrNotFound
	}
	return project(item, in.Projection), nil
}

// PutItem replaces the stored item if in.Condition holds against the current one.
func (m *Memory) PutItem(_ context.Context, in PutInput) error {
	key, err := memoryKey(in.Schema, in.Item)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(in.Condition, m.tables[in.Table][key]); err != nil {
		return err
	}
	m.table(in.Table)[key] = maps.Clone(in.Item)
	return nil
}

// UpdateItem applies in.Set to the stored item, creating it from in.Key if absent.
func (m *Memory) UpdateItem(_ context.Context, in UpdateInput) error {
	key, err := memoryKey(in.Schema, in.Key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.tables[in.Table][key]
	if err := m.check(in.Condition, current); err != nil {
		return err
	}

	next := maps.Clone(current)
	if next == nil {
		next = maps.Clone(in.Key)
	}
	for name, v := range in.Set {
		if v == nil {
			delete(next, name)
			continue
		}
		next[name] = v
	}
	m.table(in.Table)[key] = next
	return nil
}

// DeleteItem removes the stored item if in.Condition holds against it.
func (m *Memory) DeleteItem(_ context.Context, in DeleteInput) error {
	key, err := memoryKey(in.Schema, in.Key)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.check(in.Condition, m.tables[in.Table][key]); err != nil {
		return err
	}
	delete(m.tables[in.Table], key)
	return nil
}

// Query returns items whose key attributes equal in.KeyConditions, ordered by the
// index range key and then by identifier.
func (m *Memory) Query(_ context.Context, in QueryInput) (*QueryOutput, error) {
	if len(in.KeyConditions) == 0 {
		return nil, errors.New("query requires at least one key condition")
	}

	idAttr := in.Schema.IDAttribute()
	def := IndexDefinition{HashKey: idAttr}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if in.IndexName != "" {
		d, ok := m.indexes[in.Table][in.IndexName]
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ErrUnknownIndex, in.IndexName, in.Table)
		}
		def = d
	}

	var eqs []condition.Condition
	for _, name := range sortedKeys(in.KeyConditions) {
		eqs = append(eqs, condition.Equals(name, in.KeyConditions[name]))
	}
	match := condition.And(eqs...)

	var rows []Item
	for _, item := range m.tables[in.Table] {
		if _, indexed := item[def.HashKey]; !indexed {
			continue
		}
		ok, err := condition.Evaluate(match, item)
		if err != nil {
			return nil, err
		}
		if ok {
			rows = append(rows, item)
		}
	}

	order := func(a, b Item) int {
		n := compareKeys(a, b, def.RangeKey, idAttr)
		if !in.ScanIndexForward {
			return -n
		}
		return n
	}
	slices.SortFunc(rows, order)

	if in.ExclusiveStartKey != nil {
		start := len(rows)
		for i, row := range rows {
			if order(row, in.ExclusiveStartKey) > 0 {
				start = i
				break
			}
		}
		rows = rows[start:]
	}

	out := &QueryOutput{}
	if in.Limit > 0 && len(rows) > int(in.Limit) {
		rows = rows[:in.Limit]
		last := rows[len(rows)-1]
		out.LastEvaluatedKey = Item{idAttr: last[idAttr]}
		for _, name := range []string{def.HashKey, def.RangeKey} {
			if v, ok := last[name]; ok && name != "" {
				out.LastEvaluatedKey[name] = v
			}
		}
	}

	out.Items = make([]Item, 0, len(rows))
	for _, row := range rows {
		out.Items = append(out.Items, project(row, in.Projection))
	}
	return out, nil
}

func (m *Memory) table(name string) map[string]Item {
	t, ok := m.tables[name]
	if !ok {
		t = make(map[string]Item)
		m.tables[name] = t
	}
	return t
}

// check evaluates cond against current, which is nil for a missing item.
func (m *Memory) check(cond *condition.Condition, current Item) error {
	if cond == nil {
		return nil
	}
	ok, err := memoryEvaluator.Evaluate(*cond, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConditionFailed
	}
	return nil
}

var memoryEvaluator = condition.Evaluator{Functions: evalFunction}

func evalFunction(c condition.Condition, record map[string]any) (bool, error) {
	v, exists := record[c.Subject]
	switch c.Name {
	case condition.AttributeExists:
		return exists, nil
	case condition.AttributeNotExists:
		return !exists, nil
	case condition.AttributeType:
		return exists && attributeTypeOf(v) == c.Expected, nil
	case condition.BeginsWith:
		s, ok := v.(string)
		return ok && strings.HasPrefix(s, c.Expected), nil
	case condition.Contains:
		switch t := v.(type) {
		case string:
			return strings.Contains(t, c.Expected), nil
		case []string:
			return slices.Contains(t, c.Expected), nil
		case []any:
			return slices.Contains(t, any(c.Expected)), nil
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: function %q", condition.ErrInvalidCondition, c.Name)
	}
}

// attributeTypeOf returns the DynamoDB type descriptor v would be stored as.
func attributeTypeOf(v any) string {
	switch v.(type) {
	case nil:
		return "NULL"
	case string:
		return "S"
	case bool:
		return "BOOL"
	case []byte:
		return "B"
	case []string:
		return "SS"
	case []any:
		return "L"
	case map[string]any:
		return "M"
	}
	if _, ok := condition.Compare(v, 0); ok {
		return "N"
	}
	return ""
}

func compareKeys(a, b Item, rangeKey, idAttr string) int {
	if rangeKey != "" {
		if n, ok := condition.Compare(a[rangeKey], b[rangeKey]); ok && n != 0 {
			return n
		}
	}
	return strings.Compare(fmt.Sprint(a[idAttr]), fmt.Sprint(b[idAttr]))
}

func memoryKey(s schema.Schema, item Item) (string, error) {
	idAttr := s.IDAttribute()
	if idAttr == "" {
		return "", schema.ErrInvalidSchema
	}
	v, ok := item[idAttr]
	if !ok || v == nil {
		return "", fmt.Errorf("missing key attribute %q", idAttr)
	}
	return fmt.Sprint(v), nil
}

func project(item Item, names []string) Item {
	if len(names) == 0 {
		return maps.Clone(item)
	}
	out := make(Item, len(names))
	for _, name := range names {
		if v, ok := item[name]; ok {
			out[name] = v
		}
	}
	return out
}
