package model

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jacentio/dyalchemy/condition"
	"github.com/jacentio/dyalchemy/internal/identity"
	"github.com/jacentio/dyalchemy/schema"
	"github.com/jacentio/dyalchemy/store"
)

// Record is an item as returned to callers.
type Record = map[string]any

// Identity addresses an existing item by identifier or by primary-key values.
// Exactly one of ID and Key must be set.
type Identity struct {
	ID  string
	Key map[string]any
}

// ByID addresses an item by identifier.
func ByID(id string) Identity {
	return Identity{ID: id}
}

// ByKey addresses an item by the values of the model's primary keys.
func ByKey(key map[string]any) Identity {
	return Identity{Key: key}
}

// Fields splits a comma-separated attribute list such as "title,year" for use
// as an input's Fields. Spaces around names and empty entries are dropped.
func Fields(list string) []string {
	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// GetInput holds the parameters of Get.
type GetInput struct {
	Identity

	// Fields restricts the returned attributes. Empty returns all attributes.
	Fields []string

	// Conditions must all hold for the item to be returned.
	Conditions []condition.Condition
}

// CreateInput holds the parameters of Create. ID must be empty for models with
// primary keys and set otherwise.
type CreateInput struct {
	ID         string
	Data       Record
	Fields     []string
	Conditions []condition.Condition
}

// UpdateInput holds the parameters of Update. Attributes absent from Data are
// left untouched; attributes mapped to nil are removed.
type UpdateInput struct {
	Identity
	Data       Record
	Fields     []string
	Conditions []condition.Condition
}

// UpsertInput holds the parameters of Upsert.
type UpsertInput struct {
	ID         string
	Data       Record
	Fields     []string
	Conditions []condition.Condition
}

// DeleteInput holds the parameters of Delete.
type DeleteInput struct {
	Identity
	Conditions []condition.Condition
}

// Model runs the item lifecycle for one table. It is safe for concurrent use.
type Model struct {
	store    store.ItemStore
	config   Config
	resolver identity.Resolver
	idAttr   string
	logger   zerolog.Logger
}

// New creates a Model. The schema and primary keys are checked here; ModelName
// and TableName are checked by every operation.
func New(st store.ItemStore, config Config) (*Model, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: missing required value: store", ErrConfiguration)
	}
	config.validate()

	if err := config.Schema.Validate(); err != nil {
		return nil, err
	}
	// Identifiers are always strings, explicit or derived.
	if id := config.Schema.IDAttribute(); config.Schema[id].Type != schema.String {
		return nil, fmt.Errorf("%w: identifier attribute %q must be of type %s", schema.ErrInvalidSchema, id, schema.String)
	}
	for _, key := range config.PrimaryKeys {
		if !config.Schema.Has(key) {
			return nil, fmt.Errorf("%w: primary key %q is not a schema attribute", schema.ErrInvalidSchema, key)
		}
	}

	return &Model{
		store:    st,
		config:   config,
		resolver: identity.Resolver{PrimaryKeys: config.PrimaryKeys},
		idAttr:   config.Schema.IDAttribute(),
		logger:   config.Logger.With().Str("model", config.ModelName).Str("table", config.TableName).Logger(),
	}, nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.config.ModelName }

// TableName returns the table the model stores items in.
func (m *Model) TableName() string { return m.config.TableName }

// Schema returns the item schema.
func (m *Model) Schema() schema.Schema { return m.config.Schema }

// IDAttribute returns the name of the identifier attribute.
func (m *Model) IDAttribute() string { return m.idAttr }

// Get reads one item. A missing item, or one failing Conditions after defaults
// are applied, is reported through the ErrorMap's ItemNotFound.
func (m *Model) Get(ctx context.Context, in GetInput) (Record, error) {
	if err := m.precheck(); err != nil {
		return nil, err
	}
	id, err := m.resolver.ForKey(in.ID, in.Key)
	if err != nil {
		return nil, wrapPrimaryKeyError(err)
	}
	return m.get(ctx, id, in.Fields, in.Conditions)
}

// Create writes a new item and returns it as Get would. An existing item is
// reported through the ErrorMap's ItemExists.
func (m *Model) Create(ctx context.Context, in CreateInput) (Record, error) {
	if err := m.precheck(); err != nil {
		return nil, err
	}
	id, err := m.resolver.ForWrite(in.ID, in.Data)
	if err != nil {
		return nil, wrapPrimaryKeyError(err)
	}

	cond, err := m.guard(condition.NotEquals(m.idAttr, id), in.Conditions)
	if err != nil {
		return nil, err
	}

	err = m.store.PutItem(ctx, store.PutInput{
		Table:     m.config.TableName,
		Schema:    m.config.Schema,
		Item:      m.item(id, in.Data),
		Condition: &cond,
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, m.config.ErrorMap.ItemExists(m.errorContext(id, ReasonConditionFailed))
	}
	if err != nil {
		return nil, err
	}

	m.Notify(ctx, id, ActionCreate)
	return m.readBack(ctx, ActionCreate, id, in.Fields)
}

// Update changes attributes of an existing item and returns it as Get would.
// Primary-key attributes cannot be changed.
func (m *Model) Update(ctx context.Context, in UpdateInput) (Record, error) {
	if err := m.precheck(); err != nil {
		return nil, err
	}
	if touched := m.resolver.Touches(in.Data); len(touched) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrCannotUpdatePrimaryKeys, touched)
	}
	id, err := m.resolver.ForKey(in.ID, in.Key)
	if err != nil {
		return nil, wrapPrimaryKeyError(err)
	}

	cond, err := m.guard(condition.Equals(m.idAttr, id), in.Conditions)
	if err != nil {
		return nil, err
	}

	set := maps.Clone(in.Data)
	delete(set, m.idAttr)

	err = m.store.UpdateItem(ctx, store.UpdateInput{
		Table:     m.config.TableName,
		Schema:    m.config.Schema,
		Key:       store.Item{m.idAttr: id},
		Set:       set,
		Condition: &cond,
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, m.config.ErrorMap.ItemNotFound(m.errorContext(id, ReasonConditionFailed))
	}
	if err != nil {
		return nil, err
	}

	m.Notify(ctx, id, ActionUpdate)
	return m.readBack(ctx, ActionUpdate, id, in.Fields)
}

// Upsert writes an item whether or not it exists and returns it as Get would.
// Only the supplied Conditions gate the write.
func (m *Model) Upsert(ctx context.Context, in UpsertInput) (Record, error) {
	if err := m.precheck(); err != nil {
		return nil, err
	}
	id, err := m.resolver.ForWrite(in.ID, in.Data)
	if err != nil {
		return nil, wrapPrimaryKeyError(err)
	}

	put := store.PutInput{
		Table:  m.config.TableName,
		Schema: m.config.Schema,
		Item:   m.item(id, in.Data),
	}
	if len(in.Conditions) > 0 {
		cond := condition.And(in.Conditions...)
		if err := condition.Validate(cond); err != nil {
			return nil, err
		}
		put.Condition = &cond
	}

	err = m.store.PutItem(ctx, put)
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, m.config.ErrorMap.ItemNotFound(m.errorContext(id, ReasonConditionFailed))
	}
	if err != nil {
		return nil, err
	}

	m.Notify(ctx, id, ActionUpsert)
	return m.readBack(ctx, ActionUpsert, id, in.Fields)
}

// Delete removes an existing item and returns its identifier.
func (m *Model) Delete(ctx context.Context, in DeleteInput) (string, error) {
	if err := m.precheck(); err != nil {
		return "", err
	}
	id, err := m.resolver.ForKey(in.ID, in.Key)
	if err != nil {
		return "", wrapPrimaryKeyError(err)
	}

	cond, err := m.guard(condition.Equals(m.idAttr, id), in.Conditions)
	if err != nil {
		return "", err
	}

	err = m.store.DeleteItem(ctx, store.DeleteInput{
		Table:     m.config.TableName,
		Schema:    m.config.Schema,
		Key:       store.Item{m.idAttr: id},
		Condition: &cond,
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return "", m.config.ErrorMap.ItemNotFound(m.errorContext(id, ReasonConditionFailed))
	}
	if err != nil {
		return "", err
	}

	m.Notify(ctx, id, ActionDelete)
	return id, nil
}

// Notify invokes the callback for id. Callback errors are logged.
func (m *Model) Notify(ctx context.Context, id string, action ActionType) {
	if m.config.Callback == nil {
		return
	}
	err := m.config.Callback(ctx, Event{
		ID:         id,
		ModelName:  m.config.ModelName,
		TableName:  m.config.TableName,
		ActionType: action,
	})
	if err != nil {
		m.logger.Error().Err(err).
			Str("id", id).
			Str("action", string(action)).
			Msg("lifecycle callback failed")
	}
}

func (m *Model) precheck() error {
	if m.config.ModelName == "" {
		return fmt.Errorf("%w: missing required value: modelName", ErrConfiguration)
	}
	if m.config.TableName == "" {
		return fmt.Errorf("%w: missing required value: tableName", ErrConfiguration)
	}
	return nil
}

func (m *Model) get(ctx context.Context, id string, fields []string, conditions []condition.Condition) (Record, error) {
	cond, err := m.guard(condition.Equals(m.idAttr, id), conditions)
	if err != nil {
		return nil, err
	}
	attrs, err := condition.Extract(cond)
	if err != nil {
		return nil, err
	}
	projection := m.projection(fields, attrs.Flatten())

	item, err := m.store.GetItem(ctx, store.GetInput{
		Table:          m.config.TableName,
		Schema:         m.config.Schema,
		Key:            store.Item{m.idAttr: id},
		Projection:     projection,
		ConsistentRead: true,
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, m.config.ErrorMap.ItemNotFound(m.errorContext(id, ReasonMissing))
	}
	if err != nil {
		return nil, err
	}

	record := m.hydrate(item, projection)
	ok, err := condition.Evaluate(cond, record)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, m.config.ErrorMap.ItemNotFound(m.errorContext(id, ReasonConditionFailed))
	}

	m.Notify(ctx, id, ActionGet)
	return restrict(record, fields), nil
}

// readBack fetches a written item, reporting a failure as partial success.
func (m *Model) readBack(ctx context.Context, action ActionType, id string, fields []string) (Record, error) {
	record, err := m.get(ctx, id, fields, nil)
	if err != nil {
		return nil, &PartialSuccessError{Action: action, ID: id, Err: err}
	}
	return record, nil
}

// guard combines the identifier condition with the caller's conditions and
// validates the result.
func (m *Model) guard(base condition.Condition, conditions []condition.Condition) (condition.Condition, error) {
	cond := condition.And(append([]condition.Condition{base}, conditions...)...)
	if err := condition.Validate(cond); err != nil {
		return condition.Condition{}, err
	}
	return cond, nil
}

// projection returns fields extended with the attributes conditions need, or
// nil when every attribute is requested.
func (m *Model) projection(fields, required []string) []string {
	if len(fields) == 0 {
		return nil
	}
	out := make([]string, 0, len(fields)+len(required))
	seen := make(map[string]bool, len(fields)+len(required))
	for _, names := range [][]string{fields, required} {
		for _, name := range names {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// hydrate fills projected attributes missing from item with schema defaults.
func (m *Model) hydrate(item store.Item, projection []string) Record {
	record := maps.Clone(item)
	if record == nil {
		record = Record{}
	}

	names := projection
	if names == nil {
		for name := range m.config.Schema {
			names = append(names, name)
		}
	}
	for _, name := range names {
		if _, ok := record[name]; ok {
			continue
		}
		if def, ok := m.config.Schema.Default(name); ok {
			record[name] = def
		}
	}
	return record
}

func (m *Model) item(id string, data Record) store.Item {
	item := make(store.Item, len(data)+1)
	maps.Copy(item, data)
	item[m.idAttr] = id
	return item
}

func (m *Model) errorContext(id string, reason Reason) ErrorContext {
	return ErrorContext{
		ID:        id,
		ModelName: m.config.ModelName,
		TableName: m.config.TableName,
		Reason:    reason,
	}
}

// restrict returns record limited to fields. Empty fields keeps every attribute.
func restrict(record Record, fields []string) Record {
	if len(fields) == 0 {
		return record
	}
	out := make(Record, len(fields))
	for _, name := range fields {
		if v, ok := record[name]; ok {
			out[name] = v
		}
	}
	return out
}
