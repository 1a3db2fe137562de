package model_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jacentio/dyalchemy/model"
	"github.com/jacentio/dyalchemy/schema"
	"github.com/jacentio/dyalchemy/store"
)

const (
	table     = "dy-alchemy-table"
	derivedID = "8b3b2f5329f7df32a4e7a3ff1251b94b25bfa2d8"
)

func movieSchema() schema.Schema {
	return schema.Schema{
		"id":        {Type: schema.String, KeyType: schema.Hash},
		"title":     {Type: schema.String},
		"year":      {Type: schema.Number},
		"keywords":  {Type: schema.List, MemberType: &schema.Attribute{Type: schema.String}},
		"isWatched": {Type: schema.Boolean, Default: false},
	}
}

// spyStore counts store calls and optionally fails them.
type spyStore struct {
	store.ItemStore

	mu    sync.Mutex
	calls int

	getErr    error
	putErr    error
	updateErr error
	deleteErr error
	queryErr  error
}

func (s *spyStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *spyStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *spyStore) GetItem(ctx context.Context, in store.GetInput) (store.Item, error) {
	s.count()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.ItemStore.GetItem(ctx, in)
}

func (s *spyStore) PutItem(ctx context.Context, in store.PutInput) error {
	s.count()
	if s.putErr != nil {
		return s.putErr
	}
	return s.ItemStore.PutItem(ctx, in)
}

func (s *spyStore) UpdateItem(ctx context.Context, in store.UpdateInput) error {
	s.count()
	if s.updateErr != nil {
		return s.updateErr
	}
	return s.ItemStore.UpdateItem(ctx, in)
}

func (s *spyStore) DeleteItem(ctx context.Context, in store.DeleteInput) error {
	s.count()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.ItemStore.DeleteItem(ctx, in)
}

func (s *spyStore) Query(ctx context.Context, in store.QueryInput) (*store.QueryOutput, error) {
	s.count()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.ItemStore.Query(ctx, in)
}

// callbackLog records lifecycle events.
type callbackLog struct {
	mu     sync.Mutex
	events []model.Event
}

func (l *callbackLog) callback(_ context.Context, e model.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *callbackLog) expect(t *testing.T, id string, actions ...model.ActionType) {
	t.Helper()

	l.mu.Lock()
	defer l.mu.Unlock()

	want := make([]model.Event, 0, len(actions))
	for _, a := range actions {
		want = append(want, model.Event{ID: id, ModelName: "default", TableName: table, ActionType: a})
	}
	if len(want) == 0 {
		require.Empty(t, l.events)
		return
	}
	require.Equal(t, want, l.events)
}

type fixture struct {
	mem     *store.Memory
	spy     *spyStore
	log     *callbackLog
	model   *model.Model
	autoID  *model.Model
	context context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := store.NewMemory()
	mem.DefineIndex(table, store.IndexDefinition{Name: "index-name", HashKey: "title", RangeKey: "year"})
	spy := &spyStore{ItemStore: mem}
	log := &callbackLog{}

	m, err := model.New(spy, model.Config{
		ModelName: "default",
		TableName: table,
		Schema:    movieSchema(),
		Callback:  log.callback,
	})
	require.NoError(t, err)

	auto, err := model.New(spy, model.Config{
		ModelName:   "default",
		TableName:   table,
		Schema:      movieSchema(),
		PrimaryKeys: []string{"keywords", "title"},
		Callback:    log.callback,
	})
	require.NoError(t, err)

	return &fixture{mem: mem, spy: spy, log: log, model: m, autoID: auto, context: context.Background()}
}

// seed writes items directly to the store, bypassing the model.
func (f *fixture) seed(t *testing.T, items ...store.Item) {
	t.Helper()
	for _, item := range items {
		require.NoError(t, f.mem.PutItem(f.context, store.PutInput{Table: table, Schema: movieSchema(), Item: item}))
	}
}

func (f *fixture) stored(t *testing.T, id string) store.Item {
	t.Helper()
	item, err := f.mem.GetItem(f.context, store.GetInput{Table: table, Schema: movieSchema(), Key: store.Item{"id": id}})
	require.NoError(t, err)
	return item
}

func uuidItem() store.Item {
	return store.Item{
		"id":       "uuid",
		"title":    "title-name",
		"keywords": []any{"keyword1", "keyword2"},
	}
}

func derivedItem() store.Item {
	return store.Item{
		"id":       derivedID,
		"title":    "title",
		"keywords": []any{"keyword1", "keyword2"},
	}
}

func derivedKey() map[string]any {
	return map[string]any{"keywords": []any{"keyword1", "keyword2"}, "title": "title"}
}
