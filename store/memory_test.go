package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/dyalchemy/condition"
	"github.com/jacentio/dyalchemy/store"
)

var _ store.ItemStore = (*store.Memory)(nil)

func seedMovies(t *testing.T) *store.Memory {
	t.Helper()

	m := store.NewMemory()
	m.DefineIndex("movies", store.IndexDefinition{Name: "title-index", HashKey: "title", RangeKey: "year"})

	for _, item := range []store.Item{
		{"id": "a", "title": "Alien", "year": 1979},
		{"id": "b", "title": "Alien", "year": 1986},
		{"id": "c", "title": "Alien", "year": 1992},
		{"id": "d", "title": "Heat", "year": 1995},
		{"id": "e", "year": 2000},
	} {
		require.NoError(t, m.PutItem(context.Background(), store.PutInput{
			Table:  "movies",
			Schema: movieSchema(),
			Item:   item,
		}))
	}
	return m
}

func TestMemory_GetItem(t *testing.T) {
	m := seedMovies(t)
	ctx := context.Background()

	item, err := m.GetItem(ctx, store.GetInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "a"}})
	require.NoError(t, err)
	assert.Equal(t, store.Item{"id": "a", "title": "Alien", "year": 1979}, item)

	item, err = m.GetItem(ctx, store.GetInput{
		Table:      "movies",
		Schema:     movieSchema(),
		Key:        store.Item{"id": "a"},
		Projection: []string{"title", "rating"},
	})
	require.NoError(t, err)
	assert.Equal(t, store.Item{"title": "Alien"}, item)

	_, err = m.GetItem(ctx, store.GetInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "z"}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_GetItem_ReturnsCopy(t *testing.T) {
	m := seedMovies(t)
	ctx := context.Background()

	item, err := m.GetItem(ctx, store.GetInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "a"}})
	require.NoError(t, err)
	item["title"] = "changed"

	again, err := m.GetItem(ctx, store.GetInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "a"}})
	require.NoError(t, err)
	assert.Equal(t, "Alien", again["title"])
}

func TestMemory_PutItem_Conditions(t *testing.T) {
	m := seedMovies(t)
	ctx := context.Background()

	exists := condition.NotEquals("id", "a")
	err := m.PutItem(ctx, store.PutInput{Table: "movies", Schema: movieSchema(), Item: store.Item{"id": "a"}, Condition: &exists})
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	fresh := condition.NotEquals("id", "new")
	err = m.PutItem(ctx, store.PutInput{Table: "movies", Schema: movieSchema(), Item: store.Item{"id": "new"}, Condition: &fresh})
	assert.NoError(t, err)

	notExists := condition.Function("id", condition.AttributeNotExists, "")
	err = m.PutItem(ctx, store.PutInput{Table: "movies", Schema: movieSchema(), Item: store.Item{"id": "b"}, Condition: &notExists})
	assert.ErrorIs(t, err, store.ErrConditionFailed)
}

func TestMemory_PutItem_MissingKey(t *testing.T) {
	m := store.NewMemory()

	err := m.PutItem(context.Background(), store.PutInput{Table: "movies", Schema: movieSchema(), Item: store.Item{"title": "x"}})
	assert.Error(t, err)
}

func TestMemory_UpdateItem(t *testing.T) {
	m := seedMovies(t)
	ctx := context.Background()

	cond := condition.Equals("id", "a")
	err := m.UpdateItem(ctx, store.UpdateInput{
		Table:     "movies",
		Schema:    movieSchema(),
		Key:       store.Item{"id": "a"},
		Set:       store.Item{"title": "Aliens", "year": nil, "rating": 8},
		Condition: &cond,
	})
	require.NoError(t, err)

	item, err := m.GetItem(ctx, store.GetInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "a"}})
	require.NoError(t, err)
	assert.Equal(t, store.Item{"id": "a", "title": "Aliens", "rating": 8}, item)
}

func TestMemory_UpdateItem_MissingItem(t *testing.T) {
	m := seedMovies(t)
	ctx := context.Background()

	cond := condition.Equals("id", "z")
	err := m.UpdateItem(ctx, store.UpdateInput{
		Table:     "movies",
		Schema:    movieSchema(),
		Key:       store.Item{"id": "z"},
		Set:       store.Item{"title": "Ghost"},
		Condition: &cond,
	})
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	err = m.UpdateItem(ctx, store.UpdateInput{
		Table:  "movies",
		Schema: movieSchema(),
		Key:    store.Item{"id": "z"},
		Set:    store.Item{"title": "Ghost"},
	})
	require.NoError(t, err)

	item, err := m.GetItem(ctx, store.GetInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "z"}})
	require.NoError(t, err)
	assert.Equal(t, store.Item{"id": "z", "title": "Ghost"}, item)
}

func TestMemory_DeleteItem(t *testing.T) {
	m := seedMovies(t)
	ctx := context.Background()

	missing := condition.Equals("id", "z")
	err := m.DeleteItem(ctx, store.DeleteInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "z"}, Condition: &missing})
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	cond := condition.And(condition.Equals("id", "a"), condition.LessThan("year", 1980))
	err = m.DeleteItem(ctx, store.DeleteInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "a"}, Condition: &cond})
	require.NoError(t, err)

	_, err = m.GetItem(ctx, store.GetInput{Table: "movies", Schema: movieSchema(), Key: store.Item{"id": "a"}})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_Query_Index(t *testing.T) {
	m := seedMovies(t)

	out, err := m.Query(context.Background(), store.QueryInput{
		Table:            "movies",
		Schema:           movieSchema(),
		IndexName:        "title-index",
		KeyConditions:    store.Item{"title": "Alien"},
		Projection:       []string{"id"},
		ScanIndexForward: true,
	})
	require.NoError(t, err)

	assert.Equal(t, []store.Item{{"id": "a"}, {"id": "b"}, {"id": "c"}}, out.Items)
	assert.Nil(t, out.LastEvaluatedKey)
}

func TestMemory_Query_Paging(t *testing.T) {
	m := seedMovies(t)
	ctx := context.Background()

	in := store.QueryInput{
		Table:            "movies",
		Schema:           movieSchema(),
		IndexName:        "title-index",
		KeyConditions:    store.Item{"title": "Alien"},
		ScanIndexForward: true,
		Limit:            2,
	}

	first, err := m.Query(ctx, in)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, "b", first.Items[1]["id"])
	assert.Equal(t, store.Item{"id": "b", "title": "Alien", "year": 1986}, first.LastEvaluatedKey)

	in.ExclusiveStartKey = first.LastEvaluatedKey
	second, err := m.Query(ctx, in)
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "c", second.Items[0]["id"])
	assert.Nil(t, second.LastEvaluatedKey)

	// Backwards from the start key of the second page.
	in.ScanIndexForward = false
	in.ExclusiveStartKey = store.Item{"id": "c", "title": "Alien", "year": float64(1992)}
	back, err := m.Query(ctx, in)
	require.NoError(t, err)
	require.Len(t, back.Items, 2)
	assert.Equal(t, "b", back.Items[0]["id"])
	assert.Equal(t, "a", back.Items[1]["id"])
}

func TestMemory_Query_UnknownIndex(t *testing.T) {
	m := seedMovies(t)

	_, err := m.Query(context.Background(), store.QueryInput{
		Table:         "movies",
		Schema:        movieSchema(),
		IndexName:     "missing",
		KeyConditions: store.Item{"title": "Alien"},
	})
	assert.ErrorIs(t, err, store.ErrUnknownIndex)
}

func TestMemory_Query_BaseTable(t *testing.T) {
	m := seedMovies(t)

	out, err := m.Query(context.Background(), store.QueryInput{
		Table:         "movies",
		Schema:        movieSchema(),
		KeyConditions: store.Item{"id": "d"},
	})
	require.NoError(t, err)
	assert.Equal(t, []store.Item{{"id": "d", "title": "Heat", "year": 1995}}, out.Items)
}
