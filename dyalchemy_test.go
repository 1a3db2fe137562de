package dyalchemy_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/dyalchemy"
	"github.com/jacentio/dyalchemy/config"
	"github.com/jacentio/dyalchemy/hooks"
	"github.com/jacentio/dyalchemy/lock"
	"github.com/jacentio/dyalchemy/model"
	"github.com/jacentio/dyalchemy/schema"
	"github.com/jacentio/dyalchemy/store"
)

const clientYAML = `
lock:
  backend: memory
  leaseDuration: 2s
models:
  - name: movies
    table: dy-alchemy-table
    primaryKeys: [keywords, title]
    schema:
      id: {type: String, keyType: HASH}
      title: {type: String}
      keywords: {type: List, memberType: {type: String}}
      isWatched: {type: Boolean, default: false}
  - name: reviews
    table: dy-alchemy-table
    schema:
      id: {type: String, keyType: HASH}
      body: {type: String}
`

func newClient(t *testing.T, callbacks ...model.Callback) *dyalchemy.Client {
	t.Helper()

	cfg, err := config.Parse([]byte(clientYAML))
	require.NoError(t, err)

	client, err := dyalchemy.New(store.NewMemory(), lock.NewMemoryBackend(), cfg, zerolog.Nop(), callbacks...)
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	client := newClient(t)

	assert.Equal(t, []string{"movies", "reviews"}, client.Models().Names())
	assert.Len(t, client.Models().ByTable("dy-alchemy-table"), 2)

	movies, err := client.Model("movies")
	require.NoError(t, err)
	assert.Equal(t, "id", movies.IDAttribute())

	_, err = client.Model("actors")
	assert.ErrorIs(t, err, dyalchemy.ErrConfiguration)
}

func TestNew_LockConfig(t *testing.T) {
	client := newClient(t)
	assert.Equal(t, "dyalchemy-lock-manager", client.Locks().Config().Owner)
	assert.Equal(t, int64(2_000_000_000), client.Locks().Config().LeaseDuration.Nanoseconds())
}

func TestNew_InvalidModel(t *testing.T) {
	cfg := &config.Config{Models: []config.ModelConfig{{Name: "movies", Table: "t"}}}

	_, err := dyalchemy.New(store.NewMemory(), lock.NewMemoryBackend(), cfg, zerolog.Nop())
	assert.ErrorIs(t, err, schema.ErrInvalidSchema)
}

func TestClient_Lifecycle(t *testing.T) {
	var buf bytes.Buffer
	client := newClient(t, hooks.Log(zerolog.New(&buf).Level(zerolog.DebugLevel)))
	ctx := context.Background()

	movies, err := client.Model("movies")
	require.NoError(t, err)

	created, err := movies.Create(ctx, model.CreateInput{
		Data: model.Record{"title": "Heat", "keywords": []any{"crime", "heist"}},
	})
	require.NoError(t, err)
	assert.Equal(t, false, created["isWatched"])
	assert.Len(t, created["id"], 40)

	_, err = movies.Create(ctx, model.CreateInput{
		Data: model.Record{"title": "Heat", "keywords": []any{"crime", "heist"}},
	})
	assert.ErrorIs(t, err, dyalchemy.ErrItemExists)

	_, err = movies.Create(ctx, model.CreateInput{Data: model.Record{"title": "Heat"}})
	assert.ErrorIs(t, err, dyalchemy.ErrInvalidPrimaryKeyUsage)

	assert.Contains(t, buf.String(), `"action":"create"`)
}

func TestClient_Lock(t *testing.T) {
	client := newClient(t)
	ctx := context.Background()

	l, err := client.Lock(ctx, "nightly-import")
	require.NoError(t, err)
	assert.Equal(t, int64(1), l.FencingToken())
	require.NoError(t, l.Release(ctx))
}

func TestClient_StreamRelay(t *testing.T) {
	client := newClient(t)
	assert.NotNil(t, client.StreamRelay())
	assert.NoError(t, client.Close())
}
