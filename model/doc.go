// Package model runs the lifecycle of items in a single table: get, create,
// update, upsert, delete and paginated list.
//
// # Identifiers
//
// Every item is addressed by the schema's HASH attribute. A model configured with
// PrimaryKeys derives identifiers by hashing those attributes, so create and upsert
// take data only and get, update and delete may be given the key values instead of
// the identifier:
//
//	movies, _ := model.New(st, model.Config{
//	    ModelName:   "movie",
//	    TableName:   "movies",
//	    Schema:      movieSchema,
//	    PrimaryKeys: []string{"title", "year"},
//	})
//	rec, err := movies.Get(ctx, model.GetInput{
//	    Identity: model.ByKey(map[string]any{"title": "Alien", "year": 1979}),
//	    Fields:   []string{"title", "rating"},
//	})
//
// Models without PrimaryKeys require the caller to supply identifiers.
//
// # Conditions
//
// Every operation accepts extra conditions which are combined with the implicit
// identifier check. Writes evaluate them in the store; Get evaluates them locally
// after applying schema defaults, and an item failing them is indistinguishable
// from a missing one.
//
// # Callbacks
//
// The configured Callback is invoked after every successful operation, once per
// item for List. Create, Update and Upsert read the item back, so they report
// their own action followed by a get. Callback errors are logged and never
// returned.
//
// # Errors
//
//   - [ErrConfiguration] - model name or table name missing
//   - [ErrItemNotFound] - default ItemNotFound error
//   - [ErrItemExists] - default ItemExists error
//   - [ErrInvalidPrimaryKeyUsage] - identifier and key values misused
//   - [ErrCannotUpdatePrimaryKeys] - update touched a primary key
//   - [PartialSuccessError] - write succeeded, read back failed
package model
