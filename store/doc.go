// Package store defines the item-store boundary used by models and provides two
// implementations of it.
//
// # Implementations
//
// [Dynamo] adapts a DynamoDB client. Items are marshalled with the attributevalue
// package and every condition, projection, key condition and update is built with
// the expression package, so attribute names are always escaped:
//
//	st := store.NewDynamo(dynamodb.NewFromConfig(cfg))
//
// [Memory] keeps items in process. It evaluates conditions locally, including the
// store-side predicates such as attribute_exists, and answers queries against
// secondary indexes declared with [Memory.DefineIndex]:
//
//	st := store.NewMemory()
//	st.DefineIndex("movies", store.IndexDefinition{Name: "title-index", HashKey: "title", RangeKey: "year"})
//
// # Schemas
//
// Every input carries the model's [schema.Schema]. The identifier attribute is the
// one marked HASH. Attributes typed Set are written as DynamoDB string, number or
// binary sets according to their member type.
//
// # Errors
//
//   - [ErrNotFound] - read target doesn't exist
//   - [ErrConditionFailed] - write or delete condition evaluated to false
//   - [ErrUnknownIndex] - query named an undeclared index (memory store)
package store
