package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/dyalchemy/condition"
	"github.com/jacentio/dyalchemy/schema"
)

// DynamoDBAPI is the subset of *dynamodb.Client used by Dynamo.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Dynamo is an ItemStore backed by DynamoDB.
type Dynamo struct {
	client DynamoDBAPI
}

// NewDynamo creates a Dynamo store using client.
func NewDynamo(client DynamoDBAPI) *Dynamo {
	return &Dynamo{client: client}
}

// GetItem reads a single item, returning ErrNotFound if it doesn't exist.
func (d *Dynamo) GetItem(ctx context.Context, in GetInput) (Item, error) {
	key, err := marshalItem(in.Schema, in.Key)
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName:      aws.String(in.Table),
		Key:            key,
		ConsistentRead: aws.Bool(in.ConsistentRead),
	}
	if proj, ok := projection(in.Projection); ok {
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return nil, fmt.Errorf("build projection: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	result, err := d.client.GetItem(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(result.Item) == 0 {
		return nil, ErrNotFound
	}
	return unmarshalItem(result.Item)
}

// PutItem writes a full item, returning ErrConditionFailed if in.Condition fails.
func (d *Dynamo) PutItem(ctx context.Context, in PutInput) error {
	item, err := marshalItem(in.Schema, in.Item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(in.Table),
		Item:      item,
	}
	if in.Condition != nil {
		cond, err := condition.Expression(*in.Condition)
		if err != nil {
			return err
		}
		expr, err := expression.NewBuilder().WithCondition(cond).Build()
		if err != nil {
			return fmt.Errorf("build condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	_, err = d.client.PutItem(ctx, input)
	return mapWriteError(err)
}

// UpdateItem sets and removes attributes of a single item, returning
// ErrConditionFailed if in.Condition fails.
func (d *Dynamo) UpdateItem(ctx context.Context, in UpdateInput) error {
	key, err := marshalItem(in.Schema, in.Key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(in.Table),
		Key:       key,
	}

	builder := expression.NewBuilder()
	parts := 0
	if len(in.Set) > 0 {
		var update expression.UpdateBuilder
		for _, name := range sortedKeys(in.Set) {
			v := in.Set[name]
			if v == nil {
				update = update.Remove(expression.Name(name))
				continue
			}
			val, err := attributeValue(in.Schema, name, v)
			if err != nil {
				return fmt.Errorf("marshal %s: %w", name, err)
			}
			update = update.Set(expression.Name(name), expression.Value(val))
		}
		builder = builder.WithUpdate(update)
		parts++
	}
	if in.Condition != nil {
		cond, err := condition.Expression(*in.Condition)
		if err != nil {
			return err
		}
		builder = builder.WithCondition(cond)
		parts++
	}
	if parts > 0 {
		expr, err := builder.Build()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		input.UpdateExpression = expr.Update()
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	_, err = d.client.UpdateItem(ctx, input)
	return mapWriteError(err)
}

// DeleteItem removes a single item, returning ErrConditionFailed if in.Condition fails.
func (d *Dynamo) DeleteItem(ctx context.Context, in DeleteInput) error {
	key, err := marshalItem(in.Schema, in.Key)
	if err != nil {
		return fmt.Errorf("marshal key: %w", err)
	}

	input := &dynamodb.DeleteItemInput{
		TableName:    aws.String(in.Table),
		Key:          key,
		ReturnValues: types.ReturnValueNone,
	}
	if in.Condition != nil {
		cond, err := condition.Expression(*in.Condition)
		if err != nil {
			return err
		}
		expr, err := expression.NewBuilder().WithCondition(cond).Build()
		if err != nil {
			return fmt.Errorf("build condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	_, err = d.client.DeleteItem(ctx, input)
	return mapWriteError(err)
}

// Query reads items matching in.KeyConditions. With a positive Limit a single page
// is read and its LastEvaluatedKey reported; with Limit 0 every page is followed.
func (d *Dynamo) Query(ctx context.Context, in QueryInput) (*QueryOutput, error) {
	keyCond, err := keyCondition(in.KeyConditions)
	if err != nil {
		return nil, err
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if proj, ok := projection(in.Projection); ok {
		builder = builder.WithProjection(proj)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(in.Table),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(in.ScanIndexForward),
	}
	if in.IndexName != "" {
		input.IndexName = aws.String(in.IndexName)
	}
	if in.ExclusiveStartKey != nil {
		start, err := startKey(in.Schema, in.ExclusiveStartKey)
		if err != nil {
			return nil, fmt.Errorf("marshal start key: %w", err)
		}
		input.ExclusiveStartKey = start
	}

	if in.Limit > 0 {
		input.Limit = aws.Int32(in.Limit)
		result, err := d.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		out := &QueryOutput{}
		if out.Items, err = unmarshalItems(result.Items); err != nil {
			return nil, err
		}
		if len(result.LastEvaluatedKey) > 0 {
			if out.LastEvaluatedKey, err = unmarshalItem(result.LastEvaluatedKey); err != nil {
				return nil, err
			}
		}
		return out, nil
	}

	// Paginate through all results
	out := &QueryOutput{}
	paginator := dynamodb.NewQueryPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		items, err := unmarshalItems(page.Items)
		if err != nil {
			return nil, err
		}
		out.Items = append(out.Items, items...)
	}
	return out, nil
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	return err
}

// startKey marshals a start key that may have round-tripped through a JSON
// cursor, where binary values arrive as base64 strings.
func startKey(s schema.Schema, key Item) (map[string]types.AttributeValue, error) {
	restored := make(Item, len(key))
	for name, v := range key {
		if str, ok := v.(string); ok && s[name].Type == schema.Binary {
			b, err := base64.StdEncoding.DecodeString(str)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			v = b
		}
		restored[name] = v
	}
	return marshalItem(s, restored)
}

func projection(names []string) (expression.ProjectionBuilder, bool) {
	if len(names) == 0 {
		return expression.ProjectionBuilder{}, false
	}
	rest := make([]expression.NameBuilder, 0, len(names)-1)
	for _, name := range names[1:] {
		rest = append(rest, expression.Name(name))
	}
	return expression.NamesList(expression.Name(names[0]), rest...), true
}

func keyCondition(keys Item) (expression.KeyConditionBuilder, error) {
	if len(keys) == 0 {
		return expression.KeyConditionBuilder{}, errors.New("query requires at least one key condition")
	}
	names := sortedKeys(keys)
	cond := expression.Key(names[0]).Equal(expression.Value(keys[names[0]]))
	for _, name := range names[1:] {
		cond = cond.And(expression.Key(name).Equal(expression.Value(keys[name])))
	}
	return cond, nil
}

func marshalItem(s schema.Schema, item Item) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(item))
	for name, v := range item {
		val, err := attributeValue(s, name, v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		av, err := attributevalue.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = av
	}
	return out, nil
}

func unmarshalItem(raw map[string]types.AttributeValue) (Item, error) {
	var item Item
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return item, nil
}

func unmarshalItems(raw []map[string]types.AttributeValue) ([]Item, error) {
	items := make([]Item, 0, len(raw))
	for _, r := range raw {
		item, err := unmarshalItem(r)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// rawValue passes a prebuilt attribute value through attributevalue.Marshal.
type rawValue struct {
	av types.AttributeValue
}

func (r rawValue) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return r.av, nil
}

// attributeValue converts v for storage in the named attribute. Set attributes
// become typed DynamoDB sets; everything else marshals as is.
func attributeValue(s schema.Schema, name string, v any) (any, error) {
	attr, ok := s[name]
	if !ok || attr.Type != schema.Set || attr.MemberType == nil {
		return v, nil
	}
	av, err := toSet(*attr.MemberType, v)
	if err != nil {
		return nil, err
	}
	return rawValue{av: av}, nil
}

func toSet(member schema.Attribute, v any) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return nil, err
	}
	list, ok := av.(*types.AttributeValueMemberL)
	if !ok {
		return av, nil
	}
	if len(list.Value) == 0 {
		// DynamoDB rejects empty sets.
		return &types.AttributeValueMemberNULL{Value: true}, nil
	}

	switch member.Type {
	case schema.String:
		ss := make([]string, 0, len(list.Value))
		for _, e := range list.Value {
			s, ok := e.(*types.AttributeValueMemberS)
			if !ok {
				return nil, fmt.Errorf("string set member of type %T", e)
			}
			ss = append(ss, s.Value)
		}
		return &types.AttributeValueMemberSS{Value: ss}, nil
	case schema.Number:
		ns := make([]string, 0, len(list.Value))
		for _, e := range list.Value {
			n, ok := e.(*types.AttributeValueMemberN)
			if !ok {
				return nil, fmt.Errorf("number set member of type %T", e)
			}
			ns = append(ns, n.Value)
		}
		return &types.AttributeValueMemberNS{Value: ns}, nil
	case schema.Binary:
		bs := make([][]byte, 0, len(list.Value))
		for _, e := range list.Value {
			b, ok := e.(*types.AttributeValueMemberB)
			if !ok {
				return nil, fmt.Errorf("binary set member of type %T", e)
			}
			bs = append(bs, b.Value)
		}
		return &types.AttributeValueMemberBS{Value: bs}, nil
	}
	return av, nil
}

func sortedKeys(item Item) []string {
	keys := make([]string, 0, len(item))
	for k := range item {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
