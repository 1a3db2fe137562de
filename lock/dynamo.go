package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// DynamoDBAPI is the subset of *dynamodb.Client used by DynamoBackend.
type DynamoDBAPI interface {
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Lock table attributes.
const (
	attrOwner     = "owner"
	attrVersion   = "recordVersionNumber"
	attrExpiresAt = "leaseExpiresAt"
	attrFence     = "fencingToken"
)

// DynamoBackend stores one item per lock in a DynamoDB table whose partition key
// is a string attribute. Released locks keep their item so fencing tokens keep
// increasing.
type DynamoBackend struct {
	client       DynamoDBAPI
	table        string
	partitionKey string
	now          func() time.Time
}

// NewDynamoBackend creates a backend for table, keyed by the "id" attribute.
func NewDynamoBackend(client DynamoDBAPI, table string) *DynamoBackend {
	return &DynamoBackend{
		client:       client,
		table:        table,
		partitionKey: "id",
		now:          time.Now,
	}
}

// WithPartitionKey returns a copy of b using attr as the partition key.
func (b *DynamoBackend) WithPartitionKey(attr string) *DynamoBackend {
	c := *b
	c.partitionKey = attr
	return &c
}

type lockRecord struct {
	Owner     string `dynamodbav:"owner"`
	Version   string `dynamodbav:"recordVersionNumber"`
	ExpiresAt int64  `dynamodbav:"leaseExpiresAt"`
	Fence     int64  `dynamodbav:"fencingToken"`
}

func (b *DynamoBackend) Acquire(ctx context.Context, name, owner string, lease time.Duration) (Lease, error) {
	now := b.now()
	token := uuid.NewString()
	expires := now.Add(lease)

	update := expression.
		Set(expression.Name(attrOwner), expression.Value(owner)).
		Set(expression.Name(attrVersion), expression.Value(token)).
		Set(expression.Name(attrExpiresAt), expression.Value(expires.UnixMilli())).
		Add(expression.Name(attrFence), expression.Value(1))
	free := expression.AttributeNotExists(expression.Name(b.partitionKey)).
		Or(expression.Name(attrExpiresAt).LessThan(expression.Value(now.UnixMilli())))

	rec, err := b.update(ctx, name, update, free)
	if err != nil {
		if errors.Is(err, errConditionFailed) {
			return Lease{}, ErrLockHeld
		}
		return Lease{}, err
	}
	return b.lease(name, rec), nil
}

func (b *DynamoBackend) Renew(ctx context.Context, l Lease, lease time.Duration) (Lease, error) {
	token := uuid.NewString()
	expires := b.now().Add(lease)

	update := expression.
		Set(expression.Name(attrVersion), expression.Value(token)).
		Set(expression.Name(attrExpiresAt), expression.Value(expires.UnixMilli()))

	rec, err := b.update(ctx, l.Name, update, b.current(l))
	if err != nil {
		if errors.Is(err, errConditionFailed) {
			return Lease{}, ErrLockLost
		}
		return Lease{}, err
	}
	return b.lease(l.Name, rec), nil
}

func (b *DynamoBackend) Release(ctx context.Context, l Lease) error {
	update := expression.
		Set(expression.Name(attrExpiresAt), expression.Value(0)).
		Remove(expression.Name(attrOwner)).
		Remove(expression.Name(attrVersion))

	_, err := b.update(ctx, l.Name, update, b.current(l))
	if errors.Is(err, errConditionFailed) {
		return ErrLockLost
	}
	return err
}

var errConditionFailed = errors.New("lock condition failed")

// current matches the lock item only while it still records l.
func (b *DynamoBackend) current(l Lease) expression.ConditionBuilder {
	return expression.Name(attrVersion).Equal(expression.Value(l.Token)).
		And(expression.Name(attrOwner).Equal(expression.Value(l.Owner)))
}

func (b *DynamoBackend) update(ctx context.Context, name string, update expression.UpdateBuilder, cond expression.ConditionBuilder) (lockRecord, error) {
	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return lockRecord{}, fmt.Errorf("build lock expression: %w", err)
	}

	out, err := b.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(b.table),
		Key: map[string]types.AttributeValue{
			b.partitionKey: &types.AttributeValueMemberS{Value: name},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return lockRecord{}, errConditionFailed
		}
		return lockRecord{}, err
	}

	var rec lockRecord
	if err := attributevalue.UnmarshalMap(out.Attributes, &rec); err != nil {
		return lockRecord{}, fmt.Errorf("unmarshal lock record: %w", err)
	}
	return rec, nil
}

func (b *DynamoBackend) lease(name string, rec lockRecord) Lease {
	return Lease{
		Name:         name,
		Owner:        rec.Owner,
		Token:        rec.Version,
		FencingToken: rec.Fence,
		ExpiresAt:    time.UnixMilli(rec.ExpiresAt),
	}
}
