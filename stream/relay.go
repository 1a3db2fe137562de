// Package stream relays DynamoDB Streams records to model callbacks.
//
// Writes made outside a model (other services, the console, TTL expiry) never
// reach its Callback. A Relay deployed as a Lambda handler on the table's stream
// reports them as stream:insert, stream:modify and stream:remove events.
package stream

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog"

	"github.com/jacentio/dyalchemy/model"
)

// ErrInvalidEventSource is returned for records whose source ARN names no table.
var ErrInvalidEventSource = errors.New("dyalchemy: invalid stream event source")

// Relay notifies the models registered for a record's table.
type Relay struct {
	registry *model.Registry
	logger   zerolog.Logger
}

// NewRelay creates a Relay for the models in registry.
func NewRelay(registry *model.Registry, logger zerolog.Logger) *Relay {
	return &Relay{
		registry: registry,
		logger:   logger,
	}
}

// Handle processes a batch of stream records. It is designed to be used as an
// AWS Lambda handler. A record with a malformed source ARN fails the batch so
// Lambda retries it and eventually sends it to the DLQ.
func (r *Relay) Handle(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := r.processRecord(ctx, record); err != nil {
			r.logger.Error().Err(err).
				Str("eventID", record.EventID).
				Msg("failed to process record")
			return err
		}
	}
	return nil
}

func (r *Relay) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	action, ok := actionFor(record.EventName)
	if !ok {
		r.logger.Warn().
			Str("eventID", record.EventID).
			Str("eventName", record.EventName).
			Msg("skipping unknown stream event")
		return nil
	}

	table, err := TableName(record.EventSourceArn)
	if err != nil {
		return err
	}

	models := r.registry.ByTable(table)
	if len(models) == 0 {
		r.logger.Debug().Str("table", table).Msg("no model registered for table")
		return nil
	}

	for _, m := range models {
		id := identifier(record.Change, m.IDAttribute())
		if id == "" {
			r.logger.Warn().
				Str("eventID", record.EventID).
				Str("model", m.Name()).
				Msg("stream record has no identifier")
			continue
		}
		m.Notify(ctx, id, action)
	}
	return nil
}

// TableName extracts the table name from a stream ARN of the form
// arn:aws:dynamodb:<region>:<account>:table/<name>/stream/<label>.
func TableName(arn string) (string, error) {
	_, resource, ok := strings.Cut(arn, ":table/")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventSource, arn)
	}
	name, _, _ := strings.Cut(resource, "/")
	if name == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEventSource, arn)
	}
	return name, nil
}

func actionFor(eventName string) (model.ActionType, bool) {
	switch events.DynamoDBOperationType(eventName) {
	case events.DynamoDBOperationTypeInsert:
		return model.ActionStreamInsert, true
	case events.DynamoDBOperationTypeModify:
		return model.ActionStreamModify, true
	case events.DynamoDBOperationTypeRemove:
		return model.ActionStreamRemove, true
	}
	return "", false
}

// identifier reads attr from the record keys, falling back to the new and
// then the old image.
func identifier(change events.DynamoDBStreamRecord, attr string) string {
	for _, image := range []map[string]events.DynamoDBAttributeValue{change.Keys, change.NewImage, change.OldImage} {
		if id := scalarAttr(image, attr); id != "" {
			return id
		}
	}
	return ""
}

// scalarAttr renders a string, number or binary attribute as a string.
// Binary values are base64 encoded.
func scalarAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	v, ok := image[key]
	if !ok {
		return ""
	}
	switch v.DataType() {
	case events.DataTypeString:
		return v.String()
	case events.DataTypeNumber:
		return v.Number()
	case events.DataTypeBinary:
		return base64.StdEncoding.EncodeToString(v.Binary())
	}
	return ""
}
