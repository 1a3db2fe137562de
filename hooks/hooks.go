// Package hooks provides lifecycle callbacks for models.
package hooks

import (
	"context"
	"errors"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/rs/zerolog"

	"github.com/jacentio/dyalchemy/model"
)

// MetricAction is the counter incremented by Statsd for every event.
const MetricAction = "dyalchemy.action"

// Log returns a callback that logs every event at debug level.
func Log(logger zerolog.Logger) model.Callback {
	return func(_ context.Context, event model.Event) error {
		logger.Debug().
			Str("id", event.ID).
			Str("model", event.ModelName).
			Str("table", event.TableName).
			Str("action", string(event.ActionType)).
			Msg("lifecycle event")
		return nil
	}
}

// Statsd returns a callback that counts events, tagged by model, table and action.
func Statsd(client statsd.ClientInterface) model.Callback {
	return func(_ context.Context, event model.Event) error {
		tags := []string{
			"model:" + event.ModelName,
			"table:" + event.TableName,
			"action:" + string(event.ActionType),
		}
		return client.Incr(MetricAction, tags, 1)
	}
}

// Chain runs callbacks in order. Every callback runs; their errors are joined.
// Nil callbacks are skipped.
func Chain(callbacks ...model.Callback) model.Callback {
	return func(ctx context.Context, event model.Event) error {
		var errs []error
		for _, cb := range callbacks {
			if cb == nil {
				continue
			}
			if err := cb(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
