// Package dyalchemy wires configured models, their item store and a lock
// manager into a single Client.
//
// Most programs call Open with a configuration loaded by config.Load:
//
//	cfg, err := config.Load("dyalchemy.yaml")
//	...
//	client, err := dyalchemy.Open(ctx, cfg)
//	...
//	defer client.Close()
//
//	movies, err := client.Model("movies")
//	record, err := movies.Get(ctx, model.GetInput{Identity: model.ByID("tt0113277")})
package dyalchemy

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/DataDog/datadog-go/v5/statsd"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jacentio/dyalchemy/config"
	"github.com/jacentio/dyalchemy/hooks"
	"github.com/jacentio/dyalchemy/lock"
	"github.com/jacentio/dyalchemy/model"
	"github.com/jacentio/dyalchemy/store"
	"github.com/jacentio/dyalchemy/stream"
)

// Errors returned by model operations, re-exported for callers that only
// import this package.
var (
	ErrConfiguration               = model.ErrConfiguration
	ErrItemNotFound                = model.ErrItemNotFound
	ErrItemExists                  = model.ErrItemExists
	ErrInvalidPrimaryKeyUsage      = model.ErrInvalidPrimaryKeyUsage
	ErrMustProvideIDXorPrimaryKeys = model.ErrMustProvideIDXorPrimaryKeys
	ErrIncompletePrimaryKey        = model.ErrIncompletePrimaryKey
	ErrCannotUpdatePrimaryKeys     = model.ErrCannotUpdatePrimaryKeys
	ErrLockHeld                    = lock.ErrLockHeld
	ErrLockLost                    = lock.ErrLockLost
)

// Client holds the registered models and the lock manager.
type Client struct {
	models  *model.Registry
	locks   *lock.Manager
	logger  zerolog.Logger
	closers []func() error
}

// New registers every model in cfg against st and creates a lock manager on
// backend. Every model reports to the given callbacks, in order.
func New(st store.ItemStore, backend lock.Backend, cfg *config.Config, logger zerolog.Logger, callbacks ...model.Callback) (*Client, error) {
	lockConfig, err := cfg.Lock.ManagerConfig()
	if err != nil {
		return nil, err
	}

	var callback model.Callback
	if len(callbacks) > 0 {
		callback = hooks.Chain(callbacks...)
	}

	registry := model.NewRegistry()
	for _, mc := range cfg.Models {
		m, err := model.New(st, model.Config{
			ModelName:   mc.Name,
			TableName:   mc.Table,
			Schema:      mc.Schema,
			PrimaryKeys: mc.PrimaryKeys,
			Callback:    callback,
			Logger:      &logger,
		})
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", mc.Name, err)
		}
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}

	return &Client{
		models: registry,
		locks:  lock.NewManager(backend, lockConfig, logger),
		logger: logger,
	}, nil
}

// Open builds a Client backed by DynamoDB. The lock backend, lifecycle metrics
// and logging follow cfg. Close releases the connections Open creates.
func Open(ctx context.Context, cfg *config.Config) (*Client, error) {
	logger := cfg.Logging.Logger(os.Stderr)

	ddb, err := config.NewDynamoDBClient(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	var closers []func() error

	var backend lock.Backend
	switch cfg.Lock.Backend {
	case config.BackendDynamoDB:
		b := lock.NewDynamoBackend(ddb, cfg.Lock.Table)
		if cfg.Lock.PartitionKey != "" {
			b = b.WithPartitionKey(cfg.Lock.PartitionKey)
		}
		backend = b
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Lock.RedisAddr})
		closers = append(closers, rdb.Close)
		backend = lock.NewRedisBackend(rdb, cfg.Lock.RedisPrefix)
	default:
		backend = lock.NewMemoryBackend()
	}

	callbacks := []model.Callback{hooks.Log(logger)}
	if cfg.Metrics.Enabled {
		sd, err := statsd.New(cfg.Metrics.Addr, statsd.WithNamespace(cfg.Metrics.Namespace))
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("connect statsd: %w", err)
		}
		closers = append(closers, sd.Close)
		callbacks = append(callbacks, hooks.Statsd(sd))
	}

	client, err := New(store.NewDynamo(ddb), backend, cfg, logger, callbacks...)
	if err != nil {
		closeAll(closers)
		return nil, err
	}
	client.closers = closers

	logger.Info().
		Strs("models", client.models.Names()).
		Str("lockBackend", cfg.Lock.Backend).
		Msg("dyalchemy client ready")
	return client, nil
}

// Model returns the named model.
func (c *Client) Model(name string) (*model.Model, error) {
	m, ok := c.models.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %q", ErrConfiguration, name)
	}
	return m, nil
}

// Models returns the model registry.
func (c *Client) Models() *model.Registry {
	return c.models
}

// Locks returns the lock manager.
func (c *Client) Locks() *lock.Manager {
	return c.locks
}

// Lock acquires the named lock. See lock.Manager.Lock.
func (c *Client) Lock(ctx context.Context, name string) (*lock.Lock, error) {
	return c.locks.Lock(ctx, name)
}

// StreamRelay returns a Lambda handler reporting stream records of the
// registered models' tables to their callbacks.
func (c *Client) StreamRelay() *stream.Relay {
	return stream.NewRelay(c.models, c.logger)
}

// Close releases connections opened by Open.
func (c *Client) Close() error {
	return closeAll(c.closers)
}

func closeAll(closers []func() error) error {
	var errs []error
	for _, fn := range closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
