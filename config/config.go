// Package config loads dyalchemy configuration from YAML.
//
// A configuration file declares the AWS connection, logging, metrics, the lock
// manager and the models to register:
//
//	aws:
//	  region: us-east-1
//	  endpoint: http://localhost:8000
//	logging:
//	  level: debug
//	  format: console
//	lock:
//	  backend: dynamodb
//	  table: dy-alchemy-locks
//	  leaseDuration: 10s
//	models:
//	  - name: movies
//	    table: dy-alchemy-table
//	    primaryKeys: [title, year]
//	    schema:
//	      id: {type: String, keyType: HASH}
//	      title: {type: String}
//	      year: {type: Number}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/dyalchemy/internal/logging"
	"github.com/jacentio/dyalchemy/lock"
	"github.com/jacentio/dyalchemy/schema"
)

// ErrInvalidConfig is returned when a configuration cannot be parsed or fails validation.
var ErrInvalidConfig = errors.New("dyalchemy: invalid configuration")

// Lock backends.
const (
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config is the root of a configuration file.
type Config struct {
	AWS     AWSConfig     `yaml:"aws"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Lock    LockConfig    `yaml:"lock"`
	Models  []ModelConfig `yaml:"models" validate:"dive"`
}

// AWSConfig selects the AWS account and endpoint. Empty values fall back to
// the SDK's default resolution chain.
type AWSConfig struct {
	Region   string `yaml:"region"`
	Profile  string `yaml:"profile"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// Logger builds a logger writing to w.
func (c LoggingConfig) Logger(w io.Writer) zerolog.Logger {
	return logging.New(c.Level, c.Format, w)
}

// MetricsConfig configures the DogStatsD lifecycle hook.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace"`
}

// LockConfig configures the lock manager. Durations use time.ParseDuration
// syntax; empty values take the lock package defaults.
type LockConfig struct {
	Backend         string `yaml:"backend" validate:"omitempty,oneof=dynamodb redis memory"`
	Table           string `yaml:"table" validate:"required_if=Backend dynamodb"`
	PartitionKey    string `yaml:"partitionKey"`
	RedisAddr       string `yaml:"redisAddr" validate:"required_if=Backend redis"`
	RedisPrefix     string `yaml:"redisPrefix"`
	Owner           string `yaml:"owner"`
	LeaseDuration   string `yaml:"leaseDuration"`
	HeartbeatPeriod string `yaml:"heartbeatPeriod"`
	RetryInterval   string `yaml:"retryInterval"`
	Retries         int    `yaml:"retries" validate:"gte=0"`
}

// ManagerConfig converts c into a lock.Config.
func (c LockConfig) ManagerConfig() (lock.Config, error) {
	cfg := lock.Config{
		Owner:   c.Owner,
		Retries: c.Retries,
	}

	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"leaseDuration", c.LeaseDuration, &cfg.LeaseDuration},
		{"heartbeatPeriod", c.HeartbeatPeriod, &cfg.HeartbeatPeriod},
		{"retryInterval", c.RetryInterval, &cfg.RetryInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			continue
		}
		v, err := time.ParseDuration(d.value)
		if err != nil {
			return lock.Config{}, fmt.Errorf("%w: lock %s: %v", ErrInvalidConfig, d.name, err)
		}
		if v <= 0 {
			return lock.Config{}, fmt.Errorf("%w: lock %s must be positive", ErrInvalidConfig, d.name)
		}
		*d.dst = v
	}
	return cfg, nil
}

// ModelConfig declares a model to register.
type ModelConfig struct {
	Name        string        `yaml:"name" validate:"required"`
	Table       string        `yaml:"table" validate:"required"`
	Schema      schema.Schema `yaml:"schema" validate:"required"`
	PrimaryKeys []string      `yaml:"primaryKeys" validate:"dive,required"`
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML configuration. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := NewValidator().Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
