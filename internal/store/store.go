// Package store is the key-value persistence behind scan history and the
// saved session.
package store

import (
	"context"
	"fmt"

	"blitzscan/pkg/errors"
)

const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Store keeps opaque values under string keys. Get returns
// errors.ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Driver string
	Path   string
	Redis  RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// New opens the store selected by cfg.Driver. An empty driver means file.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", DriverFile:
		return NewFileStore(cfg.Path)
	case DriverRedis:
		return NewRedisStore(ctx, cfg.Redis)
	case DriverMemory:
		return NewMemoryStore(), nil
	}
	return nil, errors.NewConfigError("storage.driver", cfg.Driver, fmt.Sprintf("must be one of %s, %s, %s", DriverFile, DriverRedis, DriverMemory))
}
