// Package storeopen builds the configured contract store.
package storeopen

import (
	"context"

	"github.com/matzehuels/lovecontract/internal/config"
	"github.com/matzehuels/lovecontract/pkg/errors"
	"github.com/matzehuels/lovecontract/pkg/store"
	"github.com/matzehuels/lovecontract/pkg/store/file"
	"github.com/matzehuels/lovecontract/pkg/store/memory"
	"github.com/matzehuels/lovecontract/pkg/store/mongo"
	"github.com/matzehuels/lovecontract/pkg/store/postgres"
	"github.com/matzehuels/lovecontract/pkg/store/redis"
	"github.com/matzehuels/lovecontract/pkg/store/sqlite"
)

// Open connects the backend named by cfg.Driver and decorates it with
// retries and observability hooks. The caller owns the returned store and
// must Close it.
func Open(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open %s store", cfg.Driver)
	}

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = store.DefaultRetryAttempts
	}
	return store.WithHooks(store.WithRetry(backend, attempts, cfg.RetryDelay)), nil
}

func openBackend(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverFile:
		return file.New(cfg.Path)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.Path)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.URL)
	case config.DriverRedis:
		return redis.Open(ctx, cfg.URL)
	case config.DriverMongo:
		return mongo.Open(ctx, cfg.URL, cfg.Database)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown store driver %q", cfg.Driver)
	}
}
