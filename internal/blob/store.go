// Package blob persists whole serialized documents under string keys.
package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/S4DIB/startup-world-cup/internal/config"
	"github.com/S4DIB/startup-world-cup/internal/redis"
	"github.com/S4DIB/startup-world-cup/internal/storage"
)

// ErrNotFound is returned by Get when nothing is stored under the key.
var ErrNotFound = errors.New("blob: not found")

// Store reads and rewrites one blob per key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Open builds the backend named by cfg.Storage.Backend. The returned close
// func releases any connection held by the backend.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)) {
	case "", "file":
		store, err := NewFileStore(cfg.BasicConfig.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case "sql":
		db, err := storage.Open(cfg.Storage.Database, cfg)
		if err != nil {
			return nil, nil, err
		}
		store, err := NewSQLStore(db, cfg.Storage.Database)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil
	case "redis":
		client, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(client, cfg.Storage.KeyPrefix), client.Close, nil
	case "object":
		store, err := NewObjectStore(ctx, cfg.ObjectStore)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}
