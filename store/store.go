// Package store persists the user id -> access token mapping collected by the
// OAuth2 callback.
package store

import (
	"context"
	"errors"
	"fmt"

	"guildpass/config"
	"guildpass/migrations"
	"guildpass/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("store: user not found")

// Store is the only way callers touch authorized users. Upsert is last write wins
// and nothing is ever deleted.
type Store interface {
	Get(ctx context.Context, userID string) (string, error)
	Upsert(ctx context.Context, userID, accessToken string) error
	All(ctx context.Context) ([]types.AuthorizedUser, error)
	Close() error
}

// Open returns the backend selected by cfg.Backend. The redis client is shared
// with the rest of the process and is not closed by the store.
func Open(ctx context.Context, cfg config.Storage, rdb *redis.Client, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFileStore(cfg.UserFile, logger), nil
	case config.BackendRedis:
		if rdb == nil {
			return nil, errors.New("store: redis backend selected but no redis client configured")
		}
		return NewRedisStore(rdb, cfg.RedisKey), nil
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)

		if err != nil {
			return nil, fmt.Errorf("store: connect postgres: %w", err)
		}

		if err := migrations.Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("store: migrate: %w", err)
		}

		pg := NewPostgresStore(pool)

		if cfg.ImportFile != "" {
			empty, err := migrations.TableEmpty(ctx, pool, "authorized_users")

			if err != nil {
				pool.Close()
				return nil, err
			}

			if empty {
				n, err := Copy(ctx, pg, NewFileStore(cfg.ImportFile, logger))

				if err != nil {
					pool.Close()
					return nil, fmt.Errorf("store: import %s: %w", cfg.ImportFile, err)
				}

				logger.Info("Imported legacy user file", zap.String("path", cfg.ImportFile), zap.Int("users", n))
			}
		}

		return pg, nil
	}

	return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
}

// Copy upserts every user of src into dst and returns how many were copied
func Copy(ctx context.Context, dst, src Store) (int, error) {
	users, err := src.All(ctx)

	if err != nil {
		return 0, err
	}

	for i, u := range users {
		if err := dst.Upsert(ctx, u.UserID, u.AccessToken); err != nil {
			return i, err
		}
	}

	return len(users), nil
}
