package store

import (
	"context"
	"errors"

	"guildpass/types"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slices"
)

// RedisStore keeps users in a single hash: field = user id, value = token
type RedisStore struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(rdb *redis.Client, key string) *RedisStore {
	return &RedisStore{rdb: rdb, key: key}
}

func (r *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	token, err := r.rdb.HGet(ctx, r.key, userID).Result()

	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}

	return token, err
}

func (r *RedisStore) Upsert(ctx context.Context, userID, accessToken string) error {
	return r.rdb.HSet(ctx, r.key, userID, accessToken).Err()
}

// All returns users sorted by id, redis hashes have no stable order
func (r *RedisStore) All(ctx context.Context) ([]types.AuthorizedUser, error) {
	m, err := r.rdb.HGetAll(ctx, r.key).Result()

	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	users := make([]types.AuthorizedUser, 0, len(ids))
	for _, id := range ids {
		users = append(users, types.AuthorizedUser{UserID: id, AccessToken: m[id]})
	}

	return users, nil
}

func (r *RedisStore) Close() error {
	return nil
}
