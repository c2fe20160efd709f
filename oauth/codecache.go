package oauth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCodeCache keeps used codes under codecache:<code> for TTL
type RedisCodeCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func (c RedisCodeCache) Claim(ctx context.Context, code string) (bool, error) {
	return c.Redis.SetNX(ctx, "codecache:"+code, "0", c.TTL).Result()
}
