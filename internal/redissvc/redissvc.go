package redissvc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisService struct {
	rdb *redis.Client
	ctx context.Context
}

func NewRedisService(rdb *redis.Client, ctx context.Context) *RedisService {
	return &RedisService{
		rdb: rdb,
		ctx: ctx,
	}
}

func (a *RedisService) Rdb() *redis.Client {
	return a.rdb
}

func (a *RedisService) Ctx() context.Context {
	return a.ctx
}

// GetCached returns a cached payload and whether it was present.
func (a *RedisService) GetCached(key string) ([]byte, bool) {
	data, err := a.rdb.Get(a.ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetCached stores a payload with a TTL. Failures are ignored: the cache is
// an optimization, not a source of truth.
func (a *RedisService) SetCached(key string, payload []byte, ttl time.Duration) {
	_ = a.rdb.Set(a.ctx, key, payload, ttl).Err()
}

// Invalidate drops a cached key.
func (a *RedisService) Invalidate(key string) {
	_ = a.rdb.Del(a.ctx, key).Err()
}
