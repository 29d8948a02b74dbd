package cache

import (
	"context"
	"errors"
	"time"

	errx "github.com/nba-agent/server/internal/core/error"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps entries as plain string keys and lets Redis expire them.
type RedisStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) cacheKey(key string) string {
	return "nbacache:" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, s.cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errx.WrapRedis(err)
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	ttl := s.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := s.rdb.Set(ctx, s.cacheKey(key), value, ttl).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

// Close is a no-op; the client is owned by the caller.
func (s *RedisStore) Close() error { return nil }

var _ Store = (*RedisStore)(nil)
