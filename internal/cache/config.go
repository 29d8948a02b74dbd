package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config selects the backing tier.
type Config struct {
	Backend    string        `envconfig:"CACHE_BACKEND" default:"file"`
	Dir        string        `envconfig:"CACHE_DIR" default:"cache"`
	SQLitePath string        `envconfig:"CACHE_SQLITE_PATH" default:"cache/cache.db"`
	TTL        time.Duration `envconfig:"CACHE_TTL" default:"1h"`
}

// Open builds a Cache for cfg. rdb is required only for the redis backend.
func Open(ctx context.Context, cfg Config, rdb redis.Cmdable) (*Cache, error) {
	var store Store
	switch strings.ToLower(cfg.Backend) {
	case "", "file":
		fs, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		store = fs
	case "sqlite":
		ss, err := NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = ss
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("cache backend redis requires REDIS_URL")
		}
		store = NewRedisStore(rdb, cfg.TTL)
	case "memory":
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
	return New(store, cfg.TTL), nil
}
