// Package cache is a two-tier get/set cache keyed by request fingerprint: an
// in-process map in front of an optional backing Store (files, SQLite or Redis).
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	errx "github.com/nba-agent/server/internal/core/error"
	logx "github.com/nba-agent/server/pkg/logger"
)

// Store is a backing tier. Keys passed to a Store are already fingerprinted.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

type envelope struct {
	StoredAt time.Time       `json:"stored_at"`
	Data     json.RawMessage `json:"data"`
}

// Cache is safe for concurrent use.
type Cache struct {
	mu     sync.RWMutex
	memory map[string][]byte
	store  Store
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New builds a cache over store. store may be nil for a memory-only cache.
// ttl <= 0 disables expiry.
func New(store Store, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		memory: make(map[string][]byte),
		store:  store,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fingerprint returns the lower-case hex MD5 of key.
func Fingerprint(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Get decodes the cached value for key into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	fp := Fingerprint(key)

	c.mu.RLock()
	raw, ok := c.memory[fp]
	c.mu.RUnlock()

	if !ok && c.store != nil {
		b, found, err := c.store.Get(ctx, fp)
		if err != nil {
			logx.Warn().Err(err).Str("key", key).Msg("cache store read failed")
			return false, nil
		}
		if found {
			raw, ok = b, true
		}
	}
	if !ok {
		return false, nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("discarding corrupt cache entry")
		c.forget(fp)
		return false, nil
	}
	if c.expired(env.StoredAt) {
		c.forget(fp)
		return false, nil
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("cached value does not match destination")
		return false, nil
	}

	c.mu.Lock()
	c.memory[fp] = raw
	c.mu.Unlock()

	logx.Debug().Str("key", key).Msg("cache hit")
	return true, nil
}

// Set stores v under key in the backing store and in memory.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	raw, err := json.Marshal(envelope{StoredAt: c.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("marshal cache envelope: %w", err)
	}

	fp := Fingerprint(key)
	if c.store != nil {
		if err := c.store.Set(ctx, fp, raw); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("cache store write failed")
			return errx.WrapCache(err)
		}
	}

	c.mu.Lock()
	c.memory[fp] = raw
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries held in memory.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.memory)
}

// Close closes the backing store.
func (c *Cache) Close() error {
	if c.store == nil {
		return nil
	}
	return c.store.Close()
}

func (c *Cache) expired(storedAt time.Time) bool {
	return c.ttl > 0 && c.now().Sub(storedAt) > c.ttl
}

func (c *Cache) forget(fp string) {
	c.mu.Lock()
	delete(c.memory, fp)
	c.mu.Unlock()
}
