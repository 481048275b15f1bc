package utils

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultCacheTTL = time.Minute

// Cache is a small Redis byte cache. A Cache with a nil client is a
// no-op that always misses, so callers never branch on Redis availability.
type Cache struct {
	rc     *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCache creates a Cache whose entries live for ttl.
func NewCache(rc *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{rc: rc, ttl: ttl, logger: logger}
}

// Enabled reports whether the cache is backed by Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.rc != nil
}

// GetBytes returns cached bytes for a key.
func (c *Cache) GetBytes(ctx context.Context, key string) ([]byte, bool) {
	if !c.Enabled() {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		c.logger.Debug("cache get miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return b, true
}

// SetBytes stores bytes with the cache TTL.
func (c *Cache) SetBytes(ctx context.Context, key string, b []byte) {
	if !c.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// SetJSON marshals v and stores the JSON bytes.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) {
	if !c.Enabled() {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.SetBytes(ctx, key, b)
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func (c *Cache) InvalidateByPrefix(ctx context.Context, prefix string) {
	if !c.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // bounded rounds
		keys, cur, err := c.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			c.logger.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
			return
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := c.rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			return
		}
	}
}
