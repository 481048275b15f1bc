package utils

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cppla/blogapi/config"
)

// NewRedis returns a Redis client for the configured host, or nil when
// Redis is not configured. A failed ping is logged, not fatal: callers
// fall back to their in-process paths.
func NewRedis(cfg config.AppConfig, logger *zap.Logger) *redis.Client {
	if !cfg.RedisEnabled() {
		return nil
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed", zap.String("addr", rc.Options().Addr), zap.Error(err))
	}
	return rc
}
