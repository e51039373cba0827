package database

import (
	"context"
	"fmt"
	"time"

	"reading-effort/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// NewRedis returns a client for the result cache. Cache calls sit on the
// request path, so timeouts are short and a miss is cheaper than a wait.
func NewRedis(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
		MaxRetries:   1,
		PoolSize:     10,
		MinIdleConns: 1,
	})
}

func PingRedis(ctx context.Context, rdb redis.UniversalClient) error {
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
