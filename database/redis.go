// file: database/redis.go
package database

import (
	"DaliCTF/config"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedis 连接 Redis。未启用时返回 nil
func NewRedis(cfg config.RedisConfig, log *slog.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		log.Info("redis disabled, response caching is off")
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	log.Info("redis connection established", "addr", cfg.Addr)
	return rdb, nil
}
