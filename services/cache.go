// file: services/cache.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ScoreboardKeyPrefix    = "scoreboard:"
	ChallengeListKeyPrefix = "challenges:"
)

// CacheInvalidator 排行榜与题目列表缓存失效
type CacheInvalidator interface {
	InvalidateScoreboard(ctx context.Context) error
	InvalidateChallengeList(ctx context.Context) error
}

// ResponseCache 接口响应缓存；未命中返回 found=false
type ResponseCache interface {
	CacheInvalidator
	GetJSON(ctx context.Context, key string, dst interface{}) (found bool, err error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

// RedisCache 基于 Redis 的缓存
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) InvalidateScoreboard(ctx context.Context) error {
	return c.deletePrefix(ctx, ScoreboardKeyPrefix)
}

func (c *RedisCache) InvalidateChallengeList(ctx context.Context) error {
	return c.deletePrefix(ctx, ChallengeListKeyPrefix)
}

// deletePrefix 用 SCAN 代替 KEYS，避免阻塞 Redis
func (c *RedisCache) deletePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s*: %w", prefix, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete %d keys with prefix %s: %w", len(keys), prefix, err)
	}
	return nil
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// NopCache Redis 未启用时使用，不缓存任何内容
type NopCache struct{}

func (NopCache) InvalidateScoreboard(context.Context) error    { return nil }
func (NopCache) InvalidateChallengeList(context.Context) error { return nil }
func (NopCache) GetJSON(context.Context, string, interface{}) (bool, error) {
	return false, nil
}
func (NopCache) SetJSON(context.Context, string, interface{}, time.Duration) error { return nil }

// invalidateAll 数据已提交，缓存失效失败只记录日志
func invalidateAll(ctx context.Context, cache CacheInvalidator, log *slog.Logger) {
	if err := cache.InvalidateScoreboard(ctx); err != nil {
		log.Warn("invalidate scoreboard cache failed", "error", err)
	}
	if err := cache.InvalidateChallengeList(ctx); err != nil {
		log.Warn("invalidate challenge list cache failed", "error", err)
	}
}
