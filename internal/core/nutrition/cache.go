package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"food-analyzer/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss 快取中沒有資料
var ErrCacheMiss = errors.New("cache miss")

const cacheKeyPrefix = "nutrition:search:"

// Cache 搜尋結果快取
type Cache interface {
	Get(ctx context.Context, query string) (*Estimate, error)
	Set(ctx context.Context, query string, estimate *Estimate) error
}

// RedisCache 以 Redis 保存搜尋結果
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache 連線並測試 Redis
func NewRedisCache(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{client: client, ttl: cfg.TTL}, nil
}

// Get 獲取緩存
func (c *RedisCache) Get(ctx context.Context, query string) (*Estimate, error) {
	data, err := c.client.Get(ctx, cacheKey(query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get cache: %w", err)
	}

	var estimate Estimate
	if err := json.Unmarshal(data, &estimate); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache: %w", err)
	}
	return &estimate, nil
}

// Set 設置緩存
func (c *RedisCache) Set(ctx context.Context, query string, estimate *Estimate) error {
	data, err := json.Marshal(estimate)
	if err != nil {
		return fmt.Errorf("failed to marshal estimate: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(query), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Close 關閉連線
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// cacheKey 上游收到的是原樣查詢，鍵也使用原樣查詢
func cacheKey(query string) string {
	return cacheKeyPrefix + query
}
