package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const viewKeyPrefix = "deferral:view:"

// ViewCache 缓存清单复核视图,文档变更时失效
type ViewCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewViewCache 创建视图缓存
func NewViewCache(client *RedisClient, ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ViewCache{client: client.Client, ttl: ttl}
}

// Get 读取缓存,未命中返回 false
func (c *ViewCache) Get(ctx context.Context, checklistID string, out interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, viewKeyPrefix+checklistID).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// Set 写入缓存
func (c *ViewCache) Set(ctx context.Context, checklistID string, view interface{}) error {
	raw, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, viewKeyPrefix+checklistID, raw, c.ttl).Err()
}

// Invalidate 删除缓存
func (c *ViewCache) Invalidate(ctx context.Context, checklistID string) error {
	return c.client.Del(ctx, viewKeyPrefix+checklistID).Err()
}

// Flush 删除所有清单视图缓存
func (c *ViewCache) Flush(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, viewKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
