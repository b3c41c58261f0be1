package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const categoriesKey = "catalog:categories"

// RedisCategoryCache keeps the storefront category list in Redis
type RedisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCategoryCache(client *redis.Client, ttl time.Duration) *RedisCategoryCache {
	return &RedisCategoryCache{client: client, ttl: ttl}
}

func (c *RedisCategoryCache) Get(ctx context.Context) ([]string, bool) {
	raw, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Category cache read failed: %v", err)
		}
		return nil, false
	}

	var categories []string
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false
	}
	return categories, true
}

func (c *RedisCategoryCache) Set(ctx context.Context, categories []string) {
	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, categoriesKey, raw, c.ttl).Err(); err != nil {
		log.Printf("Category cache write failed: %v", err)
	}
}

func (c *RedisCategoryCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, categoriesKey).Err(); err != nil {
		log.Printf("Category cache invalidation failed: %v", err)
	}
}
