// Package cache implements the product read cache on Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rai/storefront-modularmonolith-go/modules/catalog/application/queries"
)

const keyPrefix = "catalog:product:"

type RedisProductCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisProductCache(client redis.Cmdable, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{client: client, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

func (c *RedisProductCache) Get(ctx context.Context, id string) (*queries.ProductDTO, bool, error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cached product: %w", err)
	}

	var dto queries.ProductDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, false, fmt.Errorf("decoding cached product: %w", err)
	}
	return &dto, true, nil
}

func (c *RedisProductCache) Set(ctx context.Context, product *queries.ProductDTO) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("encoding product: %w", err)
	}
	if err := c.client.Set(ctx, key(product.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("caching product: %w", err)
	}
	return nil
}

func (c *RedisProductCache) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("evicting products: %w", err)
	}
	return nil
}

var _ queries.ProductCache = (*RedisProductCache)(nil)
