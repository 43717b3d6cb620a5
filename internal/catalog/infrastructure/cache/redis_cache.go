package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wyfcoding/storefront/internal/catalog/domain"
)

// KV 字节级 KV 存储，由 pkg/cache.RedisCache 实现
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error
}

// RedisCache 多实例共享的查询缓存，过期交给 redis TTL
type RedisCache struct {
	kv     KV
	prefix string
}

var _ domain.QueryCache = (*RedisCache)(nil)

// NewRedisCache 创建 redis 查询缓存
func NewRedisCache(kv KV, prefix string) *RedisCache {
	return &RedisCache{kv: kv, prefix: prefix}
}

// Get 读取缓存
func (r *RedisCache) Get(ctx context.Context, key string) ([]domain.Product, bool, error) {
	raw, ok, err := r.kv.Get(ctx, r.prefix+key)
	if err != nil || !ok {
		return nil, false, err
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	return products, true, nil
}

// Set 写入缓存
func (r *RedisCache) Set(ctx context.Context, key string, products []domain.Product, ttl time.Duration) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, r.prefix+key, raw, ttl)
}
