// Package cache 目录查询缓存实现（bigcache 进程内 / redis 共享）
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/wyfcoding/storefront/internal/catalog/domain"
)

type entry struct {
	ExpiresAt time.Time        `json:"expires_at"`
	Products  []domain.Product `json:"products"`
}

// MemoryCache 基于 bigcache 的进程内查询缓存
// bigcache 只按 LifeWindow 批量淘汰，条目自身再记录过期时间
type MemoryCache struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

var _ domain.QueryCache = (*MemoryCache)(nil)

// NewMemoryCache 创建进程内缓存，lifeWindow 为 bigcache 的淘汰窗口
func NewMemoryCache(ctx context.Context, lifeWindow time.Duration) (*MemoryCache, error) {
	cfg := bigcache.DefaultConfig(lifeWindow)
	cfg.Shards = 16
	cfg.Verbose = false
	c, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigcache: %w", err)
	}
	return &MemoryCache{cache: c, now: time.Now}, nil
}

// Get 读取缓存
func (m *MemoryCache) Get(_ context.Context, key string) ([]domain.Product, bool, error) {
	raw, err := m.cache.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		_ = m.cache.Delete(key)
		return nil, false, fmt.Errorf("corrupt cache entry %s: %w", key, err)
	}
	if !m.now().Before(e.ExpiresAt) {
		_ = m.cache.Delete(key)
		return nil, false, nil
	}
	return e.Products, true, nil
}

// Set 写入缓存
func (m *MemoryCache) Set(_ context.Context, key string, products []domain.Product, ttl time.Duration) error {
	raw, err := json.Marshal(entry{ExpiresAt: m.now().Add(ttl), Products: products})
	if err != nil {
		return err
	}
	return m.cache.Set(key, raw)
}

// Close 释放 bigcache 的清理协程
func (m *MemoryCache) Close() error {
	return m.cache.Close()
}
