package domain

import (
	"context"
	"time"
)

// CatalogSource 商品列表的远程数据源
type CatalogSource interface {
	ListProducts(ctx context.Context) ([]Product, error)
}

// QueryCache 查询结果缓存，只存放成功的结果
type QueryCache interface {
	// Get 未命中时返回 ok=false 且 err=nil
	Get(ctx context.Context, key string) (products []Product, ok bool, err error)
	Set(ctx context.Context, key string, products []Product, ttl time.Duration) error
}
